package trust

import (
	"sort"
	"sync"
)

// Store is the session-scoped allowlist of "always proceed" decisions.
// Entries are namespaced by kind and only ever grow; nothing is persisted
// across sessions. A Store is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	scopes map[Kind]map[string]struct{}
}

// NewStore returns an empty allowlist.
func NewStore() *Store {
	return &Store{scopes: make(map[Kind]map[string]struct{})}
}

// Allow records scope as trusted for the rest of the session. Empty scopes
// are ignored; re-adding an existing scope is a no-op.
func (s *Store) Allow(kind Kind, scope string) {
	if scope == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.scopes[kind]
	if !ok {
		set = make(map[string]struct{})
		s.scopes[kind] = set
	}
	set[scope] = struct{}{}
}

// IsAllowed reports whether scope was previously trusted for kind.
// The empty scope is never allowed.
func (s *Store) IsAllowed(kind Kind, scope string) bool {
	if scope == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.scopes[kind][scope]
	return ok
}

// Grants returns a sorted snapshot of the recorded scopes per kind,
// for status display.
func (s *Store) Grants() map[Kind][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Kind][]string, len(s.scopes))
	for kind, set := range s.scopes {
		scopes := make([]string, 0, len(set))
		for scope := range set {
			scopes = append(scopes, scope)
		}
		sort.Strings(scopes)
		out[kind] = scopes
	}
	return out
}
