package trust

import (
	"sync"
	"testing"
)

func TestStoreAllowAndIsAllowed(t *testing.T) {
	s := NewStore()

	if s.IsAllowed(KindShell, "git") {
		t.Fatal("fresh store should allow nothing")
	}

	s.Allow(KindShell, "git")
	if !s.IsAllowed(KindShell, "git") {
		t.Fatal("git should be allowed after Allow")
	}

	// idempotent
	s.Allow(KindShell, "git")
	if !s.IsAllowed(KindShell, "git") {
		t.Fatal("re-adding must not remove the entry")
	}
}

func TestStoreKindNamespacing(t *testing.T) {
	s := NewStore()
	s.Allow(KindShell, "npm")

	if s.IsAllowed(KindBridged, "npm") {
		t.Fatal("shell entry must not leak into bridged namespace")
	}

	s.Allow(KindBridged, "fs")
	if s.IsAllowed(KindShell, "fs") {
		t.Fatal("bridged entry must not leak into shell namespace")
	}
}

func TestStoreEmptyScope(t *testing.T) {
	s := NewStore()
	s.Allow(KindShell, "")
	if s.IsAllowed(KindShell, "") {
		t.Fatal("the empty scope must never be allowed")
	}
}

func TestStoreGrants(t *testing.T) {
	s := NewStore()
	s.Allow(KindShell, "npm")
	s.Allow(KindShell, "git")
	s.Allow(KindBridged, "github")

	grants := s.Grants()
	shell := grants[KindShell]
	if len(shell) != 2 || shell[0] != "git" || shell[1] != "npm" {
		t.Errorf("shell grants should be sorted, got %v", shell)
	}
	if len(grants[KindBridged]) != 1 || grants[KindBridged][0] != "github" {
		t.Errorf("unexpected bridged grants: %v", grants[KindBridged])
	}

	// The snapshot must be detached from the store.
	shell[0] = "mutated"
	if !s.IsAllowed(KindShell, "git") {
		t.Error("mutating the snapshot must not affect the store")
	}
}

func TestStoreConcurrency(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	scopes := []string{"git", "ls", "npm", "go", "make"}

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			scope := scopes[i%len(scopes)]
			s.Allow(KindShell, scope)
			s.IsAllowed(KindShell, scope)
		}(i)
	}
	wg.Wait()

	for _, scope := range scopes {
		if !s.IsAllowed(KindShell, scope) {
			t.Errorf("%s should be allowed", scope)
		}
	}
}
