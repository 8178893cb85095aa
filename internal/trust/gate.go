package trust

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrResolved is returned by Request.Resolve when the request has already
// been resolved or abandoned. The original verdict is returned alongside it.
var ErrResolved = errors.New("confirmation request already resolved")

// ValidationError reports an invocation the gate could not classify: an
// empty or separator-only shell command, a shell call without a command,
// or a bridged tool missing its server/tool identity. The executor must
// surface it as an error result, never proceed or silently drop the call.
type ValidationError struct {
	Tool   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cannot evaluate trust for %s: %s", e.Tool, e.Reason)
}

// Gate evaluates tool invocations against an allowlist Store and produces
// pending confirmation requests for anything not yet trusted.
type Gate struct {
	store *Store
}

// NewGate returns a gate backed by store. The store may be shared with
// other gates; all mutation goes through Request.Resolve.
func NewGate(store *Store) *Gate {
	return &Gate{store: store}
}

// Store returns the backing allowlist, for config-time seeding.
func (g *Gate) Store() *Store {
	return g.store
}

// Evaluate decides whether an invocation may proceed without the user.
// A nil Request with a nil error means auto-proceed. A non-nil Request is
// pending and must be resolved (or abandoned) exactly once. A non-nil
// error (always a *ValidationError) means the invocation is malformed and
// must not run.
//
// Precedence: the descriptor's static AlwaysTrusted flag, then the
// allowlist (for bridged tools the whole-server scope is consulted before
// the per-tool scope), then a pending request.
func (g *Gate) Evaluate(d Descriptor, params json.RawMessage) (*Request, error) {
	if d.AlwaysTrusted {
		return nil, nil
	}

	switch d.Kind {
	case KindShell:
		return g.evaluateShell(d, params)
	case KindBridged:
		return g.evaluateBridged(d)
	default:
		return nil, &ValidationError{Tool: d.Name, Reason: fmt.Sprintf("unknown tool kind %q", d.Kind)}
	}
}

func (g *Gate) evaluateShell(d Descriptor, params json.RawMessage) (*Request, error) {
	var args struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return nil, &ValidationError{Tool: d.Name, Reason: "invalid parameters: " + err.Error()}
	}

	root := CommandRoot(args.Command)
	if root == "" {
		return nil, &ValidationError{Tool: d.Name, Reason: "empty command"}
	}

	if g.store.IsAllowed(KindShell, root) {
		return nil, nil
	}

	// For shell the coarse scope collapses onto the fine scope: there is
	// no wider unit than the command root.
	return g.newRequest(d, &Request{
		Title:   fmt.Sprintf("Run %s command", root),
		Command: args.Command,
		Root:    root,
		fine:    root,
		coarse:  root,
	}), nil
}

func (g *Gate) evaluateBridged(d Descriptor) (*Request, error) {
	if d.Server == "" || d.Tool == "" {
		return nil, &ValidationError{Tool: d.Name, Reason: "bridged tool without server/tool identity"}
	}

	fine := d.Server + "." + d.Tool
	if g.store.IsAllowed(KindBridged, d.Server) || g.store.IsAllowed(KindBridged, fine) {
		return nil, nil
	}

	return g.newRequest(d, &Request{
		Title:  fmt.Sprintf("Call %s on server %s", d.Tool, d.Server),
		Server: d.Server,
		Tool:   d.Tool,
		fine:   fine,
		coarse: d.Server,
	}), nil
}

func (g *Gate) newRequest(d Descriptor, r *Request) *Request {
	r.ID = uuid.NewString()
	r.Kind = d.Kind
	r.store = g.store
	return r
}

// Request is a pending confirmation handed to the prompting layer. It is
// resolved at most once; the first Resolve (or Abandon) wins and later
// calls observe the recorded verdict.
type Request struct {
	ID    string
	Title string
	Kind  Kind

	// Shell payload.
	Command string
	Root    string

	// Bridged payload.
	Server string
	Tool   string

	fine   string
	coarse string

	store *Store

	mu       sync.Mutex
	resolved bool
	verdict  Verdict
}

// Resolve applies the user's decision. ProceedAlways and
// ProceedAlwaysServer grow the allowlist at the fine and coarse scopes
// respectively before reporting Proceeded; ProceedOnce proceeds without
// remembering; Cancel (and any unknown outcome) cancels without touching
// the store. A second call returns the first verdict with ErrResolved.
func (r *Request) Resolve(outcome Outcome) (Verdict, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved {
		return r.verdict, ErrResolved
	}
	r.resolved = true

	switch outcome {
	case ProceedOnce:
		r.verdict = Proceeded
	case ProceedAlways:
		r.store.Allow(r.Kind, r.fine)
		r.verdict = Proceeded
	case ProceedAlwaysServer:
		r.store.Allow(r.Kind, r.coarse)
		r.verdict = Proceeded
	default:
		r.verdict = Cancelled
	}
	return r.verdict, nil
}

// Abandon marks the request cancelled without user input, for interrupted
// or torn-down prompts. The allowlist is untouched. Safe to call after a
// resolve; the earlier verdict stands.
func (r *Request) Abandon() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved {
		return
	}
	r.resolved = true
	r.verdict = Cancelled
}
