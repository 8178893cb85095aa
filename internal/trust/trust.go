// Package trust implements the confirmation gate that sits between the
// agent's decision to invoke a tool and the tool's actual execution.
// It decides, per invocation, whether the call may run unattended, must be
// confirmed by the user, or is permanently trusted for the session.
package trust

// Kind categorizes an invocable capability and determines which trust
// scope rules apply. Allowlist keys are namespaced per kind: a shell root
// "npm" and a bridged server "npm" are independent entries.
type Kind string

const (
	// KindShell is a local shell command; its allowlist scope is the
	// extracted command root (e.g. "git").
	KindShell Kind = "shell"

	// KindBridged is a capability discovered on a remote MCP server,
	// identified by a server name and a server-local tool name. Two scopes
	// exist: the bare server name (any tool on that server) and
	// "<server>.<tool>" (one specific tool).
	KindBridged Kind = "bridged"
)

// Descriptor is the immutable identity of an invocable capability,
// fixed at registration time.
type Descriptor struct {
	// Name is the tool name the model calls, e.g. "bash" or "mcp__fs__read".
	Name string

	Kind Kind

	// Server and Tool identify a bridged capability. Unused for shell.
	Server string
	Tool   string

	// AlwaysTrusted bypasses the allowlist entirely. Set when the session
	// runs in fully-trusted mode or the tool is read-only.
	AlwaysTrusted bool
}

// Outcome is the decision the user makes once per confirmation request.
type Outcome int

const (
	// ProceedOnce runs the tool this one time and remembers nothing.
	ProceedOnce Outcome = iota

	// ProceedAlways remembers the decision at the fine granularity:
	// the command root for shell, "<server>.<tool>" for bridged.
	ProceedAlways

	// ProceedAlwaysServer remembers the decision at the coarse granularity.
	// For bridged tools this trusts the whole server; for shell requests
	// the coarse scope equals the fine scope (the command root).
	ProceedAlwaysServer

	// Cancel abandons the invocation. Nothing is remembered.
	Cancel
)

// Verdict is the terminal state of a gate evaluation.
type Verdict int

const (
	// Proceeded means the invocation may be executed.
	Proceeded Verdict = iota

	// Cancelled means the invocation must not be executed.
	Cancelled
)

func (v Verdict) String() string {
	if v == Proceeded {
		return "proceeded"
	}
	return "cancelled"
}
