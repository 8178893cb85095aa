package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/warden-ai/warden/internal/trust"
)

// Confirmer is the prompting side of the trust protocol. The executor
// hands it a pending request; the implementation presents the options to
// the user and returns the chosen outcome. A non-nil error (including a
// cancelled context) abandons the request.
//
// This lives here rather than in the tui package to avoid a circular
// import between agent, tui, and tools.
type Confirmer interface {
	Confirm(ctx context.Context, req *trust.Request) (trust.Outcome, error)
}

// Executor runs tool calls, gating each invocation through the trust gate
// and applying a per-call timeout and output limit.
type Executor struct {
	registry       *Registry
	gate           *trust.Gate
	confirmer      Confirmer
	trustAll       bool
	defaultTimeout time.Duration

	// serializes confirmation dialogs when tool calls run in parallel
	confirmMu sync.Mutex
}

// NewExecutor creates a tool executor. trustAll marks every descriptor
// permanently trusted, for sessions started in fully-trusted mode.
func NewExecutor(registry *Registry, gate *trust.Gate, trustAll bool) *Executor {
	return &Executor{
		registry:       registry,
		gate:           gate,
		trustAll:       trustAll,
		defaultTimeout: 300 * time.Second,
	}
}

// SetConfirmer injects the UI-layer confirmer (called after New to avoid
// circular dependencies). Without one, every pending request is cancelled.
func (e *Executor) SetConfirmer(c Confirmer) {
	e.confirmer = c
}

// Registry returns the underlying tool registry.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Gate returns the underlying trust gate.
func (e *Executor) Gate() *trust.Gate {
	return e.gate
}

// cancelledResult is what the agent loop sees when the user declined or
// interrupted. Not an error: the loop stops and returns to user input.
func cancelledResult() ToolResult {
	return ToolResult{
		Content:       "[User cancelled — tool was not executed]",
		UserCancelled: true,
	}
}

// Execute runs a single tool call.
func (e *Executor) Execute(ctx context.Context, name string, params json.RawMessage) ToolResult {
	tool, ok := e.registry.Get(name)
	if !ok {
		return ToolResult{Content: fmt.Sprintf("unknown tool: %s", name), IsError: true}
	}

	// The loop context may already be cancelled (Esc during streaming,
	// before tool execution started).
	if ctx.Err() == context.Canceled {
		return cancelledResult()
	}

	desc := tool.Trust()
	if e.trustAll {
		desc.AlwaysTrusted = true
	}

	req, err := e.gate.Evaluate(desc, params)
	if err != nil {
		// Malformed invocation. The model sees the reason and adjusts;
		// the call never runs.
		return ToolResult{Content: fmt.Sprintf("Blocked: %v", err), IsError: true}
	}

	if req != nil {
		if verdict := e.confirm(ctx, req); verdict != trust.Proceeded {
			return cancelledResult()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.defaultTimeout)
	defer cancel()

	result, err := tool.Execute(ctx, params)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return cancelledResult()
		}
		return ToolResult{Content: fmt.Sprintf("error: %v", err), IsError: true}
	}

	limit := toolOutputLimit(name)
	if len(result.Content) > limit {
		result.Content = truncateHeadTail(result.Content, limit)
		result.Truncated = true
	}

	return result
}

// confirm presents a pending request to the user and resolves it. Prompt
// failures and context cancellation abandon the request, so nothing is
// remembered.
func (e *Executor) confirm(ctx context.Context, req *trust.Request) trust.Verdict {
	if e.confirmer == nil {
		req.Abandon()
		return trust.Cancelled
	}

	// One dialog at a time during parallel execution.
	e.confirmMu.Lock()
	defer e.confirmMu.Unlock()

	if ctx.Err() != nil {
		req.Abandon()
		return trust.Cancelled
	}

	outcome, err := e.confirmer.Confirm(ctx, req)
	if err != nil {
		req.Abandon()
		return trust.Cancelled
	}

	verdict, err := req.Resolve(outcome)
	if err != nil {
		// Already abandoned elsewhere; the recorded verdict stands.
		return verdict
	}
	return verdict
}

// toolOutputLimit returns the output byte limit for a given tool.
func toolOutputLimit(name string) int {
	switch name {
	case "read_file", "grep", "bash":
		return 32 * 1024 // ~8K tokens
	case "list_dir", "glob":
		return 16 * 1024
	default: // bridged tools and anything else
		return 32 * 1024
	}
}

// truncateHeadTail keeps the head (60%) and tail (40%) of a string,
// omitting the middle. Tail content (errors, final results) is often more
// important than the middle.
func truncateHeadTail(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	head := maxLen * 3 / 5
	tail := maxLen * 2 / 5
	omitted := len(s) - head - tail
	return s[:head] + fmt.Sprintf("\n\n[...%d chars omitted...]\n\n", omitted) + s[len(s)-tail:]
}
