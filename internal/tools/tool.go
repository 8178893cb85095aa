// Package tools defines the tool interface shared by built-in and bridged
// tools, the registry, and the executor that routes every invocation
// through the trust gate before running it.
package tools

import (
	"context"
	"encoding/json"

	"github.com/warden-ai/warden/internal/trust"
)

// ToolResult is the outcome of a tool execution.
type ToolResult struct {
	Content       string // primary output
	IsError       bool   // error result, fed back to the model
	Truncated     bool   // content was cut to the output limit
	UserCancelled bool   // the user declined or interrupted; stop the agent loop
}

// Tool is the unified interface for everything the model can invoke.
type Tool interface {
	// Name returns the snake_case name the model calls, e.g. "read_file".
	// Must be unique within a registry.
	Name() string

	// Description returns the tool description sent to the model.
	Description() string

	// Parameters returns the JSON Schema properties of the tool's input.
	Parameters() map[string]any

	// Execute runs the tool. ctx comes from the agent loop and may be
	// cancelled by the user; params is the model-provided input JSON.
	Execute(ctx context.Context, params json.RawMessage) (ToolResult, error)

	// Trust returns the tool's immutable trust identity, fixed at
	// registration. The executor evaluates it before every call.
	Trust() trust.Descriptor
}
