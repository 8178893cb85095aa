// Package tui defines the IO interface between the agent loop and the
// user interface layer, plus PlainIO (terminal implementation) and the
// confirmation menu.
package tui

import (
	"context"

	"github.com/warden-ai/warden/internal/trust"
)

// IO is the contract between the agent loop and the UI layer.
// Every method maps to a distinct visual event, so the agent loop never
// depends on a specific rendering implementation.
type IO interface {
	// ReadInput blocks until the user submits a line of input.
	// Returns ("", io.EOF) when the user quits.
	ReadInput() (string, error)

	// ThinkingStart signals that the LLM has started processing.
	ThinkingStart()

	// TextDelta appends an incremental text chunk from the LLM stream.
	TextDelta(delta string)

	// TextDone signals that the current LLM response is complete.
	// fullText contains the entire response assembled from all deltas.
	TextDone(fullText string)

	// ToolStart signals that a tool call has begun.
	// id uniquely identifies this call (for correlation with ToolDone).
	ToolStart(id, name, params string)

	// ToolDone signals that a tool call has completed.
	// id matches the id passed to ToolStart.
	ToolDone(id, name, result string, isErr bool)

	// Confirm presents a pending trust request and returns the user's
	// chosen outcome. A non-nil error (interrupted prompt, closed input)
	// means no decision was made; the caller abandons the request.
	Confirm(ctx context.Context, req *trust.Request) (trust.Outcome, error)

	// SystemMessage displays a system-level notice (e.g. startup status,
	// max-iteration warnings).
	SystemMessage(text string)

	// Error displays an error message with prominent styling.
	Error(msg string)

	// SetTokens updates the token counter shown after each turn.
	SetTokens(n int)
}
