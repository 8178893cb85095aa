package agent

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/warden-ai/warden/internal/config"
	"github.com/warden-ai/warden/internal/provider"
	"github.com/warden-ai/warden/internal/tools"
	"github.com/warden-ai/warden/internal/trust"
)

// scriptedProvider replays one fixed event sequence per Chat call.
type scriptedProvider struct {
	turns [][]provider.Event
	calls int
}

func (p *scriptedProvider) Chat(_ context.Context, _ *provider.ChatRequest) (<-chan provider.Event, error) {
	var events []provider.Event
	if p.calls < len(p.turns) {
		events = p.turns[p.calls]
	}
	p.calls++

	ch := make(chan provider.Event, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) Name() string         { return "scripted" }
func (p *scriptedProvider) DefaultModel() string { return "test-model" }

// nopIO satisfies tui.IO and records the confirmation outcome it hands out.
type nopIO struct {
	mu       sync.Mutex
	outcome  trust.Outcome
	messages []string
}

func (n *nopIO) ReadInput() (string, error)      { return "", nil }
func (n *nopIO) ThinkingStart()                  {}
func (n *nopIO) TextDelta(string)                {}
func (n *nopIO) TextDone(string)                 {}
func (n *nopIO) ToolStart(_, _, _ string)        {}
func (n *nopIO) ToolDone(_, _, _ string, _ bool) {}
func (n *nopIO) Error(string)                    {}
func (n *nopIO) SetTokens(int)                   {}

func (n *nopIO) SystemMessage(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
}

func (n *nopIO) Confirm(_ context.Context, _ *trust.Request) (trust.Outcome, error) {
	return n.outcome, nil
}

// echoTool is a trusted test tool that records its invocations.
type echoTool struct {
	mu    sync.Mutex
	calls int
}

func (e *echoTool) Name() string                { return "echo" }
func (e *echoTool) Description() string         { return "Echo a message" }
func (e *echoTool) Parameters() map[string]any  { return map[string]any{} }
func (e *echoTool) Trust() trust.Descriptor {
	return trust.Descriptor{Name: "echo", Kind: trust.KindShell, AlwaysTrusted: true}
}

func (e *echoTool) Execute(_ context.Context, params json.RawMessage) (tools.ToolResult, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return tools.ToolResult{Content: string(params)}, nil
}

func newTestAgent(t *testing.T, p provider.Provider, ui *nopIO, tool tools.Tool) (*Agent, *tools.Executor) {
	t.Helper()
	registry := tools.NewRegistry()
	registry.Register(tool)
	exec := tools.NewExecutor(registry, trust.NewGate(trust.NewStore()), false)
	exec.SetConfirmer(ui)
	cfg := config.DefaultConfig()
	return New(p, exec, cfg, ui), exec
}

func TestRunAgentLoop_ToolCallThenText(t *testing.T) {
	p := &scriptedProvider{turns: [][]provider.Event{
		{
			{Type: provider.EventToolCallDone, ToolCall: &provider.ToolCallRequest{
				ID: "call-1", Name: "echo", Input: json.RawMessage(`{"msg":"hi"}`),
			}},
			{Type: provider.EventDone, Usage: &provider.Usage{InputTokens: 10, OutputTokens: 5}},
		},
		{
			{Type: provider.EventTextDelta, TextDelta: "all done"},
			{Type: provider.EventDone, Usage: &provider.Usage{InputTokens: 12, OutputTokens: 3}},
		},
	}}
	ui := &nopIO{}
	tool := &echoTool{}
	a, _ := newTestAgent(t, p, ui, tool)

	if err := a.RunOnce(context.Background(), "go"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tool.calls != 1 {
		t.Errorf("tool executed %d times, want 1", tool.calls)
	}
	if p.calls != 2 {
		t.Errorf("provider called %d times, want 2", p.calls)
	}
	// Expected history: user, assistant(tool_use), user(tool_result), assistant(text).
	if len(a.messages) != 4 {
		t.Fatalf("history has %d messages, want 4", len(a.messages))
	}
	last := a.messages[3]
	if last.Role != provider.RoleAssistant || last.Content[0].Text != "all done" {
		t.Errorf("unexpected final message: %+v", last)
	}
	if a.tokensUsed != 30 {
		t.Errorf("tokensUsed = %d, want 30", a.tokensUsed)
	}
}

func TestRunAgentLoop_NoToolCallsReturnsImmediately(t *testing.T) {
	p := &scriptedProvider{turns: [][]provider.Event{
		{
			{Type: provider.EventTextDelta, TextDelta: "hello"},
			{Type: provider.EventDone, Usage: &provider.Usage{}},
		},
	}}
	ui := &nopIO{}
	a, _ := newTestAgent(t, p, ui, &echoTool{})

	if err := a.RunOnce(context.Background(), "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.calls != 1 {
		t.Errorf("provider called %d times, want 1", p.calls)
	}
	if len(a.messages) != 2 {
		t.Errorf("history has %d messages, want 2", len(a.messages))
	}
}

// gatedTool requires confirmation like bash does.
type gatedTool struct {
	echoTool
}

func (g *gatedTool) Name() string { return "bash" }
func (g *gatedTool) Trust() trust.Descriptor {
	return trust.Descriptor{Name: "bash", Kind: trust.KindShell}
}

func TestRunAgentLoop_CancelledConfirmationStopsLoop(t *testing.T) {
	p := &scriptedProvider{turns: [][]provider.Event{
		{
			{Type: provider.EventToolCallDone, ToolCall: &provider.ToolCallRequest{
				ID: "call-1", Name: "bash", Input: json.RawMessage(`{"command":"rm -rf /tmp/x"}`),
			}},
			{Type: provider.EventDone, Usage: &provider.Usage{}},
		},
		{
			// Would be a second turn; must never be reached.
			{Type: provider.EventTextDelta, TextDelta: "unreachable"},
			{Type: provider.EventDone, Usage: &provider.Usage{}},
		},
	}}
	ui := &nopIO{outcome: trust.Cancel}
	tool := &gatedTool{}
	a, _ := newTestAgent(t, p, ui, tool)

	if err := a.RunOnce(context.Background(), "clean up"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tool.calls != 0 {
		t.Errorf("cancelled tool executed %d times, want 0", tool.calls)
	}
	if p.calls != 1 {
		t.Errorf("loop continued after cancellation: provider called %d times", p.calls)
	}
	// History must still carry the tool_result so the model sees the cancellation.
	if len(a.messages) != 3 {
		t.Fatalf("history has %d messages, want 3", len(a.messages))
	}
	result := a.messages[2].Content[0]
	if result.Type != provider.ContentTypeToolResult || result.IsError {
		t.Errorf("cancellation result should be a non-error tool_result, got %+v", result)
	}
}

func TestBuildAssistantMessage(t *testing.T) {
	msg := buildAssistantMessage("working", []*provider.ToolCallRequest{
		{ID: "t1", Name: "echo", Input: json.RawMessage(`{}`)},
	})
	if msg.Role != provider.RoleAssistant {
		t.Errorf("role = %v", msg.Role)
	}
	if len(msg.Content) != 2 {
		t.Fatalf("content blocks = %d, want 2", len(msg.Content))
	}
	if msg.Content[0].Type != provider.ContentTypeText || msg.Content[1].Type != provider.ContentTypeToolUse {
		t.Errorf("unexpected block order: %+v", msg.Content)
	}
}

func TestBuildToolSchemas(t *testing.T) {
	ui := &nopIO{}
	a, _ := newTestAgent(t, &scriptedProvider{}, ui, &echoTool{})
	schemas := a.buildToolSchemas()
	if len(schemas) != 1 || schemas[0].Name != "echo" {
		t.Fatalf("unexpected schemas: %+v", schemas)
	}
}
