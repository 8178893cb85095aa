// Package agent implements the interactive loop between user, LLM, and tools.
// Every tool call the model requests passes through the executor's trust gate
// before anything runs.
package agent

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/warden-ai/warden/internal/config"
	"github.com/warden-ai/warden/internal/mcp"
	"github.com/warden-ai/warden/internal/provider"
	"github.com/warden-ai/warden/internal/tools"
	"github.com/warden-ai/warden/internal/trust"
	"github.com/warden-ai/warden/internal/tui"
)

// Agent orchestrates the interactive loop between user, LLM, and tools.
type Agent struct {
	provider     provider.Provider
	executor     *tools.Executor
	config       *config.Config
	mcpManager   *mcp.Manager
	io           tui.IO
	systemPrompt string
	messages     []provider.Message
	tokensUsed   int
}

// New creates a new Agent with the given IO implementation.
// Pass tui.NewPlainIO() for plain terminal mode.
func New(p provider.Provider, exec *tools.Executor, cfg *config.Config, ui tui.IO) *Agent {
	a := &Agent{
		provider: p,
		executor: exec,
		config:   cfg,
		io:       ui,
	}
	a.systemPrompt = buildSystemPrompt(cfg, p)
	return a
}

// SetMCPManager injects the MCP manager for the /mcp status command.
func (a *Agent) SetMCPManager(m *mcp.Manager) {
	a.mcpManager = m
}

// Run starts the interactive REPL loop.
func (a *Agent) Run(ctx context.Context) error {
	for {
		input, err := a.io.ReadInput()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if input == "" {
			continue
		}

		// Slash commands are intercepted before sending to LLM.
		if strings.HasPrefix(input, "/") {
			handled, shouldQuit := a.handleSlashCommand(input)
			if shouldQuit {
				return nil
			}
			if handled {
				continue
			}
		}

		a.messages = append(a.messages, provider.Message{
			Role: provider.RoleUser,
			Content: []provider.Content{{
				Type: provider.ContentTypeText,
				Text: input,
			}},
		})

		if err := a.runAgentLoop(ctx); err != nil {
			if ctx.Err() != nil {
				a.io.SystemMessage("\nInterrupted.")
				return ctx.Err()
			}
			a.io.Error(err.Error())
		}
	}
}

// RunOnce executes a single prompt and exits (non-interactive mode).
func (a *Agent) RunOnce(ctx context.Context, prompt string) error {
	a.messages = append(a.messages, provider.Message{
		Role: provider.RoleUser,
		Content: []provider.Content{{
			Type: provider.ContentTypeText,
			Text: prompt,
		}},
	})
	return a.runAgentLoop(ctx)
}

// handleSlashCommand processes built-in commands.
// Returns (handled, shouldQuit).
func (a *Agent) handleSlashCommand(input string) (bool, bool) {
	parts := strings.SplitN(strings.TrimSpace(input), " ", 2)
	cmd := parts[0]
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case "/quit", "/exit", "/q":
		a.io.SystemMessage("Bye.")
		return true, true
	case "/clear":
		a.messages = nil
		a.io.SystemMessage("History cleared.")
		return true, false
	case "/history":
		a.io.SystemMessage(formatHistory(a.messages))
		return true, false
	case "/cost":
		a.io.SystemMessage(fmt.Sprintf("Tokens used: %d", a.tokensUsed))
		return true, false
	case "/model":
		return a.handleModel(arg), false
	case "/trust":
		return a.handleTrust(), false
	case "/mcp":
		return a.handleMCP(), false
	case "/help":
		return a.handleHelp(), false
	default:
		return false, false
	}
}

func (a *Agent) handleModel(name string) bool {
	if name == "" {
		model := a.config.Model
		if model == "" {
			model = a.provider.DefaultModel()
		}
		a.io.SystemMessage(fmt.Sprintf("Current model: %s\nUsage: /model <name>", model))
		return true
	}
	old := a.config.Model
	if old == "" {
		old = a.provider.DefaultModel()
	}
	a.config.Model = name
	a.io.SystemMessage(fmt.Sprintf("Model switched: %s -> %s", old, name))
	return true
}

// handleTrust shows the session's accumulated "always allow" grants.
func (a *Agent) handleTrust() bool {
	grants := a.executor.Gate().Store().Grants()

	var sb strings.Builder
	total := 0
	for _, kind := range []trust.Kind{trust.KindShell, trust.KindBridged} {
		scopes := grants[kind]
		if len(scopes) == 0 {
			continue
		}
		total += len(scopes)
		sb.WriteString(fmt.Sprintf("%s:\n", kind))
		for _, scope := range scopes {
			sb.WriteString("  " + scope + "\n")
		}
	}

	if total == 0 {
		a.io.SystemMessage("No session trust grants recorded.\nGrants are added when you pick an \"always allow\" option.")
	} else {
		a.io.SystemMessage(strings.TrimRight(sb.String(), "\n"))
	}
	return true
}

func (a *Agent) handleMCP() bool {
	if a.mcpManager == nil {
		a.io.SystemMessage("MCP not configured. Create ~/.config/warden/mcp.json or .warden/mcp.json.")
		return true
	}
	status := a.mcpManager.Status()
	if len(status) == 0 {
		a.io.SystemMessage("No MCP servers configured.")
		return true
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("MCP servers (%d):\n", len(status)))
	names := make([]string, 0, len(status))
	for n := range status {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		sb.WriteString(fmt.Sprintf("  %-20s %s\n", n, status[n]))
	}
	a.io.SystemMessage(strings.TrimRight(sb.String(), "\n"))
	return true
}

func (a *Agent) handleHelp() bool {
	a.io.SystemMessage(`Available commands:
  /help              Show this help message
  /model <name>      Switch model for this session
  /trust             Show session trust grants (always-allow decisions)
  /mcp               Show MCP server connection status
  /history           Show message history
  /cost              Show token usage
  /clear             Clear message history
  /quit              Exit`)
	return true
}

func formatHistory(messages []provider.Message) string {
	if len(messages) == 0 {
		return "No history."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n=== History (%d messages) ===\n", len(messages))
	for i, msg := range messages {
		fmt.Fprintf(&sb, "[%d] %s:\n", i, msg.Role)
		for _, c := range msg.Content {
			switch c.Type {
			case provider.ContentTypeText:
				fmt.Fprintf(&sb, "    text: %s\n", truncate(c.Text, 100))
			case provider.ContentTypeToolUse:
				fmt.Fprintf(&sb, "    tool_use: %s(%s)\n", c.ToolName, truncate(string(c.ToolInput), 60))
			case provider.ContentTypeToolResult:
				status := "ok"
				if c.IsError {
					status = "err"
				}
				fmt.Fprintf(&sb, "    tool_result[%s]: %s\n", status, truncate(c.ToolResult, 60))
			}
		}
	}
	sb.WriteString("===")
	return sb.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
