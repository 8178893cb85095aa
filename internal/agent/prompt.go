package agent

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/warden-ai/warden/internal/config"
	"github.com/warden-ai/warden/internal/provider"
)

const defaultSystemPrompt = `You are warden, an interactive coding agent running in the user's terminal.

You help with software engineering tasks: reading and understanding code, running commands, and working with connected MCP servers.

<tool_guidelines>
read_file / list_dir / glob / grep
- Use these to explore the codebase before answering. They run without confirmation.

bash
- Runs a shell command in the working directory. The user may be asked to confirm it first.
- If a command comes back cancelled by the user, do not retry it. Ask what they want instead.
- Prefer targeted commands over broad ones. Never run destructive commands unless explicitly asked.

mcp__* tools
- These are tools bridged from external MCP servers. They may also require user confirmation.
- A cancelled bridged call means the user declined; respect that decision.
</tool_guidelines>

Rules:
- Be concise. Answer directly, then stop.
- Use tools to gather evidence instead of guessing.
- When a tool result says the user cancelled, stop that line of work and check in with the user.`

// buildSystemPrompt assembles the system prompt: config override or default,
// plus project context and an identity suffix.
func buildSystemPrompt(cfg *config.Config, p provider.Provider) string {
	base := defaultSystemPrompt
	if cfg.SystemPrompt != "" {
		base = cfg.SystemPrompt
	}

	cwd, _ := os.Getwd()
	if ctx := loadProjectContext(cwd); ctx != "" {
		base += ctx
	}

	model := cfg.Model
	if model == "" {
		model = p.DefaultModel()
	}
	return base + fmt.Sprintf(
		"\n\nYou are powered by %s (model: %s). When asked about your identity, state these facts.",
		p.Name(), model)
}

// loadProjectContext reads WARDEN.md or .warden/context.md from the working
// directory, in that priority order.
func loadProjectContext(cwd string) string {
	for _, name := range []string{"WARDEN.md", filepath.Join(".warden", "context.md")} {
		data, err := os.ReadFile(filepath.Join(cwd, name))
		if err != nil || len(data) == 0 {
			continue
		}
		return "\n\n<project_context>\n" + string(data) + "\n</project_context>"
	}
	return ""
}
