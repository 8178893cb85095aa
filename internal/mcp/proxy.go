package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/warden-ai/warden/internal/tools"
	"github.com/warden-ai/warden/internal/trust"
)

// ToolProxy wraps a single bridged MCP tool as a tools.Tool so the agent
// can call it. Its trust identity carries the server and server-local tool
// names, so grants can target either the one tool or the whole server.
//
// Registered name format: mcp__<server>__<tool>
// Example: mcp__filesystem__read_file
type ToolProxy struct {
	serverName string
	tool       *mcpsdk.Tool
	manager    *Manager
	fullName   string
}

var _ tools.Tool = (*ToolProxy)(nil)

func (p *ToolProxy) Name() string { return p.fullName }

func (p *ToolProxy) Trust() trust.Descriptor {
	return trust.Descriptor{
		Name:   p.fullName,
		Kind:   trust.KindBridged,
		Server: p.serverName,
		Tool:   p.tool.Name,
	}
}

func (p *ToolProxy) Description() string {
	desc := p.tool.Description
	if desc == "" {
		return fmt.Sprintf("[MCP: %s] %s", p.serverName, p.tool.Name)
	}
	return fmt.Sprintf("[MCP: %s] %s", p.serverName, desc)
}

// Parameters extracts properties from the tool's InputSchema.
func (p *ToolProxy) Parameters() map[string]any {
	return extractProperties(p.tool.InputSchema)
}

func (p *ToolProxy) Execute(ctx context.Context, params json.RawMessage) (tools.ToolResult, error) {
	var args map[string]any
	if len(params) > 0 {
		if err := json.Unmarshal(params, &args); err != nil {
			return tools.ToolResult{
				Content: fmt.Sprintf("invalid params: %v", err),
				IsError: true,
			}, nil
		}
	}
	if args == nil {
		args = map[string]any{}
	}

	output, isError, err := p.manager.CallTool(ctx, p.serverName, p.tool.Name, args)
	if err != nil {
		return tools.ToolResult{
			Content: fmt.Sprintf("mcp tool error: %v", err),
			IsError: true,
		}, nil
	}

	return tools.ToolResult{
		Content: output,
		IsError: isError,
	}, nil
}

// RegisterTools registers all connected servers' tools from the manager
// into the registry. Returns the total number of tools registered.
func RegisterTools(manager *Manager, registry *tools.Registry) int {
	count := 0
	for serverName, serverTools := range manager.AllTools() {
		for _, t := range serverTools {
			registry.Register(&ToolProxy{
				serverName: serverName,
				tool:       t,
				manager:    manager,
				fullName:   fmt.Sprintf("mcp__%s__%s", serverName, t.Name),
			})
			count++
		}
	}
	return count
}

// ── Schema conversion ────────────────────────────────────────────────────

// extractProperties extracts JSON Schema properties from an MCP tool's
// InputSchema (a JSON-deserialized map with {"type":"object",
// "properties":{...}}).
func extractProperties(schema any) map[string]any {
	if schema == nil {
		return map[string]any{}
	}

	m, ok := schema.(map[string]any)
	if !ok {
		return map[string]any{}
	}

	props, ok := m["properties"].(map[string]any)
	if !ok {
		return map[string]any{}
	}

	return props
}
