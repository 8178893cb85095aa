package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/warden-ai/warden/internal/trust"
)

// ListDirTool lists directory entries.
type ListDirTool struct{}

func (t *ListDirTool) Name() string { return "list_dir" }

func (t *ListDirTool) Trust() trust.Descriptor {
	return trust.Descriptor{Name: "list_dir", Kind: trust.KindShell, AlwaysTrusted: true}
}

func (t *ListDirTool) Description() string {
	return "List the entries of a directory. Directories are suffixed with '/'. " +
		"Use this instead of bash ls."
}

func (t *ListDirTool) Parameters() map[string]any {
	return map[string]any{
		"path": map[string]any{
			"type":        "string",
			"description": "Directory to list (default: current directory)",
		},
	}
}

func (t *ListDirTool) Execute(_ context.Context, params json.RawMessage) (ToolResult, error) {
	var p struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return ToolResult{}, fmt.Errorf("invalid params: %w", err)
	}
	if p.Path == "" {
		p.Path = "."
	}

	entries, err := os.ReadDir(p.Path)
	if err != nil {
		return ToolResult{}, fmt.Errorf("failed to list directory: %w", err)
	}
	if len(entries) == 0 {
		return ToolResult{Content: "(empty directory)"}, nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return ToolResult{Content: strings.Join(names, "\n")}, nil
}
