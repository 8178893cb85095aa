package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// --- Registry tests ---

func TestDefaultRegistry_AllToolsRegistered(t *testing.T) {
	r := DefaultRegistry()
	expected := []string{"bash", "glob", "grep", "list_dir", "read_file"}
	all := r.All()
	if len(all) != len(expected) {
		t.Fatalf("expected %d tools, got %d", len(expected), len(all))
	}
	for i, tool := range all {
		if tool.Name() != expected[i] {
			t.Errorf("tool %d: expected %q, got %q", i, expected[i], tool.Name())
		}
	}
}

func TestDefaultRegistry_TrustIdentity(t *testing.T) {
	r := DefaultRegistry()
	for _, tool := range r.All() {
		d := tool.Trust()
		if d.Name != tool.Name() {
			t.Errorf("%s: descriptor name %q mismatched", tool.Name(), d.Name)
		}
		if tool.Name() == "bash" {
			if d.AlwaysTrusted {
				t.Error("bash must not be always-trusted by default")
			}
		} else if !d.AlwaysTrusted {
			t.Errorf("%s is read-only and should be always-trusted", tool.Name())
		}
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("nonexistent"); ok {
		t.Error("expected Get to return false for unknown tool")
	}
}

// --- ReadFile tests ---

func TestReadFile_Basic(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "test.txt")
	os.WriteFile(path, []byte("line1\nline2\nline3\n"), 0644)

	tool := &ReadFileTool{}
	params, _ := json.Marshal(map[string]any{"path": path})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("unexpected tool error")
	}
	if !strings.Contains(result.Content, "line1") || !strings.Contains(result.Content, "line3") {
		t.Error("result should contain file content")
	}
}

func TestReadFile_WithOffset(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "test.txt")
	os.WriteFile(path, []byte("alpha\nbeta\ngamma\ndelta\nepsilon\n"), 0644)

	tool := &ReadFileTool{}
	params, _ := json.Marshal(map[string]any{"path": path, "offset": 2, "limit": 2})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Content, "gamma") {
		t.Error("result should contain line starting at offset")
	}
	if strings.Contains(result.Content, "alpha") {
		t.Error("result should not contain lines before offset")
	}
}

func TestReadFile_MissingPath(t *testing.T) {
	tool := &ReadFileTool{}
	params, _ := json.Marshal(map[string]any{})
	if _, err := tool.Execute(context.Background(), params); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestReadFile_NotFound(t *testing.T) {
	tool := &ReadFileTool{}
	params, _ := json.Marshal(map[string]any{"path": "/nonexistent/file.txt"})
	if _, err := tool.Execute(context.Background(), params); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

// --- ListDir tests ---

func TestListDir_Basic(t *testing.T) {
	tmp := t.TempDir()
	os.WriteFile(filepath.Join(tmp, "a.txt"), []byte(""), 0644)
	os.MkdirAll(filepath.Join(tmp, "sub"), 0755)

	tool := &ListDirTool{}
	params, _ := json.Marshal(map[string]any{"path": tmp})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Content, "a.txt") {
		t.Error("should list a.txt")
	}
	if !strings.Contains(result.Content, "sub/") {
		t.Error("directories should carry a trailing slash")
	}
}

func TestListDir_Empty(t *testing.T) {
	tool := &ListDirTool{}
	params, _ := json.Marshal(map[string]any{"path": t.TempDir()})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "(empty directory)" {
		t.Errorf("got %q", result.Content)
	}
}

// --- Grep tests ---

func TestGrep_Basic(t *testing.T) {
	tmp := t.TempDir()
	os.WriteFile(filepath.Join(tmp, "a.go"), []byte("package a\nfunc Run() {}\n"), 0644)
	os.WriteFile(filepath.Join(tmp, "b.go"), []byte("package b\n"), 0644)

	tool := &GrepTool{}
	params, _ := json.Marshal(map[string]any{"pattern": "func Run", "path": tmp})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Content, "a.go:2:") {
		t.Errorf("expected file:line match, got %q", result.Content)
	}
	if strings.Contains(result.Content, "b.go") {
		t.Error("b.go has no match")
	}
}

func TestGrep_NoMatches(t *testing.T) {
	tool := &GrepTool{}
	params, _ := json.Marshal(map[string]any{"pattern": "zzz_nothing", "path": t.TempDir()})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "no matches found" {
		t.Errorf("got %q", result.Content)
	}
}

func TestGrep_InvalidRegex(t *testing.T) {
	tool := &GrepTool{}
	params, _ := json.Marshal(map[string]any{"pattern": "(["})
	if _, err := tool.Execute(context.Background(), params); err == nil {
		t.Error("expected error for invalid regex")
	}
}

func TestGrep_CaseInsensitive(t *testing.T) {
	tmp := t.TempDir()
	os.WriteFile(filepath.Join(tmp, "a.txt"), []byte("Hello World\n"), 0644)

	tool := &GrepTool{}
	params, _ := json.Marshal(map[string]any{
		"pattern":          "hello",
		"path":             tmp,
		"case_insensitive": true,
	})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Content, "Hello World") {
		t.Error("case-insensitive search should match")
	}
}
