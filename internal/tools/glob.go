package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/warden-ai/warden/internal/trust"
)

// GlobTool matches files using glob patterns.
type GlobTool struct{}

func (t *GlobTool) Name() string { return "glob" }

func (t *GlobTool) Trust() trust.Descriptor {
	return trust.Descriptor{Name: "glob", Kind: trust.KindShell, AlwaysTrusted: true}
}

func (t *GlobTool) Description() string {
	return "Fast file pattern matching tool that works with any codebase size. " +
		"Supports glob patterns including ** for recursive matching (e.g. '**/*.go', 'src/**/*.ts'). " +
		"Returns matching file paths sorted by modification time (newest first). " +
		"Use this instead of bash find or ls."
}

func (t *GlobTool) Parameters() map[string]any {
	return map[string]any{
		"pattern": map[string]any{
			"type":        "string",
			"description": "Glob pattern to match files (e.g. '**/*.go', 'src/*.ts')",
		},
		"path": map[string]any{
			"type":        "string",
			"description": "Base directory to search in (default: current directory)",
		},
	}
}

const maxGlobResults = 1000

func (t *GlobTool) Execute(_ context.Context, params json.RawMessage) (ToolResult, error) {
	var p struct {
		Pattern string `json:"pattern"`
		Path    string `json:"path"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return ToolResult{}, fmt.Errorf("invalid params: %w", err)
	}
	if p.Pattern == "" {
		return ToolResult{}, fmt.Errorf("pattern is required")
	}
	if p.Path == "" {
		p.Path = "."
	}

	var matches []string
	var err error

	if strings.Contains(p.Pattern, "**") {
		matches, err = globRecursive(p.Path, p.Pattern)
	} else {
		matches, err = filepath.Glob(filepath.Join(p.Path, p.Pattern))
	}

	if err != nil {
		return ToolResult{}, fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return ToolResult{Content: "no files matched"}, nil
	}

	sortByModTime(matches)

	truncated := false
	if len(matches) > maxGlobResults {
		matches = matches[:maxGlobResults]
		truncated = true
	}

	content := strings.Join(matches, "\n")
	if truncated {
		content += fmt.Sprintf("\n[Truncated: showing first %d results]", maxGlobResults)
	}

	return ToolResult{Content: content, Truncated: truncated}, nil
}

// globRecursive handles patterns containing ** by walking the directory
// tree and matching each file against the pattern.
func globRecursive(basePath, pattern string) ([]string, error) {
	// "**/*.go" → prefix="", suffix="*.go"; "src/**/*.go" → prefix="src".
	parts := strings.SplitN(pattern, "**", 2)
	prefix := strings.TrimRight(parts[0], "/\\")
	suffix := ""
	if len(parts) > 1 {
		suffix = strings.TrimLeft(parts[1], "/\\")
	}

	root := basePath
	if prefix != "" {
		root = filepath.Join(basePath, prefix)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, nil // no matches, not an error
	}

	var matches []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible
		}
		if d.IsDir() {
			if shouldSkipDir(d.Name()) && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		switch {
		case suffix == "":
			// "**" alone matches every file.
			matches = append(matches, path)
		case strings.Contains(suffix, "/") || strings.Contains(suffix, string(os.PathSeparator)):
			// Suffix with path separators matches the relative path from root.
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}
			if matched, matchErr := filepath.Match(suffix, rel); matchErr == nil && matched {
				matches = append(matches, path)
			}
		default:
			if matched, matchErr := filepath.Match(suffix, d.Name()); matchErr == nil && matched {
				matches = append(matches, path)
			}
		}
		return nil
	})

	return matches, err
}

// sortByModTime sorts file paths by modification time, newest first.
// Files that cannot be stat'd sort to the end.
func sortByModTime(paths []string) {
	type fileWithTime struct {
		path    string
		modTime int64
	}

	files := make([]fileWithTime, len(paths))
	for i, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			files[i] = fileWithTime{path: p}
		} else {
			files[i] = fileWithTime{path: p, modTime: info.ModTime().UnixNano()}
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime > files[j].modTime
	})

	for i, f := range files {
		paths[i] = f.path
	}
}
