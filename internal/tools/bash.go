package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/warden-ai/warden/internal/trust"
)

// ShellTool executes shell commands. It is the only built-in whose trust
// scope depends on its input: the gate keys on the extracted command root.
type ShellTool struct{}

func (t *ShellTool) Name() string { return "bash" }

func (t *ShellTool) Trust() trust.Descriptor {
	return trust.Descriptor{Name: "bash", Kind: trust.KindShell}
}

func (t *ShellTool) Description() string {
	return "Execute a shell command and return its combined stdout and stderr output. " +
		"stdin is disconnected (/dev/null) — interactive commands (input(), read, etc.) will fail. " +
		"Do NOT pipe input to simulate interactivity (e.g. echo '1' | python script.py)."
}

const (
	defaultShellTimeout = 120 * time.Second
	maxShellTimeout     = 600 * time.Second
)

func (t *ShellTool) Parameters() map[string]any {
	return map[string]any{
		"command": map[string]any{
			"type":        "string",
			"description": "The shell command to execute. stdin is /dev/null — do not use pipe to feed interactive input.",
		},
		"timeout": map[string]any{
			"type":        "integer",
			"description": "Timeout in seconds (default 120, max 600).",
		},
	}
}

func (t *ShellTool) Execute(ctx context.Context, params json.RawMessage) (ToolResult, error) {
	var p struct {
		Command string `json:"command"`
		Timeout int    `json:"timeout"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return ToolResult{}, fmt.Errorf("invalid params: %w", err)
	}
	if p.Command == "" {
		return ToolResult{}, fmt.Errorf("command is required")
	}

	timeout := defaultShellTimeout
	if p.Timeout > 0 {
		timeout = time.Duration(p.Timeout) * time.Second
	}
	if timeout > maxShellTimeout {
		timeout = maxShellTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, shellBin(), "-c", p.Command)
	// Explicitly close stdin so interactive commands fail fast with EOF.
	cmd.Stdin = nil
	// New process group so the entire tree can be killed.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var buf safeBuffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Start(); err != nil {
		return ToolResult{
			Content: fmt.Sprintf("Failed to start: %v", err),
			IsError: true,
		}, nil
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		result := buf.String()
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				secs := int(timeout.Seconds())
				return ToolResult{
					Content: fmt.Sprintf("Command timed out after %dm%ds.\nOutput:\n%s",
						secs/60, secs%60, result),
					IsError: true,
				}, nil
			}
			if ctx.Err() == context.Canceled {
				return ToolResult{}, fmt.Errorf("cancelled")
			}
			return ToolResult{
				Content: fmt.Sprintf("Exit error: %v\nOutput:\n%s", err, result),
				IsError: true,
			}, nil
		}
		return ToolResult{Content: result}, nil

	case <-ctx.Done():
		killProcessGroup(cmd)
		// Give the process a moment to exit after the kill.
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
		result := buf.String()
		if ctx.Err() == context.Canceled {
			return ToolResult{}, fmt.Errorf("cancelled")
		}
		secs := int(timeout.Seconds())
		return ToolResult{
			Content: fmt.Sprintf("Command timed out after %dm%ds.\nOutput:\n%s",
				secs/60, secs%60, result),
			IsError: true,
		}, nil
	}
}

// killProcessGroup sends SIGTERM to the process group, waits briefly, then
// sends SIGKILL if anything is still alive.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	// Negative PID signals the entire process group.
	_ = syscall.Kill(-pid, syscall.SIGTERM)
	time.Sleep(200 * time.Millisecond)
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

// safeBuffer is a bytes.Buffer safe for concurrent reads and writes.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ io.Writer = (*safeBuffer)(nil)

// shellBin returns the user's preferred shell, falling back to bash then sh.
func shellBin() string {
	if s := os.Getenv("SHELL"); s != "" {
		if _, err := os.Stat(s); err == nil {
			return s
		}
	}
	if p, err := exec.LookPath("bash"); err == nil {
		return p
	}
	return "sh"
}
