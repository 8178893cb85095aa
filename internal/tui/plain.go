package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/warden-ai/warden/internal/trust"
)

// PlainIO implements IO using plain terminal output (fmt.Print / bufio.Scanner).
// When stdin is a real terminal, Confirm presents the interactive menu;
// otherwise it falls back to a numbered prompt.
type PlainIO struct {
	scanner *bufio.Scanner
	tokens  int
	mu      sync.Mutex // protects concurrent output during parallel tool execution
}

// NewPlainIO creates a PlainIO that reads from stdin.
func NewPlainIO() *PlainIO {
	s := bufio.NewScanner(os.Stdin)
	s.Buffer(make([]byte, 1024*1024), 1024*1024)
	return &PlainIO{scanner: s}
}

func (p *PlainIO) ReadInput() (string, error) {
	fmt.Print("\n> ")
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

func (p *PlainIO) ThinkingStart() {
	fmt.Println() // blank line before AI output begins
}

func (p *PlainIO) TextDelta(delta string) {
	fmt.Print(delta)
}

func (p *PlainIO) TextDone(_ string) {
	// Plain terminal: text is already rendered incrementally.
}

func (p *PlainIO) ToolStart(_, name, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Printf("\n%s\n  Executing %s...\n", strings.Repeat("-", 30), name)
}

func (p *PlainIO) ToolDone(_, _, result string, isErr bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if isErr {
		fmt.Printf("    Error: %s\n", truncate(result, 80))
	} else {
		preview := truncate(strings.ReplaceAll(result, "\n", " "), 60)
		fmt.Printf("    Result: %s\n", preview)
	}
}

// Confirm presents the pending request and blocks for a decision.
// Interactive terminals get the arrow-key menu; pipes get a numbered prompt.
func (p *PlainIO) Confirm(ctx context.Context, req *trust.Request) (trust.Outcome, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return menuConfirm(ctx, req)
	}
	return p.scanConfirm(req)
}

// scanConfirm is the non-raw-mode fallback: numbered options, one line of input.
// Anything that doesn't name an option counts as cancel.
func (p *PlainIO) scanConfirm(req *trust.Request) (trust.Outcome, error) {
	opts := confirmOptions(req)

	fmt.Printf("\n--- %s ---\n", req.Title)
	if req.Command != "" {
		fmt.Printf("  $ %s\n", truncate(req.Command, 200))
	}
	for i, opt := range opts {
		fmt.Printf("  %d. %s\n", i+1, opt.label)
	}
	fmt.Print("Enter number: ")

	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return trust.Cancel, err
		}
		return trust.Cancel, io.EOF
	}
	answer := strings.TrimSpace(p.scanner.Text())
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(opts) {
		return trust.Cancel, nil
	}
	return opts[n-1].outcome, nil
}

func (p *PlainIO) SystemMessage(text string) {
	fmt.Println(text)
}

func (p *PlainIO) Error(msg string) {
	fmt.Fprintf(os.Stderr, "error: %s\n", msg)
}

func (p *PlainIO) SetTokens(n int) {
	p.tokens = n
}

// truncate shortens s to maxLen characters, appending "..." if cut.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
