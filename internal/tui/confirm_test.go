package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/warden-ai/warden/internal/trust"
)

func TestConfirmOptions_Shell(t *testing.T) {
	req := &trust.Request{
		Kind:    trust.KindShell,
		Title:   "Run bash command",
		Command: "git push origin main",
		Root:    "git",
	}
	opts := confirmOptions(req)

	if len(opts) != 3 {
		t.Fatalf("got %d options, want 3", len(opts))
	}
	if opts[0].outcome != trust.ProceedOnce {
		t.Errorf("first option outcome = %v, want ProceedOnce", opts[0].outcome)
	}
	if opts[1].outcome != trust.ProceedAlways {
		t.Errorf("second option outcome = %v, want ProceedAlways", opts[1].outcome)
	}
	if !strings.Contains(opts[1].label, "'git'") {
		t.Errorf("always-allow label should name the command root, got %q", opts[1].label)
	}
	if opts[len(opts)-1].outcome != trust.Cancel {
		t.Error("last option must be cancel")
	}
}

func TestConfirmOptions_Bridged(t *testing.T) {
	req := &trust.Request{
		Kind:   trust.KindBridged,
		Title:  "Call get_issue on server github",
		Server: "github",
		Tool:   "get_issue",
	}
	opts := confirmOptions(req)

	if len(opts) != 4 {
		t.Fatalf("got %d options, want 4", len(opts))
	}
	if opts[1].outcome != trust.ProceedAlways || !strings.Contains(opts[1].label, "github.get_issue") {
		t.Errorf("tool-level grant option wrong: %+v", opts[1])
	}
	if opts[2].outcome != trust.ProceedAlwaysServer || !strings.Contains(opts[2].label, "server github") {
		t.Errorf("server-level grant option wrong: %+v", opts[2])
	}
	if opts[3].outcome != trust.Cancel {
		t.Error("last option must be cancel")
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestConfirmModel_EnterSelectsCursor(t *testing.T) {
	m := newConfirmModel(&trust.Request{Kind: trust.KindShell, Root: "git"})

	next, _ := m.Update(keyMsg("down"))
	next, _ = next.(confirmModel).Update(keyMsg("enter"))
	final := next.(confirmModel)

	if !final.done {
		t.Fatal("model should be done after enter")
	}
	if final.choice != trust.ProceedAlways {
		t.Errorf("choice = %v, want ProceedAlways", final.choice)
	}
}

func TestConfirmModel_EscCancels(t *testing.T) {
	m := newConfirmModel(&trust.Request{Kind: trust.KindShell, Root: "rm"})

	next, _ := m.Update(keyMsg("esc"))
	final := next.(confirmModel)

	if !final.done || final.choice != trust.Cancel {
		t.Errorf("esc should cancel, got done=%v choice=%v", final.done, final.choice)
	}
}

func TestConfirmModel_DigitShortcut(t *testing.T) {
	m := newConfirmModel(&trust.Request{
		Kind: trust.KindBridged, Server: "github", Tool: "get_issue",
	})

	next, _ := m.Update(keyMsg("3"))
	final := next.(confirmModel)

	if !final.done || final.choice != trust.ProceedAlwaysServer {
		t.Errorf("digit 3 should pick server grant, got done=%v choice=%v", final.done, final.choice)
	}
}

func TestConfirmModel_DigitOutOfRange(t *testing.T) {
	m := newConfirmModel(&trust.Request{Kind: trust.KindShell, Root: "ls"})

	next, _ := m.Update(keyMsg("9"))
	final := next.(confirmModel)

	if final.done {
		t.Error("out-of-range digit should not resolve the menu")
	}
}

func TestConfirmModel_CursorBounds(t *testing.T) {
	m := newConfirmModel(&trust.Request{Kind: trust.KindShell, Root: "ls"})

	next, _ := m.Update(keyMsg("up"))
	if next.(confirmModel).cursor != 0 {
		t.Error("cursor should not move above first option")
	}

	cur := next.(confirmModel)
	for i := 0; i < 10; i++ {
		n, _ := cur.Update(keyMsg("down"))
		cur = n.(confirmModel)
	}
	if cur.cursor != len(cur.options)-1 {
		t.Errorf("cursor = %d, want %d", cur.cursor, len(cur.options)-1)
	}
}

func TestConfirmModel_ViewShowsCommand(t *testing.T) {
	m := newConfirmModel(&trust.Request{
		Kind:    trust.KindShell,
		Title:   "Run bash command",
		Command: "git status",
		Root:    "git",
	})
	view := m.View()
	if !strings.Contains(view, "git status") {
		t.Error("view should include the command text")
	}
	if !strings.Contains(view, "Run bash command") {
		t.Error("view should include the title")
	}
}
