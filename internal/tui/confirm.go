package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/warden-ai/warden/internal/trust"
)

// ---------- styles ----------

var (
	// Rounded border, blue-purple (matches Claude Code's permission dialog).
	confirmBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("63")).
				Padding(0, 1)

	confirmTitleStyle = lipgloss.NewStyle().
				Bold(true)

	confirmDetailStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	confirmSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("63")).
				Bold(true)

	confirmOptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	confirmHintStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Italic(true)
)

// confirmOption is one selectable entry in the confirmation menu.
type confirmOption struct {
	label   string
	outcome trust.Outcome
}

// confirmOptions builds the menu entries for a pending request.
// Shell requests offer a per-root grant; bridged requests offer both a
// tool-level and a server-level grant. Cancel is always last so esc and
// an out-of-range pick both land on the safe choice.
func confirmOptions(req *trust.Request) []confirmOption {
	if req.Kind == trust.KindBridged {
		return []confirmOption{
			{"Yes, once", trust.ProceedOnce},
			{fmt.Sprintf("Yes, always allow %s.%s this session", req.Server, req.Tool), trust.ProceedAlways},
			{fmt.Sprintf("Yes, always allow server %s this session", req.Server), trust.ProceedAlwaysServer},
			{"No, cancel", trust.Cancel},
		}
	}
	return []confirmOption{
		{"Yes, once", trust.ProceedOnce},
		{fmt.Sprintf("Yes, always allow '%s' commands this session", req.Root), trust.ProceedAlways},
		{"No, cancel", trust.Cancel},
	}
}

// menuConfirm runs the interactive arrow-key confirmation menu.
// Cancelling the context kills the program; the caller treats the error
// as "no decision" and abandons the request.
func menuConfirm(ctx context.Context, req *trust.Request) (trust.Outcome, error) {
	prog := tea.NewProgram(newConfirmModel(req), tea.WithContext(ctx))
	out, err := prog.Run()
	if err != nil {
		return trust.Cancel, err
	}
	m, ok := out.(confirmModel)
	if !ok || !m.done {
		return trust.Cancel, fmt.Errorf("confirmation menu exited without a decision")
	}
	return m.choice, nil
}

// ---------- bubbletea model ----------

type confirmModel struct {
	req     *trust.Request
	options []confirmOption
	cursor  int
	choice  trust.Outcome
	done    bool
}

func newConfirmModel(req *trust.Request) confirmModel {
	return confirmModel{req: req, options: confirmOptions(req)}
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		m.choice = m.options[m.cursor].outcome
		m.done = true
		return m, tea.Quit
	case "esc", "ctrl+c", "n", "q":
		m.choice = trust.Cancel
		m.done = true
		return m, tea.Quit
	case "y":
		m.choice = trust.ProceedOnce
		m.done = true
		return m, tea.Quit
	default:
		// Digit shortcuts: 1-9 pick and confirm in one keystroke.
		s := key.String()
		if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			idx := int(s[0] - '1')
			if idx < len(m.options) {
				m.cursor = idx
				m.choice = m.options[idx].outcome
				m.done = true
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}

	var lines []string
	lines = append(lines, confirmTitleStyle.Render(m.req.Title))

	if m.req.Command != "" {
		lines = append(lines, confirmDetailStyle.Render("$ "+truncate(m.req.Command, 200)))
	}
	lines = append(lines, "")

	for i, opt := range m.options {
		if i == m.cursor {
			lines = append(lines, confirmSelectedStyle.Render(fmt.Sprintf("❯ %d. %s", i+1, opt.label)))
		} else {
			lines = append(lines, confirmOptionStyle.Render(fmt.Sprintf("  %d. %s", i+1, opt.label)))
		}
	}

	lines = append(lines, "")
	lines = append(lines, confirmHintStyle.Render("↑↓ select  enter confirm  esc cancel"))

	return confirmBorderStyle.Render(strings.Join(lines, "\n")) + "\n"
}
