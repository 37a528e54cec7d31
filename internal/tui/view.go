package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/huskago/bashautom/internal/shell"
)

var (
	// Adaptive colors for light/dark terminal backgrounds
	accentColor = lipgloss.AdaptiveColor{Light: "#D6249F", Dark: "#FF79C6"}
	greenColor  = lipgloss.AdaptiveColor{Light: "#116620", Dark: "#50FA7B"}
	redColor    = lipgloss.AdaptiveColor{Light: "#B31D28", Dark: "#FF5555"}
	yellowColor = lipgloss.AdaptiveColor{Light: "#7D5A00", Dark: "#F1FA8C"}
	dimColor    = lipgloss.AdaptiveColor{Light: "#777777", Dark: "#6272A4"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			PaddingLeft(1)

	headerStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			PaddingLeft(1)

	promptStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	stderrStyle = lipgloss.NewStyle().
			Foreground(redColor)

	statusOKStyle = lipgloss.NewStyle().
			Foreground(greenColor)

	statusFailStyle = lipgloss.NewStyle().
			Foreground(redColor)

	statusTimeoutStyle = lipgloss.NewStyle().
				Foreground(yellowColor).
				Bold(true)

	runningStyle = lipgloss.NewStyle().
			Foreground(yellowColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			PaddingLeft(1)
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := fmt.Sprintf("bashautom · %s · pid %d", m.sess.Name, m.sess.PID())
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if m.workdir != "" {
		b.WriteString(headerStyle.Render(m.workdir))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, line := range m.visibleLines() {
		switch line.kind {
		case linePrompt:
			b.WriteString(promptStyle.Render(line.text))
		case lineErrOutput:
			b.WriteString(stderrStyle.Render(line.text))
		case lineStatus:
			b.WriteString(line.text)
		default:
			b.WriteString(line.text)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.running {
		b.WriteString(runningStyle.Render(" running… ctrl+c to interrupt"))
	} else {
		b.WriteString(" " + m.input.View())
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter run · ctrl+c interrupt · ctrl+l clear · ctrl+d quit"))

	return b.String()
}

// visibleLines returns the scrollback tail that fits the window,
// leaving room for the header and the prompt area.
func (m Model) visibleLines() []replLine {
	if m.height <= 0 {
		return m.lines
	}
	budget := m.height - 7
	if budget < 1 {
		budget = 1
	}
	if len(m.lines) <= budget {
		return m.lines
	}
	return m.lines[len(m.lines)-budget:]
}

func formatStatus(res *shell.CommandResult) string {
	elapsed := fmt.Sprintf("%.2fs", res.Duration.Seconds())
	switch {
	case res.TimedOut:
		return statusTimeoutStyle.Render(fmt.Sprintf("⏱ timed out after %s", elapsed))
	case res.Success():
		return statusOKStyle.Render(fmt.Sprintf("✓ exit 0 · %s", elapsed))
	default:
		return statusFailStyle.Render(fmt.Sprintf("✗ exit %d · %s", res.ExitCode, elapsed))
	}
}
