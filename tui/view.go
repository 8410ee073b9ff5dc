package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))

	activeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// View renders the dashboard
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("datalab"))
	b.WriteString("\n\n")

	if m.fetchErr != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("cannot reach server at %s: %v", m.apiURL, m.fetchErr)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("r refresh · q quit"))
		return b.String()
	}

	s := m.snapshot
	rows := []string{
		row("Active executions", activeStyle.Render(fmt.Sprintf("%d", s.ActiveTasks))),
		row("Datasets loaded", valueStyle.Render(fmt.Sprintf("%d", s.Datasets))),
		row("Stored results", valueStyle.Render(fmt.Sprintf("%d", s.Results))),
		row("Open streams", valueStyle.Render(fmt.Sprintf("%d", s.OpenStreams))),
		row("Completed streams", valueStyle.Render(fmt.Sprintf("%d", s.CompletedStreams))),
		row("Cached events", valueStyle.Render(fmt.Sprintf("%d", s.CachedEvents))),
	}
	b.WriteString(boxStyle.Render(strings.Join(rows, "\n")))
	b.WriteString("\n\n")

	if !m.lastRefresh.IsZero() {
		b.WriteString(labelStyle.Render("updated " + m.lastRefresh.Format("15:04:05")))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("r refresh · q quit"))
	return b.String()
}

func row(label, value string) string {
	return fmt.Sprintf("%s %s", labelStyle.Width(20).Render(label), value)
}
