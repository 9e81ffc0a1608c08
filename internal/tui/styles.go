package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/todochimp/chimp/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F7B801")).
			MarginBottom(1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")).
			MarginTop(1)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	selectedRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))

	fieldErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	pageCurrentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801"))
	pageGapStyle     = dimStyle
)

// One style token per status/priority value, looked up table-driven so every
// screen colors them the same way.
var statusStyles = map[model.Status]lipgloss.Style{
	model.StatusPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")),
	model.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
	model.StatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
	model.StatusCancelled:  lipgloss.NewStyle().Foreground(lipgloss.Color("#999999")),
	model.StatusOverdue:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
}

var priorityStyles = map[model.Priority]lipgloss.Style{
	model.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
	model.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")),
	model.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
}

var noticeStyles = map[noticeKind]lipgloss.Style{
	noticeInfo:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50")),
	noticeError: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
	noticeLimit: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801")),
}

func statusLabel(s model.Status) string {
	style, ok := statusStyles[s]
	if !ok {
		return s.FriendlyName()
	}
	return style.Render(s.FriendlyName())
}

func priorityLabel(p model.Priority) string {
	style, ok := priorityStyles[p]
	if !ok {
		return p.FriendlyName()
	}
	return style.Render(p.FriendlyName())
}
