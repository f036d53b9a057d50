package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/dbassist/internal/notify"
)

var (
	colorAccent  = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#1E8A4C", Dark: "#3FD17E"}
	colorError   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF6B6B"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#8A8A8A"}
	colorBorder  = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#444444"}
)

type styles struct {
	App         lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	Title       lipgloss.Style
	Label       lipgloss.Style
	Focused     lipgloss.Style
	Muted       lipgloss.Style
	Button      lipgloss.Style
	ButtonOff   lipgloss.Style
	Box         lipgloss.Style
	Code        lipgloss.Style
	Tag         lipgloss.Style
	Header      lipgloss.Style
	Cell        lipgloss.Style
	Success     lipgloss.Style
	Error       lipgloss.Style
	Info        lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		App:         lipgloss.NewStyle().Padding(1, 2),
		TabActive:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Underline(true).Padding(0, 1),
		TabInactive: lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1),
		Title:       lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1),
		Label:       lipgloss.NewStyle().Bold(true),
		Focused:     lipgloss.NewStyle().Foreground(colorAccent),
		Muted:       lipgloss.NewStyle().Foreground(colorMuted),
		Button:      lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(0, 1),
		ButtonOff:   lipgloss.NewStyle().Foreground(colorMuted).Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1),
		Box:         lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1),
		Code:        lipgloss.NewStyle().Foreground(colorSuccess),
		Tag:         lipgloss.NewStyle().Foreground(colorMuted).Border(lipgloss.NormalBorder(), false, true).BorderForeground(colorBorder).Padding(0, 1),
		Header:      lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1),
		Cell:        lipgloss.NewStyle().Padding(0, 1),
		Success:     lipgloss.NewStyle().Foreground(colorSuccess),
		Error:       lipgloss.NewStyle().Foreground(colorError),
		Info:        lipgloss.NewStyle().Foreground(colorAccent),
	}
}

// notification renders the slot's current notification, or "".
func (s styles) notification(slot *notify.Slot) string {
	n, ok := slot.Current()
	if !ok {
		return ""
	}
	switch n.Kind {
	case notify.Success:
		return s.Success.Render(n.Text)
	case notify.Error:
		return s.Error.Render(n.Text)
	default:
		return s.Info.Render(n.Text)
	}
}
