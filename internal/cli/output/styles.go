package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by CLI output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style

	TableName lipgloss.Style
	Kind      lipgloss.Style
	SQL       lipgloss.Style
}

// Palette
var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#1E8A4C", Dark: "#3FD17E"}
	colorError   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF6B6B"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#B26A00", Dark: "#FFB454"}
	colorInfo    = lipgloss.AdaptiveColor{Light: "#0277BD", Dark: "#5EC4FF"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#8A8A8A"}
)

// NewStyles builds styles for a lipgloss renderer.
func NewStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: r.NewStyle().Bold(true).Foreground(colorPrimary).Underline(true),
		Header2: r.NewStyle().Bold(true).Foreground(colorPrimary),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(colorMuted),

		Success: r.NewStyle().Foreground(colorSuccess),
		Error:   r.NewStyle().Foreground(colorError),
		Warning: r.NewStyle().Foreground(colorWarning),
		Info:    r.NewStyle().Foreground(colorInfo),

		StatusSuccess: r.NewStyle().Foreground(colorSuccess).SetString("✓"),
		StatusFailed:  r.NewStyle().Foreground(colorError).SetString("✗"),

		TableName: r.NewStyle().Bold(true).Foreground(colorInfo),
		Kind:      r.NewStyle().Italic(true).Foreground(colorMuted),
		SQL:       r.NewStyle().Foreground(colorWarning),
	}
}
