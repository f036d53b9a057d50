package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/leapstack-labs/dbassist/internal/grid"
	"github.com/leapstack-labs/dbassist/internal/query"
)

const questionPlaceholder = "Ask a question (e.g., 'Who bought a laptop?')"

// queryView is the Query tab: one question box and the latest answer.
type queryView struct {
	ctx   context.Context
	coord *query.Coordinator
	input textinput.Model
}

func newQueryView(ctx context.Context, coord *query.Coordinator) *queryView {
	ti := textinput.New()
	ti.Placeholder = questionPlaceholder
	ti.Prompt = "> "
	ti.CharLimit = 500
	ti.Focus()
	return &queryView{ctx: ctx, coord: coord, input: ti}
}

func (v *queryView) focus() tea.Cmd { return v.input.Focus() }
func (v *queryView) blur()          { v.input.Blur() }

func (v *queryView) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case AnswerMsg:
		v.coord.Resolve(msg.Ticket, msg.Response, msg.Err)
		return nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return v.ask()
		case "ctrl+s":
			v.coord.ToggleSQL()
			return nil
		}
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return cmd
}

// ask starts a question unless one is already running.
func (v *queryView) ask() tea.Cmd {
	ticket, err := v.coord.Begin(v.input.Value())
	if err != nil {
		return nil
	}
	ctx, coord := v.ctx, v.coord
	return func() tea.Msg {
		resp, err := coord.Send(ctx, ticket)
		return AnswerMsg{Ticket: ticket, Response: resp, Err: err}
	}
}

func (v *queryView) help() string {
	if v.coord.State() == query.Answered {
		return "enter ask • ctrl+s show/hide SQL"
	}
	return "enter ask"
}

func (v *queryView) view(s styles, spin string, width int) string {
	var b strings.Builder

	button := s.Button.Render("Ask AI")
	if v.coord.InFlight() {
		button = s.ButtonOff.Render("Analyzing...")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, v.input.View(), "  ", button))
	b.WriteString("\n")

	if text := v.coord.Err(); text != "" {
		b.WriteString("\n" + s.Error.Render(text) + "\n")
	}
	if v.coord.InFlight() {
		b.WriteString("\n" + spin + " " + s.Muted.Render("Analyzing...") + "\n")
	}
	if v.coord.State() != query.Answered {
		return b.String()
	}

	label := "Show Generated SQL"
	if v.coord.SQLVisible() {
		label = "Hide Generated SQL"
	}
	b.WriteString("\n" + s.Muted.Render("ctrl+s ") + s.Label.Render(label) + "\n\n")

	result := s.Title.Render("Result") + "\n" + renderGrid(s, v.coord.Grid())
	boxes := []string{s.Box.Render(result)}
	if v.coord.SQLVisible() {
		sql := s.Title.Render("Generated SQL Query") + "\n" + s.Code.Render(v.coord.SQL())
		box := s.Box
		if width > 0 {
			box = box.MaxWidth(width / 2)
		}
		boxes = append(boxes, box.Render(sql))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	return b.String()
}

// renderGrid draws a grid with lipgloss/table, or the no-results text.
func renderGrid(s styles, g grid.Grid) string {
	if g.Empty() {
		return s.Muted.Render(grid.NoResultsText)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			return s.Cell
		}).
		Headers(g.Headers...).
		Rows(g.Rows...)
	return t.Render()
}
