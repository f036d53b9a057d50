// Package tui is the full-screen terminal UI: a Query tab for asking
// questions and a Manage tab for browsing the schema and adding records.
//
// Network calls run as tea.Cmd goroutines and report back through the
// messages in messages.go; all state changes happen in Update.
package tui

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/leapstack-labs/dbassist/internal/form"
	"github.com/leapstack-labs/dbassist/internal/notify"
	"github.com/leapstack-labs/dbassist/internal/query"
	"github.com/leapstack-labs/dbassist/internal/schema"
)

// Client is the service the UI talks to; *api.Client implements it.
type Client interface {
	schema.Fetcher
	form.Inserter
	query.Asker
}

type tab int

const (
	tabQuery tab = iota
	tabManage
)

var tabNames = []string{"Query", "Manage"}

// App is the root bubbletea model.
type App struct {
	title   string
	styles  styles
	spinner spinner.Model
	active  tab
	query   *queryView
	manage  *manageView
	width   int
	height  int
}

// New builds the UI. The context bounds every request the UI makes.
func New(ctx context.Context, client Client, title string, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	formSlot := notify.New()
	catalog := schema.NewCatalog(client, formSlot, logger)
	f := form.NewController(catalog, formSlot)
	submitter := form.NewSubmitter(f, client, logger)
	coord := query.NewCoordinator(client, notify.New(), logger)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &App{
		title:   title,
		styles:  defaultStyles(),
		spinner: sp,
		query:   newQueryView(ctx, coord),
		manage:  newManageView(ctx, catalog, f, submitter),
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.manage.loadSchema(), a.spinner.Tick)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.query.input.Width = max(20, msg.Width/2)
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case AnswerMsg:
		return a, a.query.update(msg)

	case SchemaLoadedMsg, SubmitResultMsg:
		return a, a.manage.update(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return a, tea.Quit
		case "f1":
			return a, a.switchTo(tabQuery)
		case "f2":
			return a, a.switchTo(tabManage)
		}
	}

	if a.active == tabManage {
		return a, a.manage.update(msg)
	}
	return a, a.query.update(msg)
}

func (a *App) switchTo(t tab) tea.Cmd {
	if t == a.active {
		return nil
	}
	a.active = t
	if t == tabManage {
		a.query.blur()
		return a.manage.focus()
	}
	a.manage.blur()
	return a.query.focus()
}

// View implements tea.Model.
func (a *App) View() string {
	s := a.styles
	var b strings.Builder

	b.WriteString(s.Label.Render(a.title) + "  ")
	for i, name := range tabNames {
		key := "F" + string(rune('1'+i)) + " "
		if tab(i) == a.active {
			b.WriteString(s.TabActive.Render(key + name))
		} else {
			b.WriteString(s.TabInactive.Render(key + name))
		}
	}
	b.WriteString("\n\n")

	spin := a.spinner.View()
	help := ""
	if a.active == tabManage {
		b.WriteString(a.manage.view(s, spin))
		help = a.manage.help()
	} else {
		b.WriteString(a.query.view(s, spin, a.width))
		help = a.query.help()
	}

	b.WriteString("\n\n" + s.Muted.Render(help+" • F1/F2 switch tab • esc quit"))
	return s.App.Render(b.String())
}

// Run starts the UI on the terminal and blocks until it exits.
func Run(ctx context.Context, app *App, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(app, opts...).Run()
	return err
}
