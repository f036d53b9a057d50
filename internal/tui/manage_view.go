package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/dbassist/internal/form"
	"github.com/leapstack-labs/dbassist/internal/schema"
)

const chooseTableText = "Choose a table to add data"

// manageView is the Manage tab: the schema listing and the record form.
// Focus 0 is the table selector; focus i>0 is the input of field i-1.
type manageView struct {
	ctx       context.Context
	catalog   *schema.Catalog
	form      *form.Controller
	submitter *form.Submitter
	loading   bool
	tableIdx  int // -1 is "no table"
	inputs    []textinput.Model
	fields    []form.Field
	focusIdx  int
}

func newManageView(ctx context.Context, catalog *schema.Catalog, f *form.Controller, submitter *form.Submitter) *manageView {
	return &manageView{
		ctx:       ctx,
		catalog:   catalog,
		form:      f,
		submitter: submitter,
		loading:   true,
		tableIdx:  -1,
	}
}

// loadSchema fetches the schema off the update loop.
func (v *manageView) loadSchema() tea.Cmd {
	v.loading = true
	ctx, catalog := v.ctx, v.catalog
	return func() tea.Msg {
		s, err := catalog.Load(ctx)
		return SchemaLoadedMsg{Schema: s, Err: err}
	}
}

func (v *manageView) focus() tea.Cmd {
	return v.setFocus(v.focusIdx)
}

func (v *manageView) blur() {
	for i := range v.inputs {
		v.inputs[i].Blur()
	}
}

func (v *manageView) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case SchemaLoadedMsg:
		v.loading = false
		if msg.Err == nil {
			return v.reconcileSelection()
		}
		return nil

	case SubmitResultMsg:
		if v.submitter.Resolve(msg.Submission, msg.Err) {
			v.syncInputs()
		}
		return nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+s":
			return v.submit()
		case "ctrl+r":
			return v.loadSchema()
		case "tab", "down":
			return v.setFocus(v.focusIdx + 1)
		case "shift+tab", "up":
			return v.setFocus(v.focusIdx - 1)
		case "enter":
			if v.focusIdx == len(v.inputs) {
				return v.submit()
			}
			return v.setFocus(v.focusIdx + 1)
		}
		if v.focusIdx == 0 {
			switch msg.String() {
			case "left", "h":
				v.selectTable(v.tableIdx - 1)
			case "right", "l", " ":
				v.selectTable(v.tableIdx + 1)
			}
			return nil
		}
	}

	if v.focusIdx == 0 || v.focusIdx > len(v.inputs) {
		return nil
	}
	i := v.focusIdx - 1
	var cmd tea.Cmd
	v.inputs[i], cmd = v.inputs[i].Update(msg)
	if err := v.form.SetField(v.fields[i].Column, v.inputs[i].Value()); err != nil {
		v.form.Slot().Error(err.Error())
	}
	return cmd
}

// selectTable moves the selector, wrapping through "no table".
func (v *manageView) selectTable(idx int) {
	tables := v.catalog.Tables()
	n := len(tables) + 1
	idx = ((idx+1)%n+n)%n - 1
	v.tableIdx = idx

	name := ""
	if idx >= 0 {
		name = tables[idx]
	}
	v.form.SelectTable(name)
	v.rebuildInputs()
}

// reconcileSelection keeps the selected table after a reload when it still
// exists, re-pointing the selector at its new position. A dropped table
// deselects; changed columns rebuild the form.
func (v *manageView) reconcileSelection() tea.Cmd {
	name := v.form.Table()
	if name == "" {
		v.tableIdx = -1
		return nil
	}
	idx := slices.Index(v.catalog.Tables(), name)
	if idx < 0 {
		v.selectTable(-1)
		return v.setFocus(0)
	}
	v.tableIdx = idx
	cols, err := v.catalog.ColumnsOf(name)
	if err == nil && slices.Equal(cols, v.form.Columns()) {
		return nil
	}
	v.form.SelectTable(name)
	v.rebuildInputs()
	return v.setFocus(v.focusIdx)
}

func (v *manageView) rebuildInputs() {
	v.fields = v.form.Fields()
	v.inputs = make([]textinput.Model, len(v.fields))
	for i, f := range v.fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = "Enter " + f.Column
		ti.SetValue(f.Value.String())
		v.inputs[i] = ti
	}
}

// syncInputs copies form values back into the inputs after the form
// changed underneath them.
func (v *manageView) syncInputs() {
	for i, f := range v.fields {
		v.inputs[i].SetValue(v.form.Value(f.Column).String())
	}
}

func (v *manageView) setFocus(idx int) tea.Cmd {
	if idx < 0 {
		idx = 0
	}
	if idx > len(v.inputs) {
		idx = len(v.inputs)
	}
	v.focusIdx = idx
	var cmd tea.Cmd
	for i := range v.inputs {
		if i == idx-1 {
			cmd = v.inputs[i].Focus()
			continue
		}
		v.inputs[i].Blur()
	}
	return cmd
}

func (v *manageView) submit() tea.Cmd {
	sub, err := v.submitter.Begin()
	if err != nil {
		return nil
	}
	ctx, submitter := v.ctx, v.submitter
	return func() tea.Msg {
		return SubmitResultMsg{Submission: sub, Err: submitter.Send(ctx, sub)}
	}
}

func (v *manageView) help() string {
	if v.form.Table() == "" {
		return "←/→ choose table • ctrl+r reload schema"
	}
	return "←/→ choose table • tab/shift+tab move • ctrl+s add record • ctrl+r reload schema"
}

func (v *manageView) view(s styles, spin string) string {
	var b strings.Builder

	b.WriteString(s.Title.Render("Database Schema") + "\n")
	current := v.catalog.Current()
	switch {
	case v.loading && current == nil:
		b.WriteString(spin + " " + s.Muted.Render("Loading schema...") + "\n")
	case current != nil:
		for _, t := range current.All() {
			tags := make([]string, len(t.Columns))
			for i, c := range t.Columns {
				tags[i] = s.Tag.Render(c)
			}
			b.WriteString(s.Label.Render(t.Name) + "  " + lipgloss.JoinHorizontal(lipgloss.Top, tags...) + "\n")
		}
	}

	b.WriteString("\n" + s.Title.Render("Add New Record") + "\n")
	selected := chooseTableText
	if v.tableIdx >= 0 {
		selected = v.form.Table()
	}
	selector := "Select Table  ‹ " + selected + " ›"
	if v.focusIdx == 0 {
		selector = s.Focused.Render(selector)
	}
	b.WriteString(selector + "\n")

	for i, f := range v.fields {
		label := fmt.Sprintf("%s (%s)", f.Column, f.Kind)
		if v.focusIdx == i+1 {
			label = s.Focused.Render(label)
		} else {
			label = s.Label.Render(label)
		}
		b.WriteString(label + "\n  " + v.inputs[i].View() + "\n")
	}

	if table := v.form.Table(); table != "" {
		button := s.Button.Render(fmt.Sprintf("Add Record to %q", table))
		if v.submitter.InFlight() {
			button = s.ButtonOff.Render(spin + " Adding...")
		}
		b.WriteString("\n" + button + "\n")
	}

	if n := s.notification(v.form.Slot()); n != "" {
		b.WriteString("\n" + n + "\n")
	}
	return b.String()
}
