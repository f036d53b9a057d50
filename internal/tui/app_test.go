package tui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/leapstack-labs/dbassist/internal/api"
	"github.com/leapstack-labs/dbassist/internal/form"
	"github.com/leapstack-labs/dbassist/internal/query"
	"github.com/leapstack-labs/dbassist/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	mu        sync.Mutex
	tables    []api.TableColumns
	schemaErr error
	answer    *api.QueryResponse
	askErr    error
	addErr    error
	inserts   []api.AddRecordRequest
}

func (s *stubClient) Schema(context.Context) ([]api.TableColumns, error) {
	return s.tables, s.schemaErr
}

func (s *stubClient) AddRecord(_ context.Context, req api.AddRecordRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts = append(s.inserts, req)
	return s.addErr
}

func (s *stubClient) Ask(context.Context, string) (*api.QueryResponse, error) {
	return s.answer, s.askErr
}

func newStub() *stubClient {
	return &stubClient{
		tables: []api.TableColumns{
			{Name: "orders", Columns: []string{"customer_id", "quantity", "note"}},
			{Name: "customers", Columns: []string{"customer_name", "email"}},
		},
		answer: &api.QueryResponse{
			SQLQuery: "SELECT customer_name, item FROM purchases",
			Result:   json.RawMessage(`[{"customer_name":"Ann","item":"laptop"}]`),
		},
	}
}

func newTestApp(t *testing.T, client Client) *App {
	t.Helper()
	return New(context.Background(), client, "dbassist", testutil.NewTestLogger(t))
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "f2":
		return tea.KeyMsg{Type: tea.KeyF2}
	case "f1":
		return tea.KeyMsg{Type: tea.KeyF1}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send feeds msg to the app and returns the follow-up command.
func send(a *App, msg tea.Msg) tea.Cmd {
	_, cmd := a.Update(msg)
	return cmd
}

func loadSchema(t *testing.T, a *App) {
	t.Helper()
	msg := a.manage.loadSchema()()
	require.IsType(t, SchemaLoadedMsg{}, msg)
	send(a, msg)
}

func TestApp_AskShowsResultsAndToggleSQL(t *testing.T) {
	a := newTestApp(t, newStub())

	send(a, key("who bought a laptop?"))
	cmd := send(a, key("enter"))
	require.NotNil(t, cmd)
	assert.True(t, a.query.coord.InFlight())
	assert.Contains(t, a.View(), "Analyzing...")

	msg := cmd()
	require.IsType(t, AnswerMsg{}, msg)
	assert.Equal(t, "who bought a laptop?", msg.(AnswerMsg).Ticket.Question)
	send(a, msg)

	view := a.View()
	assert.Contains(t, view, "customer name")
	assert.Contains(t, view, "laptop")
	assert.Contains(t, view, "Show Generated SQL")
	assert.NotContains(t, view, "SELECT customer_name")

	send(a, key("ctrl+s"))
	view = a.View()
	assert.Contains(t, view, "Hide Generated SQL")
	assert.Contains(t, view, "Generated SQL Query")
	assert.Contains(t, view, "SELECT customer_name")

	send(a, key("ctrl+s"))
	assert.NotContains(t, a.View(), "Generated SQL Query")
}

func TestApp_AskOnlyOneInFlight(t *testing.T) {
	a := newTestApp(t, newStub())

	first := send(a, key("enter"))
	require.NotNil(t, first)
	assert.Nil(t, send(a, key("enter")), "second ask while in flight is ignored")

	send(a, first())
	assert.Equal(t, query.Answered, a.query.coord.State())
}

func TestApp_AskFailureShowsDetail(t *testing.T) {
	stub := newStub()
	stub.askErr = &api.Error{Kind: api.ErrQuery, StatusCode: http.StatusBadRequest, Detail: "could not understand the question"}
	a := newTestApp(t, stub)

	send(a, key("gibberish"))
	send(a, send(a, key("enter"))())

	view := a.View()
	assert.Contains(t, view, "could not understand the question")
	assert.NotContains(t, view, "Show Generated SQL")
}

func TestApp_AskEmptyResult(t *testing.T) {
	stub := newStub()
	stub.answer = &api.QueryResponse{SQLQuery: "SELECT 1 WHERE false", Result: json.RawMessage(`[]`)}
	a := newTestApp(t, stub)

	send(a, send(a, key("enter"))())
	assert.Contains(t, a.View(), "No results found.")
}

func TestApp_ManageListsSchema(t *testing.T) {
	a := newTestApp(t, newStub())
	send(a, key("f2"))
	assert.Contains(t, a.View(), "Loading schema...")

	loadSchema(t, a)

	view := a.View()
	assert.Contains(t, view, "orders")
	assert.Contains(t, view, "customer_name")
	assert.Contains(t, view, chooseTableText)
	assert.NotContains(t, view, "Add Record to")
}

func TestApp_ManageSchemaError(t *testing.T) {
	stub := newStub()
	stub.schemaErr = errors.New("connection refused")
	a := newTestApp(t, stub)
	send(a, key("f2"))

	loadSchema(t, a)
	assert.Contains(t, a.View(), "Error fetching schema")
}

func TestApp_ManageAddRecord(t *testing.T) {
	stub := newStub()
	a := newTestApp(t, stub)
	send(a, key("f2"))
	loadSchema(t, a)

	send(a, key("right"))
	require.Equal(t, "orders", a.manage.form.Table())
	assert.Len(t, a.manage.inputs, 3)
	assert.Contains(t, a.View(), `Add Record to "orders"`)

	send(a, key("tab"))
	send(a, key("7"))
	send(a, key("tab"))
	send(a, key("2"))

	cmd := send(a, key("ctrl+s"))
	require.NotNil(t, cmd)
	assert.Contains(t, a.View(), "Adding...")
	send(a, cmd())

	require.Len(t, stub.inserts, 1)
	assert.Equal(t, "orders", stub.inserts[0].Table)
	data, err := json.Marshal(stub.inserts[0].Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"customer_id":7,"quantity":2}`, string(data))

	assert.Contains(t, a.View(), form.SuccessText)
	for _, in := range a.manage.inputs {
		assert.Empty(t, in.Value(), "inputs are cleared after success")
	}
}

func TestApp_ManageAddRecordFailureKeepsValues(t *testing.T) {
	stub := newStub()
	stub.addErr = &api.Error{Kind: api.ErrSubmission, StatusCode: http.StatusBadRequest, Detail: "customer 9 does not exist"}
	a := newTestApp(t, stub)
	send(a, key("f2"))
	loadSchema(t, a)

	send(a, key("right"))
	send(a, key("tab"))
	send(a, key("9"))
	send(a, send(a, key("ctrl+s"))())

	assert.Contains(t, a.View(), "customer 9 does not exist")
	assert.Equal(t, "9", a.manage.inputs[0].Value())
	assert.Equal(t, form.SubmitFailed, a.manage.submitter.State())
}

func TestApp_ManageSwitchTableClearsForm(t *testing.T) {
	a := newTestApp(t, newStub())
	send(a, key("f2"))
	loadSchema(t, a)

	send(a, key("right"))
	send(a, key("tab"))
	send(a, key("7"))
	require.False(t, a.manage.form.Payload()["customer_id"].IsEmpty())

	send(a, key("shift+tab"))
	require.Equal(t, 0, a.manage.focusIdx)
	send(a, key("right"))

	assert.Equal(t, "customers", a.manage.form.Table())
	assert.Empty(t, a.manage.form.Payload())
	assert.Len(t, a.manage.inputs, 2)

	send(a, key("right"))
	assert.Empty(t, a.manage.form.Table(), "selector wraps back to no table")
	assert.Empty(t, a.manage.inputs)
}

func TestApp_ManageReloadDropsRemovedTable(t *testing.T) {
	stub := newStub()
	a := newTestApp(t, stub)
	send(a, key("f2"))
	loadSchema(t, a)

	send(a, key("right"))
	require.Equal(t, "orders", a.manage.form.Table())

	stub.tables = []api.TableColumns{
		{Name: "products", Columns: []string{"product_name", "price"}},
		{Name: "customers", Columns: []string{"customer_name", "email"}},
	}
	loadSchema(t, a)

	assert.Empty(t, a.manage.form.Table())
	assert.Equal(t, -1, a.manage.tableIdx)
	assert.Empty(t, a.manage.inputs)
	assert.False(t, a.manage.submitter.CanSubmit())
	assert.Contains(t, a.View(), chooseTableText)

	send(a, key("right"))
	assert.Equal(t, "products", a.manage.form.Table(), "no table is skipped after reload")
}

func TestApp_ManageReloadFollowsMovedTable(t *testing.T) {
	stub := newStub()
	a := newTestApp(t, stub)
	send(a, key("f2"))
	loadSchema(t, a)

	send(a, key("right"))
	send(a, key("tab"))
	send(a, key("7"))
	send(a, key("shift+tab"))

	stub.tables = []api.TableColumns{
		{Name: "customers", Columns: []string{"customer_name", "email"}},
		{Name: "orders", Columns: []string{"customer_id", "quantity", "note"}},
	}
	loadSchema(t, a)

	assert.Equal(t, "orders", a.manage.form.Table())
	assert.Equal(t, 1, a.manage.tableIdx)
	assert.Equal(t, "7", a.manage.inputs[0].Value(), "unchanged columns keep their values")

	stub.tables[1].Columns = []string{"customer_id", "total_amount"}
	loadSchema(t, a)

	assert.Equal(t, "orders", a.manage.form.Table())
	require.Len(t, a.manage.inputs, 2)
	assert.Equal(t, "total_amount", a.manage.fields[1].Column)
	assert.Empty(t, a.manage.form.Payload())

	send(a, key("right"))
	assert.Empty(t, a.manage.form.Table(), "selector moves on from the table's new position")
}

func TestApp_SubmitWithoutTableIsIgnored(t *testing.T) {
	stub := newStub()
	a := newTestApp(t, stub)
	send(a, key("f2"))
	loadSchema(t, a)

	assert.Nil(t, send(a, key("ctrl+s")))
	assert.Empty(t, stub.inserts)
}

func TestApp_Quit(t *testing.T) {
	a := newTestApp(t, newStub())
	cmd := send(a, key("esc"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
