// Package main provides end-to-end tests for the dbassist CLI.
package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/dbassist/internal/cli"
	"github.com/leapstack-labs/dbassist/internal/cli/config"
	"github.com/leapstack-labs/dbassist/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopSchema = `{"tables":{"orders":["customer_id","product_id","quantity"],"customers":["customer_name","email"]}}`

// run executes the root command against the fake API with no config file.
func run(t *testing.T, fake *testutil.FakeAPI, stdin string, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cmd := cli.NewRootCmd()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	if fake != nil {
		args = append(args, "--base-url", fake.URL)
	}
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, nil, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dbassist v")
}

func TestHelpCommand(t *testing.T) {
	out, _, err := run(t, nil, "", "--help")
	require.NoError(t, err)
	for _, expected := range []string{"schema", "ask", "add", "tui", "config", "doctor", "completion"} {
		assert.Contains(t, out, expected)
	}
}

func TestSchemaCommand(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.SetSchema(shopSchema)

	out, _, err := run(t, fake, "", "schema")
	require.NoError(t, err)

	assert.Contains(t, out, "## orders")
	assert.Contains(t, out, "- **customer_id**: numeric")
	assert.Contains(t, out, "- **email**: text")
	assert.Less(t, strings.Index(out, "orders"), strings.Index(out, "customers"), "server order is kept")
}

func TestSchemaCommand_JSON(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.SetSchema(shopSchema)

	out, _, err := run(t, fake, "", "schema", "customers", "--output", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"customers","columns":[{"name":"customer_name","kind":"text"},{"name":"email","kind":"text"}]}]`, out)
}

func TestSchemaCommand_UnknownTable(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.SetSchema(shopSchema)

	_, _, err := run(t, fake, "", "schema", "invoices")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `table "invoices" not found`)
}

func TestSchemaCommand_FetchError(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.FailSchema(http.StatusInternalServerError, `{"detail":"database is down"}`)

	_, _, err := run(t, fake, "", "schema")
	require.Error(t, err)
	assert.Equal(t, "Error fetching schema: database is down", err.Error())
}

func TestAskCommand(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.SetAnswer(`{"sql_query":"SELECT c.customer_name, p.name AS item FROM orders","result":[{"customer_name":"Ann","item":"laptop"},{"customer_name":"Bo, Jr.","item":"laptop"}]}`)

	t.Run("table", func(t *testing.T) {
		out, _, err := run(t, fake, "", "ask", "--format", "table", "who", "bought", "a", "laptop?")
		require.NoError(t, err)
		assert.Contains(t, strings.ToLower(out), "customer name")
		assert.Contains(t, out, "Ann")
		assert.Contains(t, out, "(2 rows)")
		assert.NotContains(t, out, "SELECT")
	})

	t.Run("show sql as markdown", func(t *testing.T) {
		out, _, err := run(t, fake, "", "ask", "--show-sql", "who bought a laptop?")
		require.NoError(t, err)
		assert.Contains(t, out, "```sql\nSELECT c.customer_name")
		assert.Contains(t, out, "| customer name | item |")
	})

	t.Run("csv", func(t *testing.T) {
		out, _, err := run(t, fake, "", "ask", "--format", "csv", "who bought a laptop?")
		require.NoError(t, err)
		assert.Equal(t, "customer_name,item\nAnn,laptop\n\"Bo, Jr.\",laptop\n", out)
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := run(t, fake, "", "ask", "-o", "json", "--show-sql", "who bought a laptop?")
		require.NoError(t, err)
		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "who bought a laptop?", got["question"])
		assert.Equal(t, []any{"customer_name", "item"}, got["columns"])
		assert.Contains(t, got["sql_query"], "SELECT")
	})

	assert.Contains(t, fake.Questions(), "who bought a laptop?")
}

func TestAskCommand_Stdin(t *testing.T) {
	fake := testutil.NewFakeAPI(t)

	out, _, err := run(t, fake, "how many orders?\n", "ask")
	require.NoError(t, err)
	assert.Equal(t, []string{"how many orders?"}, fake.Questions())
	assert.Contains(t, out, "No results found.")
}

func TestAskCommand_Failure(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.FailAsk(http.StatusInternalServerError, `{"detail":"could not generate SQL"}`)

	_, _, err := run(t, fake, "", "ask", "nonsense")
	require.Error(t, err)
	assert.Equal(t, "could not generate SQL", err.Error())
}

func TestAddCommand(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.SetSchema(shopSchema)

	out, _, err := run(t, fake, "", "add", "orders", "--set", "customer_id=7", "--set", "quantity=2", "--set", "product_id=")
	require.NoError(t, err)
	assert.Contains(t, out, "Record added successfully!")

	inserts := fake.Inserts()
	require.Len(t, inserts, 1)
	assert.Equal(t, "orders", inserts[0].Table)
	assert.JSONEq(t, `{"customer_id":7,"quantity":2}`, string(inserts[0].Data))
}

func TestAddCommand_Errors(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.SetSchema(shopSchema)

	tests := []struct {
		name      string
		args      []string
		errSubstr string
	}{
		{"no table", []string{"add"}, "table is required"},
		{"unknown table", []string{"add", "invoices"}, `table "invoices" not found`},
		{"bad assignment", []string{"add", "orders", "--set", "quantity"}, "expected column=value"},
		{"unknown column", []string{"add", "orders", "--set", "colour=red"}, "unknown column"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, fake, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
	assert.Empty(t, fake.Inserts())
}

func TestAddCommand_ServerDetail(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.SetSchema(shopSchema)
	fake.FailAddRecord(http.StatusBadRequest, `{"detail":"insert or update on table \"orders\" violates foreign key constraint"}`)

	_, _, err := run(t, fake, "", "add", "orders", "--set", "customer_id=999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "violates foreign key constraint")
}

func TestConfigCommand(t *testing.T) {
	fake := testutil.NewFakeAPI(t)

	out, _, err := run(t, fake, "", "config", "--api-key", "secret", "--timeout", "5s")
	require.NoError(t, err)
	assert.Contains(t, out, "base_url: "+fake.URL)
	assert.Contains(t, out, "timeout: 5s")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "secret")
}

func TestAPIKeyHeader(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	t.Setenv("DBASSIST_API_KEY", "from-env")

	_, _, err := run(t, fake, "", "schema")
	require.NoError(t, err)
	assert.Equal(t, []string{"from-env"}, fake.APIKeys())
}

func TestInvalidOutputFlag(t *testing.T) {
	_, _, err := run(t, nil, "", "version", "--output", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output")
}

func TestHistoryCommand(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.SetSchema(shopSchema)
	fake.SetAnswer(`{"sql_query":"SELECT name FROM products","result":[{"name":"laptop"}]}`)
	t.Setenv("DBASSIST_HISTORY_DB", filepath.Join(t.TempDir(), "history.db"))

	_, _, err := run(t, fake, "", "ask", "what do we sell?")
	require.NoError(t, err)
	_, _, err = run(t, fake, "", "add", "orders", "--set", "quantity=2")
	require.NoError(t, err)

	out, _, err := run(t, nil, "", "history", "-o", "json")
	require.NoError(t, err)

	var entries []struct {
		Kind     string `json:"kind"`
		Input    string `json:"input"`
		SQLQuery string `json:"sql_query"`
		Payload  string `json:"payload"`
		RowCount int    `json:"row_count"`
		Status   string `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "add", entries[0].Kind)
	assert.JSONEq(t, `{"quantity":2}`, entries[0].Payload)
	assert.Equal(t, "ask", entries[1].Kind)
	assert.Equal(t, "what do we sell?", entries[1].Input)
	assert.Equal(t, "SELECT name FROM products", entries[1].SQLQuery)
	assert.Equal(t, 1, entries[1].RowCount)

	out, _, err = run(t, nil, "", "history", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 2 entries")
}
