package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/dbassist/internal/cli/output"
	"github.com/leapstack-labs/dbassist/internal/grid"
	"github.com/leapstack-labs/dbassist/internal/query"
)

// answerOutput is the JSON shape of an answer.
type answerOutput struct {
	Question string          `json:"question"`
	SQLQuery string          `json:"sql_query,omitempty"`
	Columns  []string        `json:"columns"`
	Result   json.RawMessage `json:"result"`
}

func renderAnswer(r *output.Renderer, coord *query.Coordinator, format string) error {
	w := r.Writer()
	g := coord.Grid()
	sql := coord.SQL()

	switch format {
	case "json":
		result := coord.Response().Result
		if len(result) == 0 {
			result = json.RawMessage("null")
		}
		cols := g.Keys
		if cols == nil {
			cols = []string{}
		}
		return r.JSON(answerOutput{
			Question: coord.Question(),
			SQLQuery: sql,
			Columns:  cols,
			Result:   result,
		})
	case "csv":
		return renderGridCSV(w, g)
	case "md", "markdown":
		if sql != "" {
			r.Println(output.FormatCodeBlock("sql", sql))
			r.Println("")
		}
		return renderGridMarkdown(w, g)
	default:
		if sql != "" {
			styles := r.Styles()
			r.Println(styles.Bold.Render("SQL:") + " " + styles.SQL.Render(sql))
			r.Println("")
		}
		return renderGridTable(w, g)
	}
}

func renderGridTable(w io.Writer, g grid.Grid) error {
	if g.Empty() {
		_, _ = fmt.Fprintln(w, grid.NoResultsText)
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(g.Headers))
	for i, h := range g.Headers {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, cells := range g.Rows {
		row := make(table.Row, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(g.Rows))
	return nil
}

func renderGridCSV(w io.Writer, g grid.Grid) error {
	if g.Empty() {
		return nil
	}
	header := make([]string, len(g.Keys))
	for i, k := range g.Keys {
		header[i] = escapeCSV(k)
	}
	_, _ = fmt.Fprintln(w, strings.Join(header, ","))

	for _, cells := range g.Rows {
		values := make([]string, len(cells))
		for i, c := range cells {
			values[i] = escapeCSV(c)
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderGridMarkdown(w io.Writer, g grid.Grid) error {
	if g.Empty() {
		_, _ = fmt.Fprintln(w, grid.NoResultsText)
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(g.Headers, " | "))
	seps := make([]string, len(g.Headers))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, cells := range g.Rows {
		values := make([]string, len(cells))
		for i, c := range cells {
			values[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
