package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/dbassist/internal/cli/output"
	"github.com/leapstack-labs/dbassist/internal/form"
	"github.com/leapstack-labs/dbassist/internal/schema"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [table]",
		Short: "Show the tables and columns records can be added to",
		Long: `Fetch the live schema from the assistant service and list each table
with its columns. Every column shows the input kind forms will use for it:
numeric for ids, quantities, prices and amounts, text for everything else.

Output adapts to environment:
  - Terminal: Styled tables
  - Piped/Scripted: Markdown format

Use --output to override: auto, text, markdown, json`,
		Example: `  # List every table
  dbassist schema

  # Show one table
  dbassist schema orders

  # As JSON
  dbassist schema --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd, args)
		},
	}
	return cmd
}

// schemaColumn is the JSON shape of a column.
type schemaColumn struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// schemaTable is the JSON shape of a table.
type schemaTable struct {
	Name    string         `json:"name"`
	Columns []schemaColumn `json:"columns"`
}

func runSchema(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	catalog, err := cmdCtx.LoadCatalog(commandContext(cmd))
	if err != nil {
		return err
	}

	tables := catalog.Current().All()
	if len(args) == 1 {
		cols, err := catalog.ColumnsOf(args[0])
		if err != nil {
			return fmt.Errorf("table %q not found", args[0])
		}
		tables = []schema.Table{{Name: args[0], Columns: cols}}
	}

	out := make([]schemaTable, 0, len(tables))
	for _, t := range tables {
		st := schemaTable{Name: t.Name, Columns: make([]schemaColumn, 0, len(t.Columns))}
		for _, c := range t.Columns {
			st.Columns = append(st.Columns, schemaColumn{Name: c, Kind: form.InferKind(c).String()})
		}
		out = append(out, st)
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		renderSchemaMarkdown(r, out)
	default:
		renderSchemaText(r, out)
	}
	return nil
}

func renderSchemaText(r *output.Renderer, tables []schemaTable) {
	styles := r.Styles()
	if len(tables) == 0 {
		r.Muted("No tables.")
		return
	}
	for i, t := range tables {
		if i > 0 {
			r.Println("")
		}
		r.Println(styles.TableName.Render(t.Name))

		tw := table.NewWriter()
		tw.SetOutputMirror(r.Writer())
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"Column", "Kind"})
		for _, c := range t.Columns {
			tw.AppendRow(table.Row{c.Name, c.Kind})
		}
		tw.Render()
	}
	r.Println("")
	r.Muted(fmt.Sprintf("%d tables", len(tables)))
}

func renderSchemaMarkdown(r *output.Renderer, tables []schemaTable) {
	r.Println(output.FormatHeader(1, fmt.Sprintf("Schema (%d tables)", len(tables))))
	for _, t := range tables {
		r.Println("")
		r.Println(output.FormatHeader(2, t.Name))
		r.Println("")
		for _, c := range t.Columns {
			r.Println(output.FormatKeyValue(c.Name, c.Kind))
		}
	}
}
