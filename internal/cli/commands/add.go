package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/dbassist/internal/cli/output"
	"github.com/leapstack-labs/dbassist/internal/form"
	"github.com/leapstack-labs/dbassist/internal/notify"
	"github.com/leapstack-labs/dbassist/internal/schema"
	"github.com/spf13/cobra"
)

// AddOptions holds options for the add command.
type AddOptions struct {
	Set         []string
	Interactive bool
}

// NewAddCommand creates the add command.
func NewAddCommand() *cobra.Command {
	opts := &AddOptions{}

	cmd := &cobra.Command{
		Use:   "add [table]",
		Short: "Add a record to a table",
		Long: `Insert one row into a table. Columns come from the live schema; values
for numeric columns (ids, quantities, prices, amounts) are sent as numbers
when they parse as one, and as text otherwise so the service can report the
problem. Columns left empty are omitted from the request.

Values are given with --set, or entered one column at a time with
--interactive.`,
		Example: `  # Add an order
  dbassist add orders --set customer_id=7 --set product_id=3 --set quantity=2

  # Pick the table and fill the form interactively
  dbassist add --interactive`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return completeTables(cmd), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, args, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Set, "set", "s", nil, "Column value as column=value (repeatable)")
	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "Prompt for the table and each column")

	return cmd
}

// addOutput is the JSON shape of a successful add.
type addOutput struct {
	Table   string       `json:"table"`
	Data    form.Payload `json:"data"`
	Message string       `json:"message"`
}

func runAdd(cmd *cobra.Command, args []string, opts *AddOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	catalog, err := cmdCtx.LoadCatalog(ctx)
	if err != nil {
		return err
	}

	var driver PromptDriver
	if opts.Interactive {
		driver = newPromptDriver()
	}

	table := ""
	if len(args) == 1 {
		table = args[0]
	}
	if table == "" {
		if driver == nil {
			return fmt.Errorf("table is required\nHint: pass a table name or use --interactive")
		}
		if table, err = promptTable(ctx, driver, catalog); err != nil {
			return err
		}
	}
	if !catalog.Current().Has(table) {
		return fmt.Errorf("table %q not found", table)
	}

	slot := notify.New()
	f := form.NewController(catalog, slot)
	f.SelectTable(table)

	for _, assignment := range opts.Set {
		column, value, ok := strings.Cut(assignment, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q: expected column=value", assignment)
		}
		if err := f.SetField(strings.TrimSpace(column), value); err != nil {
			return err
		}
	}

	if driver != nil {
		proceed, err := promptFields(ctx, driver, f)
		if err != nil {
			return err
		}
		if !proceed {
			cmdCtx.Renderer.Muted("Cancelled")
			return nil
		}
	}

	payload := f.Payload()
	rec := cmdCtx.openRecorder(ctx)
	defer rec.Close()

	submitter := form.NewSubmitter(f, cmdCtx.Client, cmdCtx.Logger)
	err = submitter.Submit(ctx)
	rec.add(ctx, table, payload, err)
	if err != nil {
		return failure(err)
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(addOutput{Table: table, Data: payload, Message: form.SuccessText})
	}
	if n, ok := slot.Current(); ok {
		r.Notification(n)
	}
	return nil
}

func promptTable(ctx context.Context, driver PromptDriver, catalog *schema.Catalog) (string, error) {
	tables := catalog.Tables()
	if len(tables) == 0 {
		return "", errors.New("the schema lists no tables")
	}
	idx, err := driver.Select(ctx, SelectConfig{
		Message:  "Select a table",
		Options:  tables,
		PageSize: 15,
	})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(tables) {
		return "", fmt.Errorf("invalid table selection %d", idx)
	}
	return tables[idx], nil
}

// promptFields asks for every column in order, then for confirmation.
func promptFields(ctx context.Context, driver PromptDriver, f *form.Controller) (bool, error) {
	for _, field := range f.Fields() {
		raw, err := driver.Input(ctx, InputConfig{
			Message: fmt.Sprintf("%s (%s)", field.Column, field.Kind),
			Default: field.Value.String(),
			Help:    "Leave empty to omit the column",
		})
		if err != nil {
			return false, err
		}
		if err := f.SetField(field.Column, raw); err != nil {
			return false, err
		}
	}
	return driver.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("Add record to %s?", f.Table()),
		Default: true,
	})
}

// completeTables lists tables for shell completion; failures yield nothing.
func completeTables(cmd *cobra.Command) []string {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return nil
	}
	catalog, err := cmdCtx.LoadCatalog(commandContext(cmd))
	if err != nil {
		return nil
	}
	return catalog.Tables()
}
