package commands

import (
	"fmt"

	"github.com/leapstack-labs/dbassist/internal/tui"
	"github.com/spf13/cobra"
)

// NewTUICommand creates the tui command.
func NewTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the full-screen interface",
		Long: `Open a full-screen terminal interface with two tabs:

  Query   Ask questions and browse the answers, with the generated SQL on demand
  Manage  Browse the schema and add records through generated forms

Press F1/F2 to switch tabs and esc to quit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			title := fmt.Sprintf("dbassist · %s", cmdCtx.Client.BaseURL())
			app := tui.New(ctx, cmdCtx.Client, title, cmdCtx.Logger)
			return tui.Run(ctx, app)
		},
	}
}
