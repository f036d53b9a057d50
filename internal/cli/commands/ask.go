package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/dbassist/internal/cli/output"
	"github.com/leapstack-labs/dbassist/internal/query"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// AskOptions holds options for the ask command.
type AskOptions struct {
	Format  string
	ShowSQL bool
}

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	opts := &AskOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the data in plain language",
		Long: `Send a natural-language question to the assistant service, which turns it
into SQL, runs it and returns the rows. The rows are shown as a table whose
columns come from the first record.

The question is taken from the arguments, or from stdin when it is piped.
When invoked without arguments on a terminal, enters interactive REPL mode.`,
		Example: `  # Ask directly
  dbassist ask "who bought a laptop?"

  # Show the generated SQL too
  dbassist ask --show-sql "total revenue per month"

  # Output as CSV
  dbassist ask "top 10 customers by spend" --format csv

  # Piped
  echo "how many orders shipped today?" | dbassist ask

  # Interactive mode
  dbassist ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().BoolVar(&opts.ShowSQL, "show-sql", false, "Show the SQL generated for the question")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv", "md"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runAsk(cmd *cobra.Command, args []string, opts *AskOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	format := resolveFormat(cmd, cmdCtx.Renderer, opts.Format)

	var question string
	switch {
	case len(args) > 0:
		question = strings.Join(args, " ")
	case !isTerminal(cmd.InOrStdin()):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		question = strings.TrimSpace(string(content))
	default:
		return runAskREPL(cmd, cmdCtx, format)
	}

	ctx := commandContext(cmd)
	rec := cmdCtx.openRecorder(ctx)
	defer rec.Close()

	coord := query.NewCoordinator(cmdCtx.Client, nil, cmdCtx.Logger)
	err = coord.Ask(ctx, question)
	rec.ask(ctx, coord)
	if err != nil {
		return failure(err)
	}
	if opts.ShowSQL {
		coord.ToggleSQL()
	}
	return renderAnswer(cmdCtx.Renderer, coord, format)
}

// resolveFormat honours an explicit --format, otherwise follows the global
// output mode.
func resolveFormat(cmd *cobra.Command, r *output.Renderer, format string) string {
	if cmd.Flags().Changed("format") {
		return format
	}
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return "json"
	case output.ModeMarkdown:
		return "md"
	default:
		return format
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
