package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/dbassist/internal/query"
	"github.com/leapstack-labs/dbassist/internal/schema"
	"github.com/spf13/cobra"
)

const askPrompt = "dbassist> "

// askREPL holds one interactive question session.
type askREPL struct {
	cmdCtx  *CommandContext
	coord   *query.Coordinator
	catalog *schema.Catalog
	rec     *recorder
	format  string
}

func newAskREPL(cmdCtx *CommandContext, format string) *askREPL {
	return &askREPL{
		cmdCtx:  cmdCtx,
		coord:   query.NewCoordinator(cmdCtx.Client, nil, cmdCtx.Logger),
		catalog: schema.NewCatalog(cmdCtx.Client, nil, cmdCtx.Logger),
		format:  format,
	}
}

func runAskREPL(cmd *cobra.Command, cmdCtx *CommandContext, format string) error {
	ctx := commandContext(cmd)
	repl := newAskREPL(cmdCtx, format)
	repl.rec = cmdCtx.openRecorder(ctx)
	defer repl.rec.Close()

	// Table names are only used for completion; a failed load is not fatal.
	if _, err := repl.catalog.Load(ctx); err != nil {
		cmdCtx.Logger.Debug("schema unavailable for completion", "error", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          askPrompt,
		HistoryFile:     cmdCtx.Cfg.HistoryPath(),
		AutoComplete:    repl.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r := cmdCtx.Renderer
	r.Printf("dbassist (%s)\n", cmdCtx.Client.BaseURL())
	r.Println("Ask a question, or type .help for commands, .quit to exit")
	r.Println("")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if repl.handleLine(ctx, line) {
			break
		}
	}
	return nil
}

// handleLine processes one line of input and reports whether to quit.
func (p *askREPL) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, ".") {
		return p.handleDotCommand(ctx, line)
	}

	r := p.cmdCtx.Renderer
	err := p.coord.Ask(ctx, line)
	p.rec.ask(ctx, p.coord)
	if err != nil {
		r.Error(p.coord.Err())
		return false
	}
	if err := renderAnswer(r, p.coord, p.format); err != nil {
		r.Error(err.Error())
	}
	r.Println("")
	return false
}

func (p *askREPL) handleDotCommand(ctx context.Context, line string) bool {
	r := p.cmdCtx.Renderer
	command := strings.ToLower(strings.Fields(line)[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printAskREPLHelp(r.Writer())

	case ".sql":
		if p.coord.State() != query.Answered {
			r.Warning("no answer to show SQL for")
			return false
		}
		if p.coord.ToggleSQL() {
			r.Println(p.cmdCtx.Renderer.Styles().SQL.Render(p.coord.SQL()))
		} else {
			r.Muted("SQL hidden")
		}

	case ".tables":
		if _, err := p.catalog.Load(ctx); err != nil {
			r.Error(schema.FetchErrorText)
			return false
		}
		for _, t := range p.catalog.Current().All() {
			r.Printf("%s (%s)\n", t.Name, strings.Join(t.Columns, ", "))
		}

	case ".clear":
		r.Printf("\033[H\033[2J")

	default:
		r.Warning(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}
	return false
}

func printAskREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .sql            Show or hide the SQL of the last answer
  .tables         List tables and their columns
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - Each line is sent as one question
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// completer offers dot-commands and the table names known so far.
func (p *askREPL) completer() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, name := range p.catalog.Tables() {
		items = append(items, readline.PcItem(name))
	}
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".sql"),
		readline.PcItem(".tables"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}
