package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/dbassist/internal/api"
	"github.com/leapstack-labs/dbassist/internal/cli/output"
	"github.com/leapstack-labs/dbassist/internal/form"
	"github.com/leapstack-labs/dbassist/internal/history"
	"github.com/leapstack-labs/dbassist/internal/query"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
	Kind  string
	Clear bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past questions and added records",
		Long: `Show the local log of questions asked and records added from the command
line, newest first. Each question keeps the SQL the assistant wrote and how
many rows came back; each added record keeps the data that was sent.

The log lives in history_db (default ~/.dbassist/history.db). Set
record_history: false to stop recording.`,
		Example: `  # Last 20 entries
  dbassist history

  # Only questions
  dbassist history --kind ask --limit 50

  # Forget everything
  dbassist history --clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", history.DefaultLimit, "Maximum number of entries")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "Only show entries of this kind: ask, add")
	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "Delete all entries")
	_ = cmd.RegisterFlagCompletionFunc("kind", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(history.KindAsk), string(history.KindAdd)}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx := NewCommandContextWithoutClient(cmd)
	ctx := commandContext(cmd)
	r := cmdCtx.Renderer

	kind := history.Kind(opts.Kind)
	if kind != "" && kind != history.KindAsk && kind != history.KindAdd {
		return fmt.Errorf("invalid kind %q\nHint: use ask or add", opts.Kind)
	}

	store, err := history.OpenStore(ctx, cmdCtx.Cfg.HistoryDBPath(), cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer func() { _ = store.Close() }()

	if opts.Clear {
		n, err := store.Clear(ctx)
		if err != nil {
			return err
		}
		r.Success(fmt.Sprintf("Removed %d entries", n))
		return nil
	}

	entries, err := store.List(ctx, history.ListOptions{Kind: kind, Limit: opts.Limit})
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if entries == nil {
			entries = []history.Entry{}
		}
		return r.JSON(entries)
	case output.ModeMarkdown:
		renderHistoryMarkdown(r, entries)
	default:
		renderHistoryText(r, entries)
	}
	return nil
}

const historyTimeLayout = "2006-01-02 15:04"

func historyStatus(styles *output.Styles, e history.Entry) string {
	if e.Status == history.StatusSuccess {
		return styles.StatusSuccess.String()
	}
	return styles.StatusFailed.String()
}

// historyDetail summarizes the outcome of an entry in one line.
func historyDetail(e history.Entry) string {
	switch {
	case e.Status == history.StatusFailed:
		return e.Error
	case e.Kind == history.KindAsk:
		return fmt.Sprintf("%d rows", e.RowCount)
	default:
		return e.Payload
	}
}

func renderHistoryText(r *output.Renderer, entries []history.Entry) {
	if len(entries) == 0 {
		r.Muted("No history yet.")
		return
	}
	styles := r.Styles()

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"", "When", "Kind", "Input", "Result"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			historyStatus(styles, e),
			e.CreatedAt.Local().Format(historyTimeLayout),
			string(e.Kind),
			e.Input,
			historyDetail(e),
		})
	}
	t.Render()
}

func renderHistoryMarkdown(r *output.Renderer, entries []history.Entry) {
	r.Println(output.FormatHeader(1, fmt.Sprintf("History (%d entries)", len(entries))))
	for _, e := range entries {
		r.Println("")
		r.Println(output.FormatHeader(2, fmt.Sprintf("%s %s: %s", e.CreatedAt.Local().Format(historyTimeLayout), e.Kind, e.Input)))
		r.Println("")
		r.Println(output.FormatKeyValue("Status", string(e.Status)))
		if e.Environment != "" {
			r.Println(output.FormatKeyValue("Environment", e.Environment))
		}
		if e.Status == history.StatusFailed {
			r.Println(output.FormatKeyValue("Error", e.Error))
			continue
		}
		switch e.Kind {
		case history.KindAsk:
			r.Println(output.FormatKeyValue("Rows", fmt.Sprint(e.RowCount)))
			if e.SQL != "" {
				r.Println("")
				r.Println(output.FormatCodeBlock("sql", e.SQL))
			}
		case history.KindAdd:
			r.Println(output.FormatKeyValue("Data", "`"+strings.ReplaceAll(e.Payload, "`", "'")+"`"))
		}
	}
}

// recorder appends ask and add outcomes to the history store. A nil
// recorder, or one without a store, records nothing.
type recorder struct {
	store  history.Store
	env    string
	logger *slog.Logger
}

// openRecorder opens the history store unless recording is disabled. Failing
// to open it only costs the history, so it is logged and not returned.
func (c *CommandContext) openRecorder(ctx context.Context) *recorder {
	if !c.Cfg.RecordHistory {
		return nil
	}
	path := c.Cfg.HistoryDBPath()
	if path == "" {
		return nil
	}
	store, err := history.OpenStore(ctx, path, c.Logger)
	if err != nil {
		c.Logger.Warn("history disabled", "path", path, "error", err)
		return nil
	}
	return &recorder{store: store, env: c.Cfg.Environment, logger: c.Logger}
}

func (rec *recorder) record(ctx context.Context, e *history.Entry) {
	if rec == nil || rec.store == nil {
		return
	}
	e.Environment = rec.env
	if err := rec.store.Record(ctx, e); err != nil {
		rec.logger.Warn("failed to record history", "kind", e.Kind, "error", err)
	}
}

// ask records the outcome of the coordinator's last question.
func (rec *recorder) ask(ctx context.Context, coord *query.Coordinator) {
	e := &history.Entry{Kind: history.KindAsk, Input: coord.Question(), Status: history.StatusSuccess}
	switch coord.State() {
	case query.Answered:
		if resp := coord.Response(); resp != nil {
			e.SQL = resp.SQLQuery
		}
		e.RowCount = len(coord.Grid().Rows)
	case query.Failed:
		e.Status = history.StatusFailed
		e.Error = coord.Err()
	default:
		return
	}
	rec.record(ctx, e)
}

// add records one submission of payload to table.
func (rec *recorder) add(ctx context.Context, table string, payload form.Payload, err error) {
	e := &history.Entry{Kind: history.KindAdd, Input: table, Status: history.StatusSuccess}
	if data, mErr := json.Marshal(payload); mErr == nil {
		e.Payload = string(data)
	}
	if err != nil {
		e.Status = history.StatusFailed
		e.Error = api.Message(err)
	}
	rec.record(ctx, e)
}

func (rec *recorder) Close() {
	if rec == nil || rec.store == nil {
		return
	}
	if err := rec.store.Close(); err != nil {
		rec.logger.Debug("failed to close history", "error", err)
	}
}
