// Package query runs natural-language questions against the assistant
// service and keeps the latest answer for display.
package query

import (
	"context"
	"errors"
	"log/slog"

	"github.com/leapstack-labs/dbassist/internal/api"
	"github.com/leapstack-labs/dbassist/internal/grid"
	"github.com/leapstack-labs/dbassist/internal/notify"
)

// ErrInFlight is returned by Begin while a question is outstanding.
var ErrInFlight = errors.New("a question is already being answered")

// Asker answers a question; *api.Client implements it.
type Asker interface {
	Ask(ctx context.Context, question string) (*api.QueryResponse, error)
}

// State is the question lifecycle state.
type State int

const (
	Idle State = iota
	Asking
	Answered
	Failed
)

func (s State) String() string {
	switch s {
	case Asking:
		return "asking"
	case Answered:
		return "answered"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Ticket identifies one in-flight question.
type Ticket struct {
	Seq      uint64
	Question string
}

// Coordinator holds one question session. Only one question may be in
// flight; an outcome for any ticket but the latest is discarded. It belongs
// to a single goroutine, except Send which only touches the Asker.
type Coordinator struct {
	client     Asker
	slot       *notify.Slot
	logger     *slog.Logger
	state      State
	seq        uint64
	question   string
	response   *api.QueryResponse
	result     grid.Grid
	errText    string
	sqlVisible bool
}

// NewCoordinator creates an idle session. A nil slot gets a private one.
func NewCoordinator(client Asker, slot *notify.Slot, logger *slog.Logger) *Coordinator {
	if slot == nil {
		slot = notify.New()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{client: client, slot: slot, logger: logger}
}

// State returns the lifecycle state.
func (c *Coordinator) State() State { return c.state }

// InFlight reports whether a question is outstanding.
func (c *Coordinator) InFlight() bool { return c.state == Asking }

// Slot returns the session's notification slot.
func (c *Coordinator) Slot() *notify.Slot { return c.slot }

// Question returns the most recently asked question.
func (c *Coordinator) Question() string { return c.question }

// Response returns the answer; nil unless Answered.
func (c *Coordinator) Response() *api.QueryResponse { return c.response }

// Grid returns the rendered answer; the no-results grid unless Answered.
func (c *Coordinator) Grid() grid.Grid { return c.result }

// Err returns the failure text; empty unless Failed.
func (c *Coordinator) Err() string { return c.errText }

// SQLVisible reports whether the generated SQL should be shown.
func (c *Coordinator) SQLVisible() bool {
	return c.state == Answered && c.sqlVisible
}

// SQL returns the generated SQL when it is visible, "" otherwise.
func (c *Coordinator) SQL() string {
	if !c.SQLVisible() {
		return ""
	}
	return c.response.SQLQuery
}

// Begin enters Asking. The previous answer, error, notification and SQL
// toggle are all cleared. Empty questions are passed through.
func (c *Coordinator) Begin(question string) (Ticket, error) {
	if c.InFlight() {
		return Ticket{}, ErrInFlight
	}
	c.seq++
	c.state = Asking
	c.question = question
	c.response = nil
	c.result = grid.Grid{}
	c.errText = ""
	c.sqlVisible = false
	c.slot.Clear()
	return Ticket{Seq: c.seq, Question: question}, nil
}

// Send performs the request for a ticket without touching session state.
func (c *Coordinator) Send(ctx context.Context, t Ticket) (*api.QueryResponse, error) {
	return c.client.Ask(ctx, t.Question)
}

// Resolve applies the outcome of a ticket and reports whether it was
// current.
func (c *Coordinator) Resolve(t Ticket, resp *api.QueryResponse, err error) bool {
	if t.Seq != c.seq || c.state != Asking {
		c.logger.Debug("discarding stale answer", "seq", t.Seq, "current", c.seq)
		return false
	}

	if err == nil && resp == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		c.state = Failed
		c.errText = api.Message(err)
		c.slot.Error(c.errText)
		c.logger.Info("question failed", "error", err)
		return true
	}

	c.state = Answered
	c.response = resp
	c.result = grid.Render(resp.Result)
	c.logger.Debug("question answered", "rows", len(c.result.Rows), "sql", resp.SQLQuery)
	return true
}

// Ask runs Begin, Send and Resolve in sequence.
func (c *Coordinator) Ask(ctx context.Context, question string) error {
	t, err := c.Begin(question)
	if err != nil {
		return err
	}
	resp, err := c.Send(ctx, t)
	c.Resolve(t, resp, err)
	return err
}

// ToggleSQL flips SQL visibility. It only acts in Answered and reports the
// new visibility.
func (c *Coordinator) ToggleSQL() bool {
	if c.state != Answered {
		return false
	}
	c.sqlVisible = !c.sqlVisible
	return c.sqlVisible
}
