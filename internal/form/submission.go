package form

import (
	"context"
	"errors"
	"log/slog"

	"github.com/leapstack-labs/dbassist/internal/api"
)

// SuccessText is published after a record is stored.
const SuccessText = "Record added successfully!"

// ErrInFlight is returned by Begin while a submission is outstanding.
var ErrInFlight = errors.New("a submission is already in progress")

// Inserter stores a record; *api.Client implements it.
type Inserter interface {
	AddRecord(ctx context.Context, req api.AddRecordRequest) error
}

// SubmitState is the submission lifecycle state.
type SubmitState int

const (
	SubmitIdle SubmitState = iota
	Submitting
	Submitted
	SubmitFailed
)

func (s SubmitState) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	case SubmitFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Submission is a ticket for one in-flight submit.
type Submission struct {
	Seq     uint64
	Table   string
	Payload Payload
}

// Request returns the wire body for the submission.
func (s Submission) Request() api.AddRecordRequest {
	return api.AddRecordRequest{Table: s.Table, Data: s.Payload}
}

// Submitter runs the submit round trip for one form. At most one submission
// is in flight; a response whose ticket is not the latest is discarded.
// Like Controller it belongs to a single goroutine, except Send which only
// touches the Inserter.
type Submitter struct {
	form   *Controller
	client Inserter
	logger *slog.Logger
	state  SubmitState
	seq    uint64
}

// NewSubmitter binds a submitter to a form.
func NewSubmitter(form *Controller, client Inserter, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Submitter{form: form, client: client, logger: logger}
}

// State returns the lifecycle state.
func (s *Submitter) State() SubmitState { return s.state }

// InFlight reports whether a submission is outstanding.
func (s *Submitter) InFlight() bool { return s.state == Submitting }

// CanSubmit reports whether the submit action should be enabled.
func (s *Submitter) CanSubmit() bool {
	return s.form.Table() != "" && !s.InFlight()
}

// Begin enters Submitting: it clears the notification and snapshots the
// table and cleaned payload.
func (s *Submitter) Begin() (Submission, error) {
	if s.form.Table() == "" {
		return Submission{}, ErrNoTable
	}
	if s.InFlight() {
		return Submission{}, ErrInFlight
	}

	s.seq++
	s.state = Submitting
	s.form.Slot().Clear()

	return Submission{
		Seq:     s.seq,
		Table:   s.form.Table(),
		Payload: s.form.Payload(),
	}, nil
}

// Send performs the request for a ticket. It does not touch submitter state,
// so it may run on another goroutine.
func (s *Submitter) Send(ctx context.Context, sub Submission) error {
	return s.client.AddRecord(ctx, sub.Request())
}

// Resolve applies the outcome of a ticket and reports whether it was
// current. On success the values are cleared so another row of the same
// table can be entered; on failure they are kept for correction.
func (s *Submitter) Resolve(sub Submission, err error) bool {
	if sub.Seq != s.seq || s.state != Submitting {
		s.logger.Debug("discarding stale submission", "seq", sub.Seq, "current", s.seq)
		return false
	}

	if err != nil {
		s.state = SubmitFailed
		s.form.Slot().Error(api.Message(err))
		s.logger.Info("record submission failed", "table", sub.Table, "error", err)
		return true
	}

	s.state = Submitted
	s.form.Slot().Success(SuccessText)
	if s.form.Table() == sub.Table {
		s.form.Reset()
	}
	s.logger.Info("record added", "table", sub.Table, "columns", len(sub.Payload))
	return true
}

// Submit runs Begin, Send and Resolve in sequence.
func (s *Submitter) Submit(ctx context.Context) error {
	sub, err := s.Begin()
	if err != nil {
		return err
	}
	err = s.Send(ctx, sub)
	s.Resolve(sub, err)
	return err
}
