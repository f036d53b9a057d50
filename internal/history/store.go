// Package history keeps a local SQLite log of the questions asked and the
// records added, so past answers can be listed again without the service.
package history

import (
	"context"
	"time"
)

// Kind tells which operation an entry records.
type Kind string

// Entry kinds.
const (
	KindAsk Kind = "ask"
	KindAdd Kind = "add"
)

// Status is the outcome of the recorded operation.
type Status string

// Entry statuses.
const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Entry is one recorded operation. For KindAsk, Input is the question and
// SQL and RowCount describe the answer. For KindAdd, Input is the table and
// Payload the JSON that was sent.
type Entry struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Input       string    `json:"input"`
	SQL         string    `json:"sql_query,omitempty"`
	Payload     string    `json:"payload,omitempty"`
	RowCount    int       `json:"row_count"`
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	Environment string    `json:"environment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListOptions filters List. Zero values mean no filter; Limit <= 0 uses
// DefaultLimit.
type ListOptions struct {
	Kind  Kind
	Limit int
}

// DefaultLimit is the number of entries List returns when no limit is given.
const DefaultLimit = 20

// Store records and lists history entries.
type Store interface {
	Record(ctx context.Context, e *Entry) error
	List(ctx context.Context, opts ListOptions) ([]Entry, error)
	Clear(ctx context.Context) (int64, error)
	Close() error
}
