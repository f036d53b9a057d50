package tui

import (
	"github.com/leapstack-labs/dbassist/internal/api"
	"github.com/leapstack-labs/dbassist/internal/form"
	"github.com/leapstack-labs/dbassist/internal/query"
	"github.com/leapstack-labs/dbassist/internal/schema"
)

// SchemaLoadedMsg is sent when a schema fetch completes.
type SchemaLoadedMsg struct {
	Schema *schema.Schema
	Err    error
}

// AnswerMsg is sent when a question comes back.
type AnswerMsg struct {
	Ticket   query.Ticket
	Response *api.QueryResponse
	Err      error
}

// SubmitResultMsg is sent when a record submission completes.
type SubmitResultMsg struct {
	Submission form.Submission
	Err        error
}
