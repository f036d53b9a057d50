package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinels for errors.Is, one per endpoint.
var (
	ErrFetch      = errors.New("schema fetch failed")
	ErrSubmission = errors.New("record submission failed")
	ErrQuery      = errors.New("query failed")
)

// Error is returned by every Client call that fails, whether the request
// never completed (Err set) or the server answered with a non-2xx status
// (StatusCode set, Detail filled from the body when present).
type Error struct {
	Op         string
	Kind       error
	StatusCode int
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: http %d", e.Kind, e.StatusCode)
	}
}

// Unwrap exposes both the kind sentinel and the transport cause.
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Message returns the text to show a user for err: the server-supplied
// detail when there is one, otherwise a short transport description.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	if apiErr.Detail != "" {
		return apiErr.Detail
	}
	if apiErr.Err != nil {
		return transportMessage(apiErr.Err)
	}
	return fmt.Sprintf("Request failed with status code %d", apiErr.StatusCode)
}

func transportMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	case errors.Is(err, context.Canceled):
		return "Request cancelled"
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Request timed out"
	}
	return "Network Error: " + err.Error()
}

// parseDetail extracts the "detail" member of an error body. FastAPI style
// validation errors carry a list of {msg} objects instead of a string; their
// messages are joined.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	if string(envelope.Detail) == "null" {
		return ""
	}
	return string(envelope.Detail)
}

func statusError(op string, kind error, code int, body []byte) *Error {
	return &Error{
		Op:         op,
		Kind:       kind,
		StatusCode: code,
		Detail:     parseDetail(body),
	}
}

func isSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
