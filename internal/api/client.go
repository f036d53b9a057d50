// Package api is the HTTP client for the database assistant service.
//
// The service exposes three JSON endpoints: the schema listing, record
// insertion and natural-language questions. Failures are reported as *Error
// values that carry the server's "detail" message when it sent one.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/dbassist/internal/ordered"
)

// Endpoint paths, relative to the base URL.
const (
	SchemaPath    = "/api/schema"
	AddRecordPath = "/api/add-record"
	QueryPath     = "/api/nlq-to-sql"
)

// DefaultTimeout bounds each request when Options.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 32 << 20

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the assistant service. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", base)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL: base,
		apiKey:  strings.TrimSpace(opts.APIKey),
		timeout: timeout,
		http:    httpClient,
		logger:  logger,
	}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Schema fetches the table listing. Tables and columns come back in the
// order the server wrote them.
func (c *Client) Schema(ctx context.Context) ([]TableColumns, error) {
	const op = "schema"
	body, err := c.do(ctx, op, ErrFetch, http.MethodGet, SchemaPath, nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Tables ordered.Object `json:"tables"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &Error{Op: op, Kind: ErrFetch, Err: fmt.Errorf("decode schema: %w", err)}
	}

	tables := make([]TableColumns, 0, len(envelope.Tables))
	for _, field := range envelope.Tables {
		var columns []string
		if err := json.Unmarshal(field.Value, &columns); err != nil {
			return nil, &Error{Op: op, Kind: ErrFetch, Err: fmt.Errorf("decode columns of %q: %w", field.Key, err)}
		}
		tables = append(tables, TableColumns{Name: field.Key, Columns: columns})
	}
	return tables, nil
}

// AddRecord inserts one row. The response body is ignored on success.
func (c *Client) AddRecord(ctx context.Context, req AddRecordRequest) error {
	_, err := c.do(ctx, "add-record", ErrSubmission, http.MethodPost, AddRecordPath, req)
	return err
}

// Ask sends a natural-language question and returns the generated SQL with
// its result.
func (c *Client) Ask(ctx context.Context, question string) (*QueryResponse, error) {
	const op = "nlq-to-sql"
	body, err := c.do(ctx, op, ErrQuery, http.MethodPost, QueryPath, QueryRequest{Question: question})
	if err != nil {
		return nil, err
	}

	var resp QueryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &Error{Op: op, Kind: ErrQuery, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, op string, kind error, method, path string, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{Op: op, Kind: kind, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &Error{Op: op, Kind: kind, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", op, "request_id", requestID, "error", err)
		return nil, &Error{Op: op, Kind: kind, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Op: op, Kind: kind, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response body: %w", err)}
	}

	c.logger.Debug("request completed",
		"op", op,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if !isSuccess(resp.StatusCode) {
		return nil, statusError(op, kind, resp.StatusCode, body)
	}
	return body, nil
}
