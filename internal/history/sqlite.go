package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

var errNotOpen = errors.New("database not opened")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteStore creates a store; call Open before use.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger, now: time.Now}
}

// NewSQLiteStoreWithDB wraps an already open database. Migrations are not run.
func NewSQLiteStoreWithDB(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	s := NewSQLiteStore(logger)
	s.db = db
	return s
}

// OpenStore opens the database at path, creating parent directories, and
// migrates it.
func OpenStore(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	s := NewSQLiteStore(logger)
	if err := s.Open(path); err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Path returns the path the store was opened with.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores e. ID and CreatedAt are filled in when empty.
func (s *SQLiteStore) Record(ctx context.Context, e *Entry) error {
	if s.db == nil {
		return errNotOpen
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}

	s.logger.Debug("recording history", slog.String("id", e.ID), slog.String("kind", string(e.Kind)))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (id, kind, input, sql_query, payload, row_count, status, error, environment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.Input, e.SQL, e.Payload, e.RowCount, string(e.Status), e.Error, e.Environment,
		e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}

// List returns entries newest first.
func (s *SQLiteStore) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	if s.db == nil {
		return nil, errNotOpen
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var (
		where []string
		args  []any
	)
	if opts.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(opts.Kind))
	}

	query := `SELECT id, kind, input, sql_query, payload, row_count, status, error, environment, created_at FROM history`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			kind      string
			status    string
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &kind, &e.Input, &e.SQL, &e.Payload, &e.RowCount, &status, &e.Error, &e.Environment, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		e.Kind = Kind(kind)
		e.Status = Status(status)
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

// Clear deletes every entry and returns how many were removed.
func (s *SQLiteStore) Clear(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, errNotOpen
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM history`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return n, nil
}
