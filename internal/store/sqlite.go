package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/seantiz/runloop/internal/model"

	_ "modernc.org/sqlite"
)

const createEventsTable = `
CREATE TABLE IF NOT EXISTS configure_events (
    id                 TEXT PRIMARY KEY,
    platform           TEXT NOT NULL,
    backend            TEXT NOT NULL,
    optional_available INTEGER NOT NULL,
    runtime_version    TEXT NOT NULL,
    created_at         DATETIME NOT NULL
)`

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(createEventsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create configure_events table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordConfigure inserts a new configure event.
func (s *SQLiteStore) RecordConfigure(ctx context.Context, e *model.ConfigureEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO configure_events (
			id, platform, backend, optional_available, runtime_version, created_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Platform, e.Backend, e.OptionalAvailable, e.RuntimeVersion, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert configure event: %w", err)
	}
	return nil
}

// GetEvent retrieves a configure event by ID.
func (s *SQLiteStore) GetEvent(ctx context.Context, id string) (*model.ConfigureEvent, error) {
	e := &model.ConfigureEvent{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, platform, backend, optional_available, runtime_version, created_at
		FROM configure_events WHERE id = ?`, id,
	).Scan(&e.ID, &e.Platform, &e.Backend, &e.OptionalAvailable, &e.RuntimeVersion, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get configure event: %w", err)
	}
	return e, nil
}

// ListEvents returns a paginated list of configure events ordered newest
// first, along with the total count of all events.
func (s *SQLiteStore) ListEvents(ctx context.Context, limit, offset int) ([]*model.ConfigureEvent, int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM configure_events`,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count configure events: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, platform, backend, optional_available, runtime_version, created_at
		FROM configure_events
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list configure events: %w", err)
	}
	defer rows.Close()

	var events []*model.ConfigureEvent
	for rows.Next() {
		e := &model.ConfigureEvent{}
		if err := rows.Scan(
			&e.ID, &e.Platform, &e.Backend, &e.OptionalAvailable, &e.RuntimeVersion, &e.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan configure event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate configure events: %w", err)
	}

	return events, total, nil
}

// GetStats returns aggregate statistics over all configure events.
func (s *SQLiteStore) GetStats(ctx context.Context) (*SelectionStats, error) {
	stats := &SelectionStats{
		CountByBackend: make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT backend, COUNT(*) FROM configure_events GROUP BY backend`,
	)
	if err != nil {
		return nil, fmt.Errorf("count by backend: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var backend string
		var count int
		if err := rows.Scan(&backend, &count); err != nil {
			return nil, fmt.Errorf("scan backend count: %w", err)
		}
		stats.CountByBackend[backend] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backend counts: %w", err)
	}

	var last sql.NullTime
	if err := s.db.QueryRowContext(ctx,
		`SELECT MAX(created_at) FROM configure_events`,
	).Scan(&last); err != nil {
		return nil, fmt.Errorf("last configured at: %w", err)
	}
	if last.Valid {
		stats.LastConfiguredAt = &last.Time
	}

	return stats, nil
}
