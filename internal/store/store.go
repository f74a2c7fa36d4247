// Package store persists the history of backend configurations for the
// diagnostics API.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/seantiz/runloop/internal/model"
)

// ErrNotFound is returned when a configure event is not found.
var ErrNotFound = errors.New("configure event not found")

// SelectionStats holds aggregate configuration statistics.
type SelectionStats struct {
	Total            int            `json:"total"`
	CountByBackend   map[string]int `json:"count_by_backend"`
	LastConfiguredAt *time.Time     `json:"last_configured_at,omitempty"`
}

// Store defines the persistence operations for configure events.
type Store interface {
	RecordConfigure(ctx context.Context, e *model.ConfigureEvent) error
	GetEvent(ctx context.Context, id string) (*model.ConfigureEvent, error)
	ListEvents(ctx context.Context, limit, offset int) ([]*model.ConfigureEvent, int, error)
	GetStats(ctx context.Context) (*SelectionStats, error)
	Close() error
}
