// Package service defines the interfaces shared between the monitors and their collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/intel-sieve/internal/dedup"
	"github.com/Veraticus/intel-sieve/internal/model"
)

// ItemFilter narrows item queries. Zero values mean "no constraint".
type ItemFilter struct {
	Since       time.Time
	Until       time.Time
	Monitor     string
	Kind        string
	ContentType string
	Limit       int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Item operations
	SaveItem(ctx context.Context, monitor string, item model.ScoredItem) (bool, error)
	SaveItemWithMentions(ctx context.Context, monitor string, item model.ScoredItem, mentions []model.CompetitorMention) (bool, error)
	GetItems(ctx context.Context, filter ItemFilter) ([]model.ScoredItem, error)
	GetItemByKey(ctx context.Context, key string) (*model.ScoredItem, error)
	CountItems(ctx context.Context, filter ItemFilter) (int, error)

	// Competitor intelligence
	GetMentions(ctx context.Context, since time.Time) ([]model.CompetitorMention, error)

	// Dedup key namespaces
	SeenKeys(namespace string) dedup.KeyStore

	// Run history
	SaveRun(ctx context.Context, run model.Run) error
	GetRuns(ctx context.Context, monitor string, limit int) ([]model.Run, error)

	// Database management
	Migrate(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int, error)
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
