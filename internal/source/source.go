// Package source fetches raw items for the monitors: arXiv papers, RSS and
// Atom funding news, Telegram channel posts, JSON Lines exports and built-in
// sample data.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/intel-sieve/internal/model"
)

// Source produces the items for one monitoring cycle.
type Source interface {
	// Name identifies the source in logs and run records.
	Name() string
	// Fetch returns the items currently available.
	Fetch(ctx context.Context) ([]model.Item, error)
}

// Collect fetches every source in order. A failing source is logged and
// skipped; its error is joined into the returned error while the items from
// the other sources are still returned.
func Collect(ctx context.Context, sources ...Source) ([]model.Item, error) {
	var (
		items []model.Item
		errs  []error
	)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return items, err
		}
		fetched, err := src.Fetch(ctx)
		if err != nil {
			slog.Warn("Source fetch failed", "source", src.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		slog.Debug("Source fetched", "source", src.Name(), "items", len(fetched))
		items = append(items, fetched...)
	}
	return items, errors.Join(errs...)
}

// Static serves a fixed item list. It backs sample data and tests.
type Static struct {
	name  string
	items []model.Item
}

// NewStatic creates a source that always returns items.
func NewStatic(name string, items []model.Item) *Static {
	return &Static{name: name, items: items}
}

// Name implements Source.
func (s *Static) Name() string { return s.name }

// Fetch implements Source.
func (s *Static) Fetch(_ context.Context) ([]model.Item, error) {
	return append([]model.Item(nil), s.items...), nil
}
