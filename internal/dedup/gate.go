package dedup

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrEmptyKey is returned when an item has no dedup key.
var ErrEmptyKey = errors.New("empty dedup key")

// Decision is the outcome of offering a key to the gate.
type Decision int

// Gate decisions.
const (
	Admitted Decision = iota
	Duplicate
)

func (d Decision) String() string {
	switch d {
	case Admitted:
		return "admitted"
	case Duplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// KeyStore remembers which keys have been admitted.
type KeyStore interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// Gate serialises check-and-insert over a KeyStore.
type Gate struct {
	store KeyStore
	mu    sync.Mutex
}

// NewGate returns a gate backed by store.
func NewGate(store KeyStore) *Gate {
	return &Gate{store: store}
}

// Admit runs persist for a key that has not been seen before and records the
// key once persist succeeds. A key that was already seen is reported as
// Duplicate with a nil error and persist is not called. If persist fails the
// key is left unrecorded so a later cycle can retry it.
func (g *Gate) Admit(ctx context.Context, key string, persist func(context.Context) error) (Decision, error) {
	if key == "" {
		return Duplicate, ErrEmptyKey
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	seen, err := g.store.Seen(ctx, key)
	if err != nil {
		return Duplicate, fmt.Errorf("failed to check dedup key: %w", err)
	}
	if seen {
		return Duplicate, nil
	}

	if persist != nil {
		if err := persist(ctx); err != nil {
			return Duplicate, err
		}
	}

	if err := g.store.Mark(ctx, key); err != nil {
		return Duplicate, fmt.Errorf("failed to record dedup key: %w", err)
	}
	return Admitted, nil
}
