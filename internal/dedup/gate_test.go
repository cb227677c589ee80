package dedup

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_AdmitsOnce(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(NewSeenSet())

	var stored int
	persist := func(context.Context) error {
		stored++
		return nil
	}

	d, err := gate.Admit(ctx, "k1", persist)
	require.NoError(t, err)
	assert.Equal(t, Admitted, d)

	d, err = gate.Admit(ctx, "k1", persist)
	require.NoError(t, err)
	assert.Equal(t, Duplicate, d)

	assert.Equal(t, 1, stored)
}

func TestGate_PersistFailureLeavesKeyUnrecorded(t *testing.T) {
	ctx := context.Background()
	set := NewSeenSet()
	gate := NewGate(set)
	boom := errors.New("disk full")

	_, err := gate.Admit(ctx, "k1", func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, set.Len())

	d, err := gate.Admit(ctx, "k1", func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, Admitted, d)
}

func TestGate_EmptyKey(t *testing.T) {
	_, err := NewGate(NewSeenSet()).Admit(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestGate_ConcurrentAdmit(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(NewSeenSet())

	var stored atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gate.Admit(ctx, "same", func(context.Context) error {
				stored.Add(1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), stored.Load())
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "admitted", Admitted.String())
	assert.Equal(t, "duplicate", Duplicate.String())
}

func TestSeenSet_SaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "monitor_state.json")

	set := NewSeenSet()
	require.NoError(t, set.Mark(ctx, "a"))
	require.NoError(t, set.Mark(ctx, "b"))
	require.NoError(t, set.Save(path))

	loaded := NewSeenSet()
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, 2, loaded.Len())

	seen, err := loaded.Seen(ctx, "a")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestSeenSet_LoadMissingFile(t *testing.T) {
	set := NewSeenSet()
	require.NoError(t, set.Load(filepath.Join(t.TempDir(), "nope.json")))
	assert.Equal(t, 0, set.Len())
}
