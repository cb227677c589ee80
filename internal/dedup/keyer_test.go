package dedup

import (
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyer_RejectsUnknownFields(t *testing.T) {
	_, err := NewKeyer([]string{"source", "colour"}, 0)
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = NewKeyer(nil, 0)
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestKeyer_Key(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	base := model.Item{
		Source:    "telegram",
		Body:      strings.Repeat("a", 100) + "tail",
		Timestamp: ts,
		Metadata:  map[string]string{"company": "Acme", "round": "A轮"},
	}

	tests := []struct {
		name   string
		fields []string
		prefix int
		other  func(model.Item) model.Item
		same   bool
	}{
		{
			name:   "identical items",
			fields: []string{"source", "body", "timestamp"},
			prefix: 100,
			other:  func(i model.Item) model.Item { return i },
			same:   true,
		},
		{
			name:   "body differs after prefix",
			fields: []string{"source", "body", "timestamp"},
			prefix: 100,
			other: func(i model.Item) model.Item {
				i.Body = strings.Repeat("a", 100) + "other tail"
				return i
			},
			same: true,
		},
		{
			name:   "body differs inside prefix",
			fields: []string{"source", "body"},
			prefix: 100,
			other: func(i model.Item) model.Item {
				i.Body = "b" + i.Body[1:]
				return i
			},
			same: false,
		},
		{
			name:   "unselected field differs",
			fields: []string{"meta.company", "meta.round"},
			other: func(i model.Item) model.Item {
				i.Source = "elsewhere"
				i.Body = "different"
				return i
			},
			same: true,
		},
		{
			name:   "metadata differs",
			fields: []string{"meta.company", "meta.round"},
			other: func(i model.Item) model.Item {
				i.Metadata = map[string]string{"company": "Acme", "round": "B轮"}
				return i
			},
			same: false,
		},
		{
			name:   "timestamp in another zone is the same instant",
			fields: []string{"timestamp"},
			other: func(i model.Item) model.Item {
				i.Timestamp = ts.In(time.FixedZone("CST", 8*3600))
				return i
			},
			same: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := NewKeyer(tt.fields, tt.prefix)
			require.NoError(t, err)

			a := k.Key(base)
			b := k.Key(tt.other(base))
			assert.Len(t, a, 64)
			if tt.same {
				assert.Equal(t, a, b)
			} else {
				assert.NotEqual(t, a, b)
			}
		})
	}
}

func TestPrefix_CountsRunes(t *testing.T) {
	assert.Equal(t, "头壳", prefix("头壳出售", 2))
	assert.Equal(t, "abc", prefix("abc", 10))
	assert.Equal(t, "abc", prefix("abc", 0))
}

func TestHash_Deterministic(t *testing.T) {
	assert.Equal(t, Hash("a", "b"), Hash("a", "b"))
	assert.NotEqual(t, Hash("a", "b"), Hash("b", "a"))
}

func TestHash_SeparatorInFields(t *testing.T) {
	assert.NotEqual(t, Hash("a|b", "c"), Hash("a", "b|c"))
	assert.NotEqual(t, Hash("ab", ""), Hash("a", "b"))
	assert.NotEqual(t, Hash("1:a"), Hash("a"))

	k, err := NewKeyer([]string{"title", "body"}, 0)
	require.NoError(t, err)
	assert.NotEqual(t,
		k.Key(model.Item{Title: "a|b", Body: "c"}),
		k.Key(model.Item{Title: "a", Body: "b|c"}))
}
