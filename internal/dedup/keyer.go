// Package dedup derives content keys for items and guarantees that an item
// with a given key is persisted at most once.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/intel-sieve/internal/model"
)

// ErrUnknownField is returned for a key field the keyer cannot read.
var ErrUnknownField = errors.New("unknown dedup field")

const metaPrefix = "meta."

var itemFields = map[string]func(model.Item) string{
	"id":          func(i model.Item) string { return i.ID },
	"kind":        func(i model.Item) string { return i.Kind },
	"source":      func(i model.Item) string { return i.Source },
	"source_type": func(i model.Item) string { return i.SourceType },
	"author":      func(i model.Item) string { return i.Author },
	"title":       func(i model.Item) string { return i.Title },
	"url":         func(i model.Item) string { return i.URL },
	"timestamp": func(i model.Item) string {
		if i.Timestamp.IsZero() {
			return ""
		}
		return i.Timestamp.UTC().Format(time.RFC3339Nano)
	},
}

// ValidField reports whether name can be used as a key field.
func ValidField(name string) bool {
	if name == "body" {
		return true
	}
	if _, ok := itemFields[name]; ok {
		return true
	}
	return strings.HasPrefix(name, metaPrefix) && len(name) > len(metaPrefix)
}

// Keyer hashes a fixed subset of item fields into a hex SHA-256 key.
type Keyer struct {
	fields     []string
	bodyPrefix int
}

// NewKeyer returns a keyer over fields. bodyPrefix limits how many runes of
// the body are hashed; zero or less hashes the whole body.
func NewKeyer(fields []string, bodyPrefix int) (*Keyer, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrUnknownField)
	}
	for _, f := range fields {
		if !ValidField(f) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, f)
		}
	}
	return &Keyer{fields: append([]string(nil), fields...), bodyPrefix: bodyPrefix}, nil
}

// Key returns the deterministic key of item.
func (k *Keyer) Key(item model.Item) string {
	parts := make([]string, len(k.fields))
	for i, f := range k.fields {
		parts[i] = k.value(item, f)
	}
	return Hash(parts...)
}

func (k *Keyer) value(item model.Item, field string) string {
	if field == "body" {
		return prefix(item.Body, k.bodyPrefix)
	}
	if get, ok := itemFields[field]; ok {
		return get(item)
	}
	return item.Meta(strings.TrimPrefix(field, metaPrefix))
}

// Hash returns the hex SHA-256 digest of parts, each prefixed with its
// length so that no two distinct part lists share an encoding.
func Hash(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s", len(p), p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func prefix(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
