package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/intel-sieve/internal/dedup"
)

// SeenKeyStore is a dedup.KeyStore backed by the seen_keys table. Each
// namespace keeps an independent key set.
type SeenKeyStore struct {
	storage   *SQLiteStorage
	namespace string
}

// SeenKeys returns the key store for namespace.
func (s *SQLiteStorage) SeenKeys(namespace string) dedup.KeyStore {
	return &SeenKeyStore{storage: s, namespace: namespace}
}

// Seen implements dedup.KeyStore.
func (k *SeenKeyStore) Seen(ctx context.Context, key string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	var one int
	err := k.storage.db.QueryRowContext(ctx,
		`SELECT 1 FROM seen_keys WHERE namespace = ? AND key = ?`,
		k.namespace, key,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up seen key: %w", err)
	}
	return true, nil
}

// Mark implements dedup.KeyStore.
func (k *SeenKeyStore) Mark(ctx context.Context, key string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}

	_, err := k.storage.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO seen_keys (namespace, key) VALUES (?, ?)`,
		k.namespace, key,
	)
	if err != nil {
		return fmt.Errorf("failed to record seen key: %w", err)
	}
	return nil
}
