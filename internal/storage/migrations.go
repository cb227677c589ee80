package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS items (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					dedup_key TEXT UNIQUE NOT NULL,
					monitor TEXT NOT NULL,
					kind TEXT NOT NULL,
					item_id TEXT,
					source TEXT NOT NULL,
					source_type TEXT,
					author TEXT,
					title TEXT,
					body TEXT NOT NULL,
					url TEXT,
					tags TEXT,
					metadata TEXT,
					published_at DATETIME NOT NULL,
					score REAL NOT NULL DEFAULT 0,
					categories TEXT,
					keywords TEXT,
					hashtags TEXT,
					urls TEXT,
					content_type TEXT NOT NULL,
					sentiment TEXT NOT NULL,
					collected_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_items_published_at ON items(published_at)`,
				`CREATE INDEX idx_items_monitor ON items(monitor)`,
				`CREATE INDEX idx_items_content_type ON items(content_type)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Add seen key namespaces for deduplication",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS seen_keys (
					namespace TEXT NOT NULL,
					key TEXT NOT NULL,
					first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (namespace, key)
				)
			`)
			return err
		},
	},
	{
		Version:     3,
		Description: "Add competitor mentions",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS competitor_mentions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					item_key TEXT NOT NULL,
					brand TEXT NOT NULL,
					brand_group TEXT NOT NULL,
					context TEXT,
					source TEXT,
					sentiment TEXT NOT NULL,
					mentioned_at DATETIME NOT NULL,
					UNIQUE (item_key, brand)
				)`,
				`CREATE INDEX idx_competitor_mentions_mentioned_at ON competitor_mentions(mentioned_at)`,
			})
		},
	},
	{
		Version:     4,
		Description: "Add monitor run history",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					monitor TEXT NOT NULL,
					started_at DATETIME NOT NULL,
					finished_at DATETIME NOT NULL,
					fetched INTEGER NOT NULL DEFAULT 0,
					relevant INTEGER NOT NULL DEFAULT 0,
					admitted INTEGER NOT NULL DEFAULT 0,
					duplicates INTEGER NOT NULL DEFAULT 0,
					mentions INTEGER NOT NULL DEFAULT 0,
					error TEXT
				)`,
				`CREATE INDEX idx_runs_monitor_started ON runs(monitor, started_at)`,
			})
		},
	},
}

// SchemaVersion returns the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// MigrationStatus describes one known migration and whether it is applied.
type MigrationStatus struct {
	Description string
	Version     int
	Applied     bool
}

// MigrationStatuses reports every known migration against the database.
func (s *SQLiteStorage) MigrationStatuses(ctx context.Context) ([]MigrationStatus, error) {
	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}
	statuses := make([]MigrationStatus, 0, len(migrations))
	for _, m := range migrations {
		statuses = append(statuses, MigrationStatus{
			Description: m.Description,
			Version:     m.Version,
			Applied:     m.Version <= current,
		})
	}
	return statuses, nil
}
