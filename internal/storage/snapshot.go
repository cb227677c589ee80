package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Snapshot errors.
var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrSnapshotExists   = errors.New("snapshot already exists")
	ErrInvalidSnapshot  = errors.New("invalid snapshot tag")
)

// SnapshotInfo describes one snapshot of the database.
type SnapshotInfo struct {
	CreatedAt     time.Time      `json:"created_at"`
	RowCounts     map[string]int `json:"row_counts"`
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	FileSize      int64          `json:"file_size"`
	SchemaVersion int            `json:"schema_version"`
}

// SnapshotManager copies the database into <db dir>/snapshots and back.
type SnapshotManager struct {
	db      *sql.DB
	now     func() time.Time
	dbPath  string
	dir     string
	version func(context.Context) (int, error)
}

// NewSnapshotManager returns a manager for this database. In-memory
// databases cannot be snapshotted.
func (s *SQLiteStorage) NewSnapshotManager() (*SnapshotManager, error) {
	if s.dbPath == ":memory:" {
		return nil, errors.New("in-memory databases cannot be snapshotted")
	}
	abs, err := filepath.Abs(s.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}
	dir := filepath.Join(filepath.Dir(abs), "snapshots")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create snapshots directory: %w", err)
	}
	return &SnapshotManager{
		db:      s.db,
		now:     time.Now,
		dbPath:  abs,
		dir:     dir,
		version: s.SchemaVersion,
	}, nil
}

func validTag(tag string) error {
	if tag == "" || strings.ContainsAny(tag, `/\'";`) || strings.Contains(tag, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidSnapshot, tag)
	}
	return nil
}

func (m *SnapshotManager) paths(tag string) (string, string) {
	return filepath.Join(m.dir, tag+".db"), filepath.Join(m.dir, tag+".meta.json")
}

// Create writes a consistent copy of the database. An empty tag is derived
// from the current time.
func (m *SnapshotManager) Create(ctx context.Context, tag, description string) (*SnapshotInfo, error) {
	if tag == "" {
		tag = "snapshot-" + m.now().Format("2006-01-02-150405")
	}
	if err := validTag(tag); err != nil {
		return nil, err
	}
	dbFile, metaFile := m.paths(tag)
	if _, err := os.Stat(dbFile); err == nil {
		return nil, ErrSnapshotExists
	}

	version, err := m.version(ctx)
	if err != nil {
		return nil, err
	}
	counts := m.rowCounts(ctx)

	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	// #nosec G201 - tag and directory contain no quotes, see validTag
	if _, err := m.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", dbFile)); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	stat, err := os.Stat(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	info := &SnapshotInfo{
		CreatedAt:     m.now(),
		RowCounts:     counts,
		ID:            tag,
		Description:   description,
		FileSize:      stat.Size(),
		SchemaVersion: version,
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot metadata: %w", err)
	}
	if err := os.WriteFile(metaFile, data, 0o600); err != nil {
		if rmErr := os.Remove(dbFile); rmErr != nil {
			slog.Error("Failed to remove snapshot after metadata failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to write snapshot metadata: %w", err)
	}

	slog.Info("Snapshot created", "id", tag, "size", info.FileSize)
	return info, nil
}

func (m *SnapshotManager) rowCounts(ctx context.Context) map[string]int {
	queries := map[string]string{
		"items":               "SELECT COUNT(*) FROM items",
		"competitor_mentions": "SELECT COUNT(*) FROM competitor_mentions",
		"seen_keys":           "SELECT COUNT(*) FROM seen_keys",
		"runs":                "SELECT COUNT(*) FROM runs",
	}
	counts := make(map[string]int, len(queries))
	for table, query := range queries {
		var n int
		if err := m.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			slog.Debug("Row count unavailable", "table", table, "error", err)
		}
		counts[table] = n
	}
	return counts
}

// List returns all snapshots, newest first. Unreadable metadata is skipped.
func (m *SnapshotManager) List(_ context.Context) ([]SnapshotInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshots directory: %w", err)
	}

	var snapshots []SnapshotInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		info, err := m.load(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			slog.Warn("Skipping unreadable snapshot metadata", "file", entry.Name(), "error", err)
			continue
		}
		snapshots = append(snapshots, *info)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})
	return snapshots, nil
}

func (m *SnapshotManager) load(path string) (*SnapshotInfo, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is inside the snapshots directory
	if err != nil {
		return nil, err
	}
	var info SnapshotInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Delete removes a snapshot and its metadata.
func (m *SnapshotManager) Delete(_ context.Context, tag string) error {
	if err := validTag(tag); err != nil {
		return err
	}
	dbFile, metaFile := m.paths(tag)
	if err := os.Remove(dbFile); err != nil {
		if os.IsNotExist(err) {
			return ErrSnapshotNotFound
		}
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	if err := os.Remove(metaFile); err != nil && !os.IsNotExist(err) {
		slog.Debug("Failed to remove snapshot metadata", "error", err, "path", metaFile)
	}
	return nil
}

// Restore replaces the database file with a snapshot. It closes the
// database connection; the storage must be reopened afterwards.
func (m *SnapshotManager) Restore(ctx context.Context, tag string) error {
	if err := validTag(tag); err != nil {
		return err
	}
	dbFile, _ := m.paths(tag)
	if _, err := os.Stat(dbFile); err != nil {
		if os.IsNotExist(err) {
			return ErrSnapshotNotFound
		}
		return fmt.Errorf("failed to access snapshot: %w", err)
	}

	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	if err := m.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	if err := copyFile(dbFile, m.dbPath); err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(m.dbPath + suffix); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove stale journal file", "path", m.dbPath+suffix, "error", err)
		}
	}

	slog.Info("Snapshot restored", "id", tag)
	return nil
}

// copyFile copies src over dst through a temporary file and a rename.
func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // src is inside the snapshots directory
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp) //nolint:gosec // dst is the configured database path
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
