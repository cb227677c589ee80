package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/intel-sieve/internal/model"
)

// SaveRun records a completed monitor cycle.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run model.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(&run); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, monitor, started_at, finished_at,
			fetched, relevant, admitted, duplicates, mentions, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Monitor,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
		run.Stats.Fetched,
		run.Stats.Relevant,
		run.Stats.Admitted,
		run.Stats.Duplicates,
		run.Stats.Mentions,
		sql.NullString{String: run.Error, Valid: run.Error != ""},
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// GetRuns returns the most recent runs, newest first. An empty monitor
// returns runs of every monitor.
func (s *SQLiteStorage) GetRuns(ctx context.Context, monitor string, limit int) ([]model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, monitor, started_at, finished_at,
			fetched, relevant, admitted, duplicates, mentions, error
		FROM runs
		WHERE (? = '' OR monitor = ?)
		ORDER BY started_at DESC
		LIMIT ?`,
		monitor, monitor, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.Run
	for rows.Next() {
		var (
			r      model.Run
			errMsg sql.NullString
		)
		if err := rows.Scan(
			&r.ID, &r.Monitor, &r.StartedAt, &r.FinishedAt,
			&r.Stats.Fetched, &r.Stats.Relevant, &r.Stats.Admitted,
			&r.Stats.Duplicates, &r.Stats.Mentions, &errMsg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Error = errMsg.String
		r.StartedAt = r.StartedAt.UTC()
		r.FinishedAt = r.FinishedAt.UTC()
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}
