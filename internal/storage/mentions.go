package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/intel-sieve/internal/model"
)

func (s *SQLiteStorage) saveMentionsTx(ctx context.Context, tx *sql.Tx, mentions []model.CompetitorMention) error {
	if len(mentions) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO competitor_mentions (
			item_key, brand, brand_group, context, source, sentiment, mentioned_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, m := range mentions {
		if _, err := stmt.ExecContext(ctx,
			m.ItemKey,
			m.Brand,
			m.Group,
			m.Context,
			m.Source,
			string(m.Sentiment),
			m.Timestamp.UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert mention of %s: %w", m.Brand, err)
		}
	}
	return nil
}

// GetMentions returns competitor mentions recorded at or after since, oldest first.
func (s *SQLiteStorage) GetMentions(ctx context.Context, since time.Time) ([]model.CompetitorMention, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_key, brand, brand_group, context, source, sentiment, mentioned_at
		FROM competitor_mentions
		WHERE mentioned_at >= ?
		ORDER BY mentioned_at, id
	`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query mentions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var mentions []model.CompetitorMention
	for rows.Next() {
		var (
			m               model.CompetitorMention
			snippet, source sql.NullString
			sentiment       string
		)
		if err := rows.Scan(&m.ItemKey, &m.Brand, &m.Group, &snippet, &source, &sentiment, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan mention: %w", err)
		}
		m.Context = snippet.String
		m.Source = source.String
		m.Sentiment = model.Sentiment(sentiment)
		m.Timestamp = m.Timestamp.UTC()
		mentions = append(mentions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mentions: %w", err)
	}
	return mentions, nil
}
