package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/intel-sieve/internal/common"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/service"
)

const itemColumns = `dedup_key, kind, item_id, source, source_type, author, title, body, url,
	tags, metadata, published_at, score, categories, keywords, hashtags, urls,
	content_type, sentiment`

// SaveItem inserts a scored item. It reports false when an item with the same
// dedup key is already stored.
func (s *SQLiteStorage) SaveItem(ctx context.Context, monitor string, item model.ScoredItem) (bool, error) {
	return s.SaveItemWithMentions(ctx, monitor, item, nil)
}

// SaveItemWithMentions inserts a scored item and its competitor mentions in
// one transaction. Mentions are only written when the item itself is new.
func (s *SQLiteStorage) SaveItemWithMentions(ctx context.Context, monitor string, item model.ScoredItem, mentions []model.CompetitorMention) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(monitor, "monitor"); err != nil {
		return false, err
	}
	if err := validateItem(&item); err != nil {
		return false, err
	}
	for i := range mentions {
		if err := validateMention(&mentions[i]); err != nil {
			return false, fmt.Errorf("mention at index %d: %w", i, err)
		}
	}

	var inserted bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		inserted, err = s.saveItemTx(ctx, tx, monitor, item)
		if err != nil || !inserted {
			return err
		}
		return s.saveMentionsTx(ctx, tx, mentions)
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (s *SQLiteStorage) saveItemTx(ctx context.Context, tx *sql.Tx, monitor string, item model.ScoredItem) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO items (monitor, `+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		monitor,
		item.Result.DedupKey,
		item.Item.Kind,
		item.Item.ID,
		item.Item.Source,
		item.Item.SourceType,
		item.Item.Author,
		item.Item.Title,
		item.Item.Body,
		item.Item.URL,
		encodeJSON(item.Item.Tags),
		encodeJSON(item.Item.Metadata),
		item.Item.Timestamp.UTC(),
		item.Result.Score,
		encodeJSON(item.Result.MatchedCategories),
		encodeJSON(item.Result.MatchedKeywords),
		encodeJSON(item.Result.Hashtags),
		encodeJSON(item.Result.URLs),
		item.Result.ContentType,
		string(item.Result.Sentiment),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert item %s: %w", item.Result.DedupKey, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// GetItems returns stored items matching filter, newest first.
func (s *SQLiteStorage) GetItems(ctx context.Context, filter service.ItemFilter) ([]model.ScoredItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	where, args, err := buildItemFilter(filter)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + itemColumns + ` FROM items` + where + ` ORDER BY published_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.ScoredItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

// GetItemByKey returns the item stored under a dedup key.
func (s *SQLiteStorage) GetItemByKey(ctx context.Context, key string) (*model.ScoredItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(key, "key"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE dedup_key = ?`, key)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", key, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CountItems counts stored items matching filter. Limit is ignored.
func (s *SQLiteStorage) CountItems(ctx context.Context, filter service.ItemFilter) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	where, args, err := buildItemFilter(filter)
	if err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

func buildItemFilter(f service.ItemFilter) (string, []any, error) {
	if !f.Since.IsZero() && !f.Until.IsZero() && f.Until.Before(f.Since) {
		return "", nil, fmt.Errorf("%w: until %v is before since %v", ErrInvalidDateRange, f.Until, f.Since)
	}

	var clauses []string
	var args []any
	if f.Monitor != "" {
		clauses = append(clauses, "monitor = ?")
		args = append(args, f.Monitor)
	}
	if f.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.ContentType != "" {
		clauses = append(clauses, "content_type = ?")
		args = append(args, f.ContentType)
	}
	if !f.Since.IsZero() {
		clauses = append(clauses, "published_at >= ?")
		args = append(args, f.Since.UTC())
	}
	if !f.Until.IsZero() {
		clauses = append(clauses, "published_at < ?")
		args = append(args, f.Until.UTC())
	}

	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (model.ScoredItem, error) {
	var (
		s                                  model.ScoredItem
		itemID, sourceType, author, title  sql.NullString
		link, tags, metadata               sql.NullString
		categories, keywords, hashtags, us sql.NullString
		sentiment                          string
		published                          time.Time
	)

	err := row.Scan(
		&s.Result.DedupKey,
		&s.Item.Kind,
		&itemID,
		&s.Item.Source,
		&sourceType,
		&author,
		&title,
		&s.Item.Body,
		&link,
		&tags,
		&metadata,
		&published,
		&s.Result.Score,
		&categories,
		&keywords,
		&hashtags,
		&us,
		&s.Result.ContentType,
		&sentiment,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s, err
		}
		return s, fmt.Errorf("failed to scan item: %w", err)
	}

	s.Item.ID = itemID.String
	s.Item.SourceType = sourceType.String
	s.Item.Author = author.String
	s.Item.Title = title.String
	s.Item.URL = link.String
	s.Item.Timestamp = published.UTC()
	s.Result.Sentiment = model.Sentiment(sentiment)

	decodeJSON(tags, &s.Item.Tags)
	decodeJSON(metadata, &s.Item.Metadata)
	decodeJSON(categories, &s.Result.MatchedCategories)
	decodeJSON(keywords, &s.Result.MatchedKeywords)
	decodeJSON(hashtags, &s.Result.Hashtags)
	decodeJSON(us, &s.Result.URLs)

	return s, nil
}

// encodeJSON returns the JSON form of v, or nil for empty values.
func encodeJSON[T any](v T) any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	switch string(data) {
	case "null", "[]", "{}":
		return nil
	}
	return string(data)
}

func decodeJSON(src sql.NullString, dst any) {
	if !src.Valid || src.String == "" {
		return
	}
	_ = json.Unmarshal([]byte(src.String), dst)
}
