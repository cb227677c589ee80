// Package storage provides the data persistence layer for the sieve application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/intel-sieve/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrInvalidItem      = errors.New("invalid item")
	ErrInvalidMention   = errors.New("invalid competitor mention")
	ErrInvalidRun       = errors.New("invalid run")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateItem validates a scored item before insertion.
func validateItem(s *model.ScoredItem) error {
	if strings.TrimSpace(s.Result.DedupKey) == "" {
		return fmt.Errorf("%w: missing dedup key", ErrInvalidItem)
	}
	if strings.TrimSpace(s.Item.Kind) == "" {
		return fmt.Errorf("%w: missing kind", ErrInvalidItem)
	}
	if strings.TrimSpace(s.Item.Source) == "" {
		return fmt.Errorf("%w: missing source", ErrInvalidItem)
	}
	if s.Item.Body == "" && s.Item.Title == "" {
		return fmt.Errorf("%w: missing text", ErrInvalidItem)
	}
	if s.Result.ContentType == "" || s.Result.Sentiment == "" {
		return fmt.Errorf("%w: item has not been classified", ErrInvalidItem)
	}
	if s.Result.Score < 0 {
		return fmt.Errorf("%w: negative score", ErrInvalidItem)
	}
	return nil
}

// validateMention validates a competitor mention.
func validateMention(m *model.CompetitorMention) error {
	if strings.TrimSpace(m.ItemKey) == "" {
		return fmt.Errorf("%w: missing item key", ErrInvalidMention)
	}
	if strings.TrimSpace(m.Brand) == "" {
		return fmt.Errorf("%w: missing brand", ErrInvalidMention)
	}
	return nil
}

// validateRun validates a run record.
func validateRun(r *model.Run) error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRun)
	}
	if strings.TrimSpace(r.Monitor) == "" {
		return fmt.Errorf("%w: missing monitor", ErrInvalidRun)
	}
	if r.FinishedAt.Before(r.StartedAt) {
		return fmt.Errorf("%w: finished before it started", ErrInvalidRun)
	}
	return nil
}
