package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/intel-sieve/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		str       string
		paramName string
		wantErr   bool
	}{
		{
			name:      "valid string",
			str:       "test",
			paramName: "param",
			wantErr:   false,
		},
		{
			name:      "empty string",
			str:       "",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "whitespace only",
			str:       "   ",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "string with spaces",
			str:       "  test  ",
			paramName: "param",
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.paramName) {
				t.Errorf("validateString() error should contain param name %s, got %v", tt.paramName, err)
			}
		})
	}
}

func validScored() model.ScoredItem {
	return model.ScoredItem{
		Item: model.Item{
			Kind:   model.KindMessage,
			Source: "KIG 头壳交流",
			Body:   "头壳出售",
		},
		Result: model.Result{
			DedupKey:    "abc123",
			ContentType: model.TypeSale,
			Sentiment:   model.SentimentNeutral,
			Score:       4,
		},
	}
}

func TestValidateItem(t *testing.T) {
	tests := []struct {
		mutate  func(*model.ScoredItem)
		name    string
		errMsg  string
		wantErr bool
	}{
		{
			name:   "valid item",
			mutate: func(*model.ScoredItem) {},
		},
		{
			name:    "missing dedup key",
			mutate:  func(s *model.ScoredItem) { s.Result.DedupKey = " " },
			wantErr: true,
			errMsg:  "missing dedup key",
		},
		{
			name:    "missing kind",
			mutate:  func(s *model.ScoredItem) { s.Item.Kind = "" },
			wantErr: true,
			errMsg:  "missing kind",
		},
		{
			name:    "missing source",
			mutate:  func(s *model.ScoredItem) { s.Item.Source = "" },
			wantErr: true,
			errMsg:  "missing source",
		},
		{
			name:    "missing text",
			mutate:  func(s *model.ScoredItem) { s.Item.Body = "" },
			wantErr: true,
			errMsg:  "missing text",
		},
		{
			name: "title only",
			mutate: func(s *model.ScoredItem) {
				s.Item.Body = ""
				s.Item.Title = "LLM Agents"
			},
		},
		{
			name:    "unclassified",
			mutate:  func(s *model.ScoredItem) { s.Result.Sentiment = "" },
			wantErr: true,
			errMsg:  "not been classified",
		},
		{
			name:    "negative score",
			mutate:  func(s *model.ScoredItem) { s.Result.Score = -1 },
			wantErr: true,
			errMsg:  "negative score",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validScored()
			tt.mutate(&s)
			err := validateItem(&s)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateItem() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateItem() error should contain %s, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestValidateMention(t *testing.T) {
	tests := []struct {
		name    string
		mention model.CompetitorMention
		wantErr bool
	}{
		{
			name:    "valid mention",
			mention: model.CompetitorMention{ItemKey: "abc", Brand: "Dollkii"},
		},
		{
			name:    "missing item key",
			mention: model.CompetitorMention{Brand: "Dollkii"},
			wantErr: true,
		},
		{
			name:    "missing brand",
			mention: model.CompetitorMention{ItemKey: "abc"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateMention(&tt.mention)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateMention() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRun(t *testing.T) {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		run     model.Run
		wantErr bool
	}{
		{
			name: "valid run",
			run:  model.Run{ID: "r1", Monitor: "arxiv", StartedAt: start, FinishedAt: start.Add(time.Minute)},
		},
		{
			name:    "missing ID",
			run:     model.Run{Monitor: "arxiv", StartedAt: start, FinishedAt: start},
			wantErr: true,
		},
		{
			name:    "missing monitor",
			run:     model.Run{ID: "r1", StartedAt: start, FinishedAt: start},
			wantErr: true,
		},
		{
			name:    "finished before start",
			run:     model.Run{ID: "r1", Monitor: "arxiv", StartedAt: start, FinishedAt: start.Add(-time.Second)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRun(&tt.run)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateRun() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
