package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/intel-sieve/internal/dedup"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/Veraticus/intel-sieve/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type failingSource struct{}

func (failingSource) Name() string { return "broken" }

func (failingSource) Fetch(context.Context) ([]model.Item, error) {
	return nil, errors.New("boom")
}

func TestCollect_SkipsFailingSources(t *testing.T) {
	items, err := Collect(context.Background(),
		NewStatic("a", []model.Item{{Body: "one"}}),
		failingSource{},
		NewStatic("b", []model.Item{{Body: "two"}}),
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: boom")
	require.Len(t, items, 2)
	assert.Equal(t, "two", items[1].Body)
}

func TestSamplesAndMocks(t *testing.T) {
	samples, err := (&Samples{Now: func() time.Time { return fixedNow }}).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 4)
	for _, s := range samples {
		assert.True(t, s.Timestamp.IsZero())
		assert.Equal(t, fixedNow, s.CollectedAt)
		assert.Equal(t, model.KindMessage, s.Kind)
	}

	funding, err := (&MockFunding{Now: func() time.Time { return fixedNow }}).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, funding, 3)
	assert.Equal(t, "AutoAgent Labs", funding[0].Meta("company"))
	assert.Equal(t, "MiraclePlus", funding[0].Meta("investors"))
	assert.Equal(t, "2026-03-30", funding[2].Meta("date"))
	assert.Equal(t, fixedNow.AddDate(0, 0, -2).Truncate(24*time.Hour), funding[2].Timestamp)
}

func TestReadMessages(t *testing.T) {
	input := strings.Join([]string{
		`{"source":"KIG 头壳交流","author":"u1","content":"出售头壳","timestamp":"2026-04-01T10:30:00"}`,
		``,
		`{not json}`,
		`{"content":"no metadata","media_type":"photo","timestamp":"2026-04-01T10:30:00+08:00"}`,
		`{"content":"bad time","timestamp":"yesterday"}`,
	}, "\n")

	msgs, err := ReadMessages(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	loc := time.FixedZone("CST", 8*3600)
	first := msgs[0].Item(fixedNow, loc)
	assert.Equal(t, "KIG 头壳交流", first.Source)
	assert.Equal(t, time.Date(2026, 4, 1, 10, 30, 0, 0, loc), first.Timestamp)

	second := msgs[1].Item(fixedNow, loc)
	assert.Equal(t, "unknown", second.Source)
	assert.Equal(t, "unknown", second.Author)
	assert.Equal(t, "photo", second.Meta("media_type"))
	assert.True(t, second.Timestamp.Equal(time.Date(2026, 4, 1, 2, 30, 0, 0, time.UTC)))

	undated := msgs[2].Item(fixedNow, loc)
	assert.True(t, undated.Timestamp.IsZero())
	assert.Equal(t, fixedNow, undated.CollectedAt)
	assert.Equal(t, fixedNow, undated.Dated().Timestamp)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"source":"s","content":"hello"}`+"\n"), 0o600))

	f := &File{Path: path, Now: func() time.Time { return fixedNow }, Location: time.UTC}
	items, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "hello", items[0].Body)
	assert.True(t, items[0].Timestamp.IsZero())
	assert.Equal(t, fixedNow, items[0].CollectedAt)

	_, err = (&File{Path: filepath.Join(t.TempDir(), "missing.jsonl")}).Fetch(context.Background())
	require.Error(t, err)
}

func TestFile_UndatedLinesKeepTheirKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"source":"KIG 头壳交流","content":"出售 kigurumi 头壳"}`+"\n"), 0o600))

	keyer, err := dedup.NewKeyer([]string{"source", "body", "timestamp"}, 0)
	require.NoError(t, err)

	fetch := func(now time.Time) string {
		f := &File{Path: path, Now: func() time.Time { return now }, Location: time.UTC}
		items, err := f.Fetch(context.Background())
		require.NoError(t, err)
		require.Len(t, items, 1)
		return keyer.Key(items[0])
	}

	assert.Equal(t, fetch(fixedNow), fetch(fixedNow.Add(time.Hour)))
}

type fakeUpdates struct {
	updates []tgbotapi.Update
	err     error
	offsets []int
}

func (f *fakeUpdates) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.offsets = append(f.offsets, cfg.Offset)
	if f.err != nil {
		return nil, f.err
	}
	var out []tgbotapi.Update
	for _, u := range f.updates {
		if u.UpdateID >= cfg.Offset {
			out = append(out, u)
		}
	}
	return out, nil
}

func TestTelegramSource(t *testing.T) {
	channel := &tgbotapi.Chat{ID: -100, Type: "channel", Title: "Kigurumi World", UserName: "kigworld"}
	group := &tgbotapi.Chat{ID: -200, Type: "supergroup", Title: "Other Group"}
	date := int(fixedNow.Unix())

	api := &fakeUpdates{updates: []tgbotapi.Update{
		{UpdateID: 10, ChannelPost: &tgbotapi.Message{MessageID: 1, Chat: channel, Date: date, Text: "New Dollkii mask", AuthorSignature: "admin"}},
		{UpdateID: 11, Message: &tgbotapi.Message{MessageID: 2, Chat: group, Date: date, Text: "ignored chat", From: &tgbotapi.User{UserName: "x"}}},
		{UpdateID: 12, ChannelPost: &tgbotapi.Message{MessageID: 3, Chat: channel, Date: date, Caption: "photo caption"}},
		{UpdateID: 13, ChannelPost: &tgbotapi.Message{MessageID: 4, Chat: channel, Date: date}},
	}}
	src := NewTelegramSourceWithAPI(api, TelegramConfig{Chats: []string{"@kigworld"}})

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "-100:1", items[0].ID)
	assert.Equal(t, "Kigurumi World", items[0].Source)
	assert.Equal(t, "channel", items[0].SourceType)
	assert.Equal(t, "admin", items[0].Author)
	assert.Equal(t, "https://t.me/kigworld/1", items[0].URL)
	assert.True(t, items[0].Timestamp.Equal(fixedNow))
	assert.Equal(t, "photo caption", items[1].Body)
	assert.Equal(t, 14, src.Offset())

	items, err = src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, []int{0, 14}, api.offsets)
}

func TestTelegramSource_Error(t *testing.T) {
	api := &fakeUpdates{err: errors.New("network down")}
	src := NewTelegramSourceWithAPI(api, TelegramConfig{
		Retry: service.RetryOptions{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
	})

	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.Len(t, api.offsets, 2)
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		header string
		want   time.Duration
	}{
		{header: "", want: 0},
		{header: "7", want: 7 * time.Second},
		{header: " 2 ", want: 2 * time.Second},
		{header: "-1", want: 0},
		{header: "Wed, 21 Oct 2026 07:28:00 GMT", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, retryAfter(tt.header))
		})
	}
}
