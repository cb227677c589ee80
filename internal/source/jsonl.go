package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/intel-sieve/internal/model"
)

// RawMessage is one line of a message export.
type RawMessage struct {
	Metadata   map[string]string `json:"metadata,omitempty"`
	ID         string            `json:"id,omitempty"`
	Source     string            `json:"source"`
	SourceType string            `json:"source_type,omitempty"`
	Author     string            `json:"author,omitempty"`
	Title      string            `json:"title,omitempty"`
	Content    string            `json:"content"`
	URL        string            `json:"url,omitempty"`
	Timestamp  string            `json:"timestamp,omitempty"`
	MediaType  string            `json:"media_type,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	model.DateLayout,
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// Item converts the message collected at now. Missing or unparseable
// timestamps leave Timestamp zero; timestamps without a zone are read in loc.
func (m RawMessage) Item(now time.Time, loc *time.Location) model.Item {
	var ts time.Time
	if m.Timestamp != "" {
		if t, err := parseTimestamp(m.Timestamp, loc); err == nil {
			ts = t
		}
	}
	source := m.Source
	if source == "" {
		source = "unknown"
	}
	author := m.Author
	if author == "" {
		author = "unknown"
	}

	meta := m.Metadata
	if m.MediaType != "" {
		meta = make(map[string]string, len(m.Metadata)+1)
		for k, v := range m.Metadata {
			meta[k] = v
		}
		meta["media_type"] = m.MediaType
	}

	return model.Item{
		ID:          m.ID,
		Kind:        model.KindMessage,
		Source:      source,
		SourceType:  m.SourceType,
		Author:      author,
		Title:       m.Title,
		Body:        m.Content,
		URL:         m.URL,
		Tags:        m.Tags,
		Metadata:    meta,
		Timestamp:   ts,
		CollectedAt: now,
	}
}

// ReadMessages decodes a JSON Lines stream. Blank lines are ignored and
// malformed lines are logged and skipped.
func ReadMessages(r io.Reader) ([]RawMessage, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)

	var (
		messages []RawMessage
		line     int
	)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var m RawMessage
		if err := json.Unmarshal([]byte(text), &m); err != nil {
			slog.Warn("Skipping malformed message line", "line", line, "error", err)
			continue
		}
		messages = append(messages, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}

// File reads messages from a JSON Lines file on every fetch.
type File struct {
	Now      func() time.Time
	Location *time.Location
	Path     string
}

// Name implements Source.
func (f *File) Name() string { return "file:" + f.Path }

// Fetch implements Source.
func (f *File) Fetch(ctx context.Context) ([]model.Item, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open message file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	messages, err := ReadMessages(file)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if f.Now != nil {
		now = f.Now()
	}
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}

	items := make([]model.Item, 0, len(messages))
	for _, m := range messages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items = append(items, m.Item(now, loc))
	}
	return items, nil
}
