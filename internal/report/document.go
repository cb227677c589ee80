// Package report renders monitor results as Markdown documents with JSON
// companions.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is a rendered report.
type Document interface {
	// Name is the file name without extension, e.g. "arxiv-2026-04-01".
	Name() string
	// Markdown renders the human-readable report.
	Markdown() string
}

// Files lists the paths written for one document.
type Files struct {
	Markdown string
	JSON     string
}

// Write stores doc as <dir>/<name>.md and, when withJSON is set, the document
// itself encoded as <dir>/<name>.json.
func Write(dir string, doc Document, withJSON bool) (Files, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return Files{}, fmt.Errorf("failed to create report directory: %w", err)
	}

	var files Files
	files.Markdown = filepath.Join(dir, doc.Name()+".md")
	if err := os.WriteFile(files.Markdown, []byte(doc.Markdown()), 0o600); err != nil {
		return Files{}, fmt.Errorf("failed to write markdown report: %w", err)
	}

	if !withJSON {
		return files, nil
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Files{}, fmt.Errorf("failed to encode report: %w", err)
	}
	files.JSON = filepath.Join(dir, doc.Name()+".json")
	if err := os.WriteFile(files.JSON, append(data, '\n'), 0o600); err != nil {
		return Files{}, fmt.Errorf("failed to write json report: %w", err)
	}
	return files, nil
}

// table renders a Markdown table.
func table(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "------"
	}
	b.WriteString("|" + strings.Join(sep, "|") + "|\n")
	for _, row := range rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
}

// truncate shortens s to at most n runes, suffix included.
func truncate(s string, n int, suffix string) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	keep := n - len([]rune(suffix))
	if keep < 0 {
		keep = 0
	}
	return string(r[:keep]) + suffix
}

// clip cuts s to n runes and always appends suffix.
func clip(s string, n int, suffix string) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r) + suffix
}

func formatScore(score float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", score), "0"), ".")
}
