package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// FetchProgress draws a progress bar for paged downloads whose total is only
// known after the first page.
type FetchProgress struct {
	writer      io.Writer
	bar         *progressbar.ProgressBar
	description string
}

// NewFetchProgress creates a progress reporter writing to w.
func NewFetchProgress(w io.Writer, description string) *FetchProgress {
	return &FetchProgress{writer: w, description: description}
}

// Update is suitable as an OnProgress callback.
func (p *FetchProgress) Update(fetched, total int) {
	if total <= 0 {
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan][bold]"+p.description+"[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				if _, err := fmt.Fprintln(p.writer); err != nil {
					slog.Warn("Failed to write newline after progress bar", "error", err)
				}
			}),
		)
	}
	if fetched > total {
		fetched = total
	}
	if err := p.bar.Set(fetched); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Finish completes the bar if one was started.
func (p *FetchProgress) Finish() {
	if p.bar == nil {
		return
	}
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
