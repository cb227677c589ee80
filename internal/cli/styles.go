// Package cli renders terminal output for the sieve commands: styled status
// lines, tables of runs, items and counts, and fetch progress.
package cli

import (
	"github.com/Veraticus/intel-sieve/internal/aggregate"
	"github.com/Veraticus/intel-sieve/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	PrimaryColor = lipgloss.Color("#7AA2F7")
	SuccessColor = lipgloss.Color("#4ECDC4")
	WarningColor = lipgloss.Color("#FFE66D")
	ErrorColor   = lipgloss.Color("#FF6B6B")
	InfoColor    = lipgloss.Color("#95E1D3")
	SubtleColor  = lipgloss.Color("#666666")
)

var (
	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor).MarginBottom(1)
	// BoxStyle frames per-cycle summaries.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(0, 2)

	successStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	warningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	errorStyle   = lipgloss.NewStyle().Foreground(ErrorColor)
	infoStyle    = lipgloss.NewStyle().Foreground(InfoColor)
	subtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)

	bandStyles = map[aggregate.Band]lipgloss.Style{
		aggregate.BandP0: lipgloss.NewStyle().Bold(true).Foreground(ErrorColor),
		aggregate.BandP1: lipgloss.NewStyle().Foreground(WarningColor),
		aggregate.BandP2: lipgloss.NewStyle().Foreground(InfoColor),
	}

	sentimentStyles = map[model.Sentiment]lipgloss.Style{
		model.SentimentPositive: successStyle,
		model.SentimentNegative: errorStyle,
		model.SentimentNeutral:  subtleStyle,
	}
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	SieveIcon   = "🔎"
	ChartIcon   = "📊"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return successStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return errorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return warningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return infoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the sieve icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(SieveIcon + " " + title)
}

// FormatSubtle dims text.
func FormatSubtle(text string) string {
	return subtleStyle.Render(text)
}

// FormatBand renders the priority band of score, or "-" below every band.
func FormatBand(score float64) string {
	band := aggregate.PriorityBand(score)
	style, ok := bandStyles[band]
	if !ok {
		return subtleStyle.Render("-")
	}
	return style.Render(string(band))
}

// FormatSentiment colours a sentiment value.
func FormatSentiment(s model.Sentiment) string {
	if style, ok := sentimentStyles[s]; ok {
		return style.Render(string(s))
	}
	return string(s)
}

// RenderBox renders content under a title inside a rounded border.
func RenderBox(title, content string) string {
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, TitleStyle.UnsetMargins().Render(title), content))
}
