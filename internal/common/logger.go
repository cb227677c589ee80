package common

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Log formats accepted by SetupLogger.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

const consoleTimeLayout = "15:04:05.000"

// NewLogHandler returns a handler writing to w. The console format is text
// with a short wall-clock time; json is one object per line.
func NewLogHandler(w io.Writer, level slog.Level, format string) (slog.Handler, error) {
	switch format {
	case LogFormatJSON:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}), nil
	case LogFormatConsole, "":
		return slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
					return slog.String(slog.TimeKey, a.Value.Time().Format(consoleTimeLayout))
				}
				return a
			},
		}), nil
	default:
		return nil, fmt.Errorf("%w: log format %q", ErrInvalidConfig, format)
	}
}

// SetupLogger installs the default logger on stderr.
func SetupLogger(level slog.Level, format string) error {
	handler, err := NewLogHandler(os.Stderr, level, format)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
