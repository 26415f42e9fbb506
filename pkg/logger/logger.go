package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Loggers struct {
	InfoLogger  *slog.Logger
	ErrorLogger *slog.Logger
}

func SetupLogger(level string) (*Loggers, error) {
	return newLoggers(level, os.Stdout, os.Stderr)
}

// Discard returns loggers that drop everything, for tests.
func Discard() *Loggers {
	l, _ := newLoggers("error", io.Discard, io.Discard)
	return l
}

func newLoggers(level string, infoOut, errOut io.Writer) (*Loggers, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}

	return &Loggers{
		InfoLogger:  slog.New(slog.NewJSONHandler(infoOut, opts)),
		ErrorLogger: slog.New(slog.NewJSONHandler(errOut, &slog.HandlerOptions{Level: slog.LevelError, AddSource: true})),
	}, nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
