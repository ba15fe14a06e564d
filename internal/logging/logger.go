package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Options controls logger construction.
type Options struct {
	// Level sets the minimum enabled level ("debug", "info", "warn", "error").
	Level string
	// Format selects the handler: "console" or "json".
	Format string
	// OutputPaths lists destinations for log output. "stdout" and "stderr"
	// are recognized; anything else is treated as a file path.
	OutputPaths []string
	// ErrorOutputPaths lists destinations for internal logging errors.
	ErrorOutputPaths []string
	// ForceColor enables ANSI color even when stdout is not a terminal.
	ForceColor bool
	// DisableColor suppresses ANSI color unconditionally.
	DisableColor bool
}

// New builds a slog.Logger from the supplied options.
func New(opts Options) (*slog.Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	outputs := defaultSlice(opts.OutputPaths, []string{"stdout"})
	writer, err := openWriters(outputs)
	if err != nil {
		return nil, err
	}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		handler = newConsoleHandler(writer, level, consoleColorMode(opts))
	case "json":
		handler = newJSONHandler(writer, level)
	default:
		return nil, fmt.Errorf("unsupported log format %q", opts.Format)
	}

	return slog.New(handler), nil
}

// LogConfig carries the logging settings the daemon and CLI read from the
// configuration file. Defined here so config does not import logging.
type LogConfig struct {
	Level   string
	Format  string
	LogDir  string
	LogFile string
}

// NewFromConfig builds the daemon logger: console output on stdout plus a
// JSON-formatted log file under the configured log directory.
func NewFromConfig(cfg LogConfig) (*slog.Logger, error) {
	outputs := []string{"stdout"}
	if dir := strings.TrimSpace(cfg.LogDir); dir != "" {
		name := strings.TrimSpace(cfg.LogFile)
		if name == "" {
			name = "ytpub.log"
		}
		path := filepath.Join(dir, name)
		if err := ensureLogDir(path); err != nil {
			return nil, err
		}
		outputs = append(outputs, path)
	}
	return New(Options{
		Level:       cfg.Level,
		Format:      cfg.Format,
		OutputPaths: outputs,
	})
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
}

func defaultSlice(values, fallback []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value != "" {
			cleaned = append(cleaned, value)
		}
	}
	if len(cleaned) == 0 {
		return fallback
	}
	return cleaned
}

func openWriters(paths []string) (io.Writer, error) {
	writers := make([]io.Writer, 0, len(paths))
	for _, path := range paths {
		switch path {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if err := ensureLogDir(path); err != nil {
				return nil, err
			}
			file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", path, err)
			}
			writers = append(writers, file)
		}
	}
	if len(writers) == 1 {
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log directory %s: %w", dir, err)
	}
	return nil
}

func newJSONHandler(writer io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if t, ok := attr.Value.Any().(time.Time); ok {
					attr.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
				}
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.MessageKey:
				attr.Key = "msg"
			}
			return attr
		},
	})
}
