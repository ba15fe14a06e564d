package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiDim    = "\x1b[2m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiCyan   = "\x1b[36m"
)

// consoleHandler renders human-oriented log lines:
//
//	15:04:05 INFO  [uploader] upload completed video_id=abc123
//
// Attributes accumulated via WithAttrs are flattened into the trailing
// key=value list. The component attribute is promoted into the bracketed
// prefix instead of appearing in the list.
type consoleHandler struct {
	mu     *sync.Mutex
	writer io.Writer
	level  slog.Level
	color  bool
	attrs  []slog.Attr
	groups []string
}

func newConsoleHandler(writer io.Writer, level slog.Level, color bool) slog.Handler {
	return &consoleHandler{
		mu:     &sync.Mutex{},
		writer: writer,
		level:  level,
		color:  color,
	}
}

func consoleColorMode(opts Options) bool {
	if opts.DisableColor {
		return false
	}
	if opts.ForceColor {
		return true
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := h.clone()
	clone.attrs = append(clone.attrs, prefixAttrs(h.groups, attrs)...)
	return clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *consoleHandler) clone() *consoleHandler {
	return &consoleHandler{
		mu:     h.mu,
		writer: h.writer,
		level:  h.level,
		color:  h.color,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := make(map[string]string, record.NumAttrs()+len(h.attrs))
	for _, attr := range h.attrs {
		collectAttr(fields, "", attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		collectAttr(fields, strings.Join(h.groups, "."), attr)
		return true
	})

	component := fields[FieldComponent]
	delete(fields, FieldComponent)

	var builder strings.Builder
	builder.WriteString(h.dim(record.Time.UTC().Format("15:04:05")))
	builder.WriteByte(' ')
	builder.WriteString(h.levelLabel(record.Level))
	builder.WriteByte(' ')
	if component != "" {
		builder.WriteString(h.paint(ansiCyan, "["+component+"]"))
		builder.WriteByte(' ')
	}
	builder.WriteString(record.Message)

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		builder.WriteByte(' ')
		builder.WriteString(h.dim(key + "="))
		builder.WriteString(fields[key])
	}
	builder.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, builder.String())
	return err
}

func (h *consoleHandler) levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return h.paint(ansiRed, "ERROR")
	case level >= slog.LevelWarn:
		return h.paint(ansiYellow, "WARN ")
	case level >= slog.LevelInfo:
		return h.paint(ansiBlue, "INFO ")
	default:
		return h.dim("DEBUG")
	}
}

func (h *consoleHandler) paint(code, text string) string {
	if !h.color {
		return text
	}
	return code + text + ansiReset
}

func (h *consoleHandler) dim(text string) string {
	return h.paint(ansiDim, text)
}

func prefixAttrs(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(groups) == 0 {
		return attrs
	}
	prefix := strings.Join(groups, ".")
	prefixed := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		attr.Key = prefix + "." + attr.Key
		prefixed = append(prefixed, attr)
	}
	return prefixed
}

func collectAttr(fields map[string]string, prefix string, attr slog.Attr) {
	value := attr.Value.Resolve()
	key := attr.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	}
	if value.Kind() == slog.KindGroup {
		groupPrefix := key
		if attr.Key == "" {
			groupPrefix = prefix
		}
		for _, nested := range value.Group() {
			collectAttr(fields, groupPrefix, nested)
		}
		return
	}
	if key == "" {
		return
	}
	fields[key] = formatValue(value)
}

func formatValue(value slog.Value) string {
	switch value.Kind() {
	case slog.KindString:
		text := value.String()
		if strings.ContainsAny(text, " \t") {
			return fmt.Sprintf("%q", text)
		}
		return text
	case slog.KindTime:
		return value.Time().UTC().Format(time.RFC3339)
	case slog.KindDuration:
		return value.Duration().String()
	default:
		return value.String()
	}
}
