package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// MaxValueLen is the number of runes kept from a long string value.
const MaxValueLen = 256

// Ellipsis marks a shortened value.
const Ellipsis = "…"

// ElideHandler wraps an slog.Handler and shortens long attribute values
// before passing records on. Group attributes are handled recursively.
type ElideHandler struct {
	// handler receives the shortened records.
	handler slog.Handler
}

// NewElideHandler creates a new ElideHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewElideHandler(handler slog.Handler) *ElideHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &ElideHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *ElideHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle shortens the record's attributes and passes it on.
func (h *ElideHandler) Handle(ctx context.Context, r slog.Record) error {
	elided := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		elided.AddAttrs(elideAttr(a))
		return true
	})
	return h.handler.Handle(ctx, elided)
}

// WithAttrs returns a new handler with the given attributes shortened and
// added.
func (h *ElideHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	elided := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		elided[i] = elideAttr(a)
	}
	return &ElideHandler{handler: h.handler.WithAttrs(elided)}
}

// WithGroup returns a new handler with the given group name.
func (h *ElideHandler) WithGroup(name string) slog.Handler {
	return &ElideHandler{handler: h.handler.WithGroup(name)}
}

// elideAttr shortens a single attribute.
func elideAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		elided := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			elided[i] = elideAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(elided...)}
	case slog.KindString:
		return slog.String(a.Key, Elide(a.Value.String()))
	default:
		return a
	}
}

// Elide returns s shortened for logging. A data: URI is reduced to its
// header and payload size; other strings are cut after MaxValueLen runes.
func Elide(s string) string {
	if isDataURI(s) {
		header, payload, ok := strings.Cut(s, ",")
		if !ok {
			return s
		}
		return fmt.Sprintf("%s,%s(%d bytes)", header, Ellipsis, len(payload))
	}
	if utf8.RuneCountInString(s) <= MaxValueLen {
		return s
	}
	runes := []rune(s)
	return fmt.Sprintf("%s%s(+%d)", string(runes[:MaxValueLen]), Ellipsis, len(runes)-MaxValueLen)
}

// isDataURI reports whether s starts with the data: scheme.
func isDataURI(s string) bool {
	return len(s) >= 5 && strings.EqualFold(s[:5], "data:")
}

// level returns the minimum level for the verbose flag.
func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewLogger creates a text slog.Logger that shortens long values.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level(verbose)}
	return slog.New(NewElideHandler(slog.NewTextHandler(w, opts)))
}

// NewJSONLogger is NewLogger with JSON output, for the server.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level(verbose)}
	return slog.New(NewElideHandler(slog.NewJSONHandler(w, opts)))
}
