package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// TestElide tests value shortening.
func TestElide(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", MaxValueLen+10)
	payload := strings.Repeat("A", 4096)

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "short value is kept", value: "http://x/su57-001.jpg", want: "http://x/su57-001.jpg"},
		{name: "empty value", value: "", want: ""},
		{name: "exact limit is kept", value: long[:MaxValueLen], want: long[:MaxValueLen]},
		{name: "long value is cut", value: long, want: long[:MaxValueLen] + Ellipsis + "(+10)"},
		{
			name:  "data uri payload is dropped",
			value: "data:image/png;base64," + payload,
			want:  "data:image/png;base64," + Ellipsis + "(4096 bytes)",
		},
		{
			name:  "data uri scheme is case insensitive",
			value: "DATA:image/gif;base64,R0lG",
			want:  "DATA:image/gif;base64," + Ellipsis + "(4 bytes)",
		},
		{name: "data uri without comma", value: "data:broken", want: "data:broken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Elide(tt.value); got != tt.want {
				t.Errorf("Elide() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("counts runes not bytes", func(t *testing.T) {
		t.Parallel()
		s := strings.Repeat("图", MaxValueLen)
		if got := Elide(s); got != s {
			t.Error("expected multibyte value at the limit to be kept")
		}
	})
}

// TestElideHandler_LogLevels tests that the verbose flag controls the level.
func TestElideHandler_LogLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		verbose    bool
		level      slog.Level
		shouldShow bool
	}{
		{name: "debug hidden when not verbose", verbose: false, level: slog.LevelDebug, shouldShow: false},
		{name: "info hidden when not verbose", verbose: false, level: slog.LevelInfo, shouldShow: false},
		{name: "warn shown when not verbose", verbose: false, level: slog.LevelWarn, shouldShow: true},
		{name: "debug shown when verbose", verbose: true, level: slog.LevelDebug, shouldShow: true},
		{name: "error always shown", verbose: false, level: slog.LevelError, shouldShow: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.verbose)
			logger.Log(t.Context(), tt.level, "level message")

			hasMessage := strings.Contains(buf.String(), "level message")
			if tt.shouldShow != hasMessage {
				t.Errorf("expected shown=%v, got output: %s", tt.shouldShow, buf.String())
			}
		})
	}
}

// TestElideHandler_Attrs tests that every attribute path is shortened.
func TestElideHandler_Attrs(t *testing.T) {
	t.Parallel()

	dataURI := "data:image/jpeg;base64," + strings.Repeat("Z", 1000)

	t.Run("record attributes", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		NewLogger(&buf, true).Debug("annotated image", "src", dataURI, "id", "f16-001")
		out := buf.String()
		if strings.Contains(out, "ZZZZ") {
			t.Errorf("expected payload to be dropped: %s", out)
		}
		if !strings.Contains(out, "f16-001") {
			t.Errorf("expected short value to be kept: %s", out)
		}
	})

	t.Run("with attrs", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		NewLogger(&buf, true).With("src", dataURI).Info("test message")
		if strings.Contains(buf.String(), "ZZZZ") {
			t.Errorf("expected payload to be dropped: %s", buf.String())
		}
	})

	t.Run("groups", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		NewLogger(&buf, true).WithGroup("image").Info("test message",
			slog.Group("source", slog.String("url", dataURI)),
		)
		if strings.Contains(buf.String(), "ZZZZ") {
			t.Errorf("expected payload to be dropped: %s", buf.String())
		}
	})

	t.Run("non string values", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		NewLogger(&buf, true).Info("test message", "count", 42)
		if !strings.Contains(buf.String(), "count=42") {
			t.Errorf("expected integer to be kept: %s", buf.String())
		}
	})
}

// TestNewJSONLogger tests JSON logger creation.
func TestNewJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewJSONLogger(&buf, true).Info("test message", "src", "data:image/png;base64,AAAA")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %s: %v", buf.String(), err)
	}
	if entry["src"] != "data:image/png;base64,"+Ellipsis+"(4 bytes)" {
		t.Errorf("unexpected src %v", entry["src"])
	}
}

// TestNewElideHandler_NilHandler tests the nil fallback.
func TestNewElideHandler_NilHandler(t *testing.T) {
	t.Parallel()

	if h := NewElideHandler(nil); h.handler == nil {
		t.Error("expected default handler")
	}
}
