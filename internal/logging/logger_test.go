package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCtxAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	defer Init(Config{Level: "info", Format: "console"})

	ctx := ContextWithRequestID(context.Background(), "req-42")
	Ctx(ctx).Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-42"`) {
		t.Errorf("expected request_id in output, got %s", out)
	}
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("expected message in output, got %s", out)
	}
}

func TestRequestIDFromEmptyContext(t *testing.T) {
	if id := RequestIDFromContext(context.Background()); id != "" {
		t.Errorf("expected empty id, got %q", id)
	}
	if NewRequestID() == NewRequestID() {
		t.Error("expected distinct request ids")
	}
}
