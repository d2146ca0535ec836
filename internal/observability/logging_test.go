package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newBufLogger(level string) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewLogger(LogConfig{Level: level, Format: "json", Output: buf}), buf
}

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log output is not JSON: %v\n%s", err, buf.String())
	}
	return rec
}

func TestLoggerLevels(t *testing.T) {
	logger, buf := newBufLogger("warn")
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	if buf.Len() != 0 {
		t.Errorf("records below warn should be dropped, got %q", buf.String())
	}

	logger.Warn(ctx, "warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Error("warn record missing")
	}
	logger.Error(ctx, "error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Error("error record missing")
	}
}

func TestLoggerContextCorrelation(t *testing.T) {
	logger, buf := newBufLogger("info")

	ctx := AddRequestID(context.Background(), "req-123")
	ctx = AddTeamID(ctx, "team-1")
	ctx = AddChatType(ctx, "leadership")

	logger.Info(ctx, "handled")

	rec := decodeRecord(t, buf)
	if rec["request_id"] != "req-123" {
		t.Errorf("request_id = %v", rec["request_id"])
	}
	if rec["team_id"] != "team-1" {
		t.Errorf("team_id = %v", rec["team_id"])
	}
	if rec["chat_type"] != "leadership" {
		t.Errorf("chat_type = %v", rec["chat_type"])
	}
}

func TestLoggerRedaction(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		hidden string
	}{
		{"bot token", "token is 1234567890:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw1", "AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw1"},
		{"openai key", "using sk-abcdefghij1234567890abcd", "sk-abcdefghij1234567890abcd"},
		{"phone number", "contact +447911123456 added", "+447911123456"},
		{"jwt", "link eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0.c2ln", "eyJhbGciOiJIUzI1NiJ9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufLogger("info")
			logger.Info(context.Background(), tt.value)
			out := buf.String()
			if strings.Contains(out, tt.hidden) {
				t.Errorf("secret leaked into log: %s", out)
			}
			if !strings.Contains(out, "[REDACTED]") {
				t.Errorf("expected redaction marker, got %s", out)
			}
		})
	}
}

func TestLoggerRedactsSensitiveMapKeys(t *testing.T) {
	logger, buf := newBufLogger("info")

	logger.Info(context.Background(), "config loaded", "settings", map[string]any{
		"invite_secret_key": "super-secret-value",
		"provider":          "ollama",
	})

	out := buf.String()
	if strings.Contains(out, "super-secret-value") {
		t.Errorf("sensitive map value leaked: %s", out)
	}
	if !strings.Contains(out, "ollama") {
		t.Errorf("non-sensitive value should survive: %s", out)
	}
}

func TestLoggerWithFields(t *testing.T) {
	logger, buf := newBufLogger("info")

	logger.WithFields("component", "router").Info(context.Background(), "dispatched")

	rec := decodeRecord(t, buf)
	if rec["component"] != "router" {
		t.Errorf("component = %v", rec["component"])
	}
}

func TestRedactedJSON(t *testing.T) {
	logger, _ := newBufLogger("info")

	out := logger.RedactedJSON(map[string]string{"number": "+447911123456"})
	if strings.Contains(out, "+447911123456") {
		t.Errorf("phone leaked: %s", out)
	}

	if got := logger.RedactedJSON(func() {}); got != "<unmarshalable>" {
		t.Errorf("RedactedJSON on func = %q", got)
	}
}

func TestGetRequestID(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("empty context should yield empty ID, got %q", got)
	}
	ctx := AddRequestID(context.Background(), "req-9")
	if got := GetRequestID(ctx); got != "req-9" {
		t.Errorf("GetRequestID = %q", got)
	}
}

func TestLogLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := LogLevelFromString(tt.in); got != tt.want {
			t.Errorf("LogLevelFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
