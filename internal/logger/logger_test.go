package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		log       func(l *slog.Logger)
		checkFunc func(t *testing.T, output string)
	}{
		{
			name:   "text logger at info level",
			config: Config{Level: "info", Format: "text", Output: "stdout"},
			log:    func(l *slog.Logger) { l.Info("review published", "pr", 42) },
			checkFunc: func(t *testing.T, output string) {
				if !strings.Contains(output, "level=INFO") ||
					!strings.Contains(output, `msg="review published"`) ||
					!strings.Contains(output, "pr=42") {
					t.Errorf("unexpected text output: %s", output)
				}
			},
		},
		{
			name:   "json logger at debug level",
			config: Config{Level: "debug", Format: "json", Output: "stdout"},
			log:    func(l *slog.Logger) { l.Debug("token cache hit") },
			checkFunc: func(t *testing.T, output string) {
				var entry map[string]any
				if err := json.Unmarshal([]byte(output), &entry); err != nil {
					t.Fatalf("failed to unmarshal JSON log: %v, output: %s", err, output)
				}
				if entry["level"] != "DEBUG" || entry["msg"] != "token cache hit" {
					t.Errorf("unexpected JSON entry: %v", entry)
				}
			},
		},
		{
			name:   "info level suppresses debug",
			config: Config{Level: "info", Format: "text", Output: "stdout"},
			log:    func(l *slog.Logger) { l.Debug("should not appear") },
			checkFunc: func(t *testing.T, output string) {
				if output != "" {
					t.Errorf("expected no output for debug at info level, got: %s", output)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.config, &buf)
			tt.log(logger)
			tt.checkFunc(t, buf.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"INFO", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
