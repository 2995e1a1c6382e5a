package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}

	if cfg.Pretty != false {
		t.Error("Expected default pretty to be false")
	}
}

func TestSetup_WritesToConfiguredOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: buf,
	})

	logger.Info().Str("keyword", "dune").Msg("search applied")

	output := buf.String()
	if !strings.Contains(output, "search applied") {
		t.Errorf("Expected output to contain message, got %q", output)
	}
	if !strings.Contains(output, `"keyword":"dune"`) {
		t.Errorf("Expected output to contain keyword field, got %q", output)
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{
		Level:  LevelWarn,
		Output: buf,
	})

	logger.Debug().Msg("should be filtered")
	logger.Warn().Msg("should appear")

	output := buf.String()
	if strings.Contains(output, "should be filtered") {
		t.Errorf("Debug message leaked through warn level: %q", output)
	}
	if !strings.Contains(output, "should appear") {
		t.Errorf("Warn message missing: %q", output)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input LogLevel
		want  zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"WARN", zerolog.WarnLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_ComponentField(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelDebug, Output: buf})

	logger := NewLogger("feed")
	logger.Info().Msg("component test")

	output := buf.String()
	if !strings.Contains(output, `"component":"feed"`) {
		t.Errorf("Expected component field in output, got %q", output)
	}
}
