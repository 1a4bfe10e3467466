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
	if cfg.Pretty {
		t.Error("Expected default pretty to be false")
	}
}

func TestSetup_WritesToConfiguredOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Output: buf})

	logger.Info().Str("resource", "clinic").Msg("cache warmed")

	output := buf.String()
	if !strings.Contains(output, "cache warmed") {
		t.Errorf("Expected output to contain the message, got %q", output)
	}
	if !strings.Contains(output, `"resource":"clinic"`) {
		t.Errorf("Expected structured field in output, got %q", output)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel}, // Should default to Info
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			result := parseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNewLogger_ComponentField(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})

	logger := NewLogger("readcache")
	logger.Info().Msg("entry stored")

	output := buf.String()
	if !strings.Contains(output, "readcache") {
		t.Errorf("Expected output to contain the component, got %q", output)
	}
	if !strings.Contains(output, "entry stored") {
		t.Errorf("Expected output to contain the message, got %q", output)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelWarn, Output: buf})

	logger := NewLogger("loader")

	logger.Debug().Msg("batch enqueued")
	logger.Info().Msg("batch dispatched")
	logger.Warn().Msg("partial batch result")
	logger.Error().Msg("store unreachable")

	output := buf.String()

	if strings.Contains(output, "batch enqueued") || strings.Contains(output, "batch dispatched") {
		t.Error("Messages below Warn must be filtered out")
	}
	if !strings.Contains(output, "partial batch result") {
		t.Error("Warn message should be included at Warn level")
	}
	if !strings.Contains(output, "store unreachable") {
		t.Error("Error message should be included at Warn level")
	}
}
