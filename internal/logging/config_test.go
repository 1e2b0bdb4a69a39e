package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		" DEBUG ": zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"off":     zerolog.Disabled,
	}
	for raw, want := range cases {
		got, ok := ParseLevel(raw)
		if !ok || got != want {
			t.Fatalf("ParseLevel(%q) = %v,%v want %v", raw, got, ok, want)
		}
	}
	if _, ok := ParseLevel("loud"); ok {
		t.Fatalf("expected unknown level to be rejected")
	}
	if _, ok := ParseLevel(""); ok {
		t.Fatalf("expected empty level to be ignored")
	}
}

func TestEnvOverridesApply(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogNoColor, "true")
	t.Setenv(EnvLogTimestamp, "nope")

	cfg := DefaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.ErrorLevel {
		t.Fatalf("unexpected level: %v", cfg.Level)
	}
	if !cfg.NoColor {
		t.Fatalf("expected no-color override")
	}
	if !cfg.Timestamp {
		t.Fatalf("invalid bool must leave timestamp default in place")
	}
}

func TestBuildWritesConsoleLines(t *testing.T) {
	var buf bytes.Buffer
	logger := build(Config{Level: zerolog.InfoLevel, NoColor: true, Out: &buf})
	logger.Debug().Msg("hidden")
	logger.Info().Str("peer", "127.0.0.1:5000").Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked at info level: %q", out)
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "peer=127.0.0.1:5000") {
		t.Fatalf("unexpected console output: %q", out)
	}
}

func TestBuildBypassDiscards(t *testing.T) {
	var buf bytes.Buffer
	logger := build(Config{Level: zerolog.DebugLevel, Bypass: true, Out: &buf})
	logger.Error().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected bypassed logger to discard, got %q", buf.String())
	}
}

func TestNewTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = build(Config{Level: zerolog.InfoLevel, NoColor: true, Out: &buf})
	t.Cleanup(func() { log.Logger = prev })

	logger := New("configgen")
	logger.Info().Msg("tagged")
	if out := buf.String(); !strings.Contains(out, "component=configgen") {
		t.Fatalf("expected component field, got %q", out)
	}
}
