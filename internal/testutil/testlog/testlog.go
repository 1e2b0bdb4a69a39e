package testlog

import (
	"testing"

	"github.com/danmuck/gemctl/internal/logging"
	"github.com/rs/zerolog"
)

// Start configures the test logging profile and returns a logger tagged with the test name.
func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	logger := logging.ConfigureTests().With().Str("test", t.Name()).Logger()
	logger.Info().Msg("test start")
	return logger
}
