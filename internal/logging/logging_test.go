package logging_test

import (
	"bytes"
	"testing"

	"github.com/beautyclinic/clinic-web/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetupWriterLevels(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{"debug level", "debug", zerolog.DebugLevel},
		{"warn level", "warn", zerolog.WarnLevel},
		{"default info", "", zerolog.InfoLevel},
		{"garbage falls back to info", "loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logging.SetupWriter(&buf, tt.level, "PRODUCTION")
			require.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestSetupWriterJSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.SetupWriter(&buf, "info", "PRODUCTION")
	logger.Info().Str("phase", "ready").Msg("session resolved")

	require.Contains(t, buf.String(), `"phase":"ready"`)
	require.Contains(t, buf.String(), `"message":"session resolved"`)
}
