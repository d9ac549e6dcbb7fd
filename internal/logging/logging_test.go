package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sleepscore.log")

	logger, closer, err := NewLogger(Config{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Debug().Str("participant", "101").Msg("participant scored")
	logger.Trace().Msg("hidden")
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"participant":"101"`)
	assert.Contains(t, string(data), `"message":"participant scored"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{level: "", want: zerolog.InfoLevel},
		{level: "WARN", want: zerolog.WarnLevel},
		{level: "trace", want: zerolog.TraceLevel},
		{level: "nonsense", want: zerolog.InfoLevel},
	}

	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			logger, closer, err := NewLogger(Config{Level: tc.level, Output: "stderr"})
			require.NoError(t, err)
			defer closer()
			assert.Equal(t, tc.want, logger.GetLevel())
		})
	}
}

func TestNewLoggerBadOutput(t *testing.T) {
	_, _, err := NewLogger(Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	require.Error(t, err)
}
