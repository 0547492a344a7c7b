package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in  LogLevel
		exp zerolog.Level
	}{
		{TraceLevel, zerolog.TraceLevel},
		{DebugLevel, zerolog.DebugLevel},
		{InfoLevel, zerolog.InfoLevel},
		{WarnLevel, zerolog.WarnLevel},
		{ErrorLevel, zerolog.ErrorLevel},
		{42, zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.exp, ZerologLevel(tt.in), "level %d", tt.in)
	}
}

// Not parallel: swaps the global logger.
func TestInitializeFileLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asyncfs.log")

	closer := InitializeFileLogger(InfoLevel, FileOutput{Filename: path, MaxSizeMB: 1})
	defer InitializeLogger(InfoLevel)

	logger := GetLogger("test")
	logger.Info().Str("key", "value").Msg("hello file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), "hello file")
}

func TestInitializeFileLogger_EmptyFilenameIsNoop(t *testing.T) {
	closer := InitializeFileLogger(WarnLevel, FileOutput{})
	defer InitializeLogger(InfoLevel)
	assert.NoError(t, closer.Close())
}

func TestPointer(t *testing.T) {
	t.Parallel()
	p := Pointer(7)
	require.NotNil(t, p)
	assert.Equal(t, 7, *p)
}
