package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLevels(t *testing.T) {
	logger, err := New("production", "warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = New("local", "")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("local", "loud")
	assert.Error(t, err)
	assert.NotNil(t, Must("local", "loud"))
}

func TestPrintfLoggerWritesInfo(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewPrintfLogger(zap.New(core))

	l.Printf("OK   %s\n", "00001_init.sql")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "OK   00001_init.sql", entries[0].Message)
}
