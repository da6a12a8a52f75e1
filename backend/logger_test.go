package backend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerRecordsEntriesWithSource(t *testing.T) {
	logger := NewLogger(10)
	logger.Info("console started", "App")
	logger.Warn("no base URL configured")

	entries := logger.GetEntries()
	require.Len(t, entries, 2)
	require.Equal(t, "INFO", entries[0].Level)
	require.Equal(t, "App", entries[0].Source)
	require.Equal(t, "WARN", entries[1].Level)
	require.Empty(t, entries[1].Source)
	require.False(t, entries[0].Timestamp.IsZero())
}

func TestLoggerTrimsToMaxSize(t *testing.T) {
	logger := NewLogger(3)
	for i := 0; i < 5; i++ {
		logger.Debug(fmt.Sprintf("entry %d", i))
	}
	entries := logger.GetEntries()
	require.Len(t, entries, 3)
	require.Equal(t, "entry 2", entries[0].Message)
	require.Equal(t, "entry 4", entries[2].Message)
}

func TestLoggerDefaultSize(t *testing.T) {
	logger := NewLogger(0)
	require.Equal(t, 1000, logger.maxSize)
}

func TestLoggerNilSafe(t *testing.T) {
	var logger *Logger
	logger.Info("ignored")
	logger.MirrorToKlog(true)
	require.Empty(t, logger.GetEntries())
	require.Zero(t, logger.Count())
}

func TestLoggerReturnsCopy(t *testing.T) {
	logger := NewLogger(5)
	logger.Error("boom", "FlowTestGateway")
	entries := logger.GetEntries()
	entries[0].Message = "changed"
	require.Equal(t, "boom", logger.GetEntries()[0].Message)
}

func TestLogLevelString(t *testing.T) {
	require.Equal(t, "DEBUG", LogLevelDebug.String())
	require.Equal(t, "ERROR", LogLevelError.String())
	require.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestLoggerMirrorsToKlogWithoutPanicking(t *testing.T) {
	logger := NewLogger(5)
	logger.MirrorToKlog(true)
	logger.Warn("mirrored", "Test")
	require.Equal(t, 1, logger.Count())
}
