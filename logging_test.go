package frameScheduler

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoOpLogger_DiscardsEverythingAndNeverEnabled(t *testing.T) {
	l := NewNoOpLogger()
	assert.False(t, l.IsEnabled(LevelDebug))
	assert.False(t, l.IsEnabled(LevelError))
	l.Log(LogEntry{Level: LevelError, Message: "should be discarded"})
}

func TestWriterLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(LevelWarn, &buf)

	assert.False(t, l.IsEnabled(LevelDebug))
	assert.True(t, l.IsEnabled(LevelWarn))
	assert.True(t, l.IsEnabled(LevelError))

	LogDebug(l, "worker", "debug message", nil)
	assert.Empty(t, buf.String())

	LogWarn(l, "worker", "warn message", nil)
	assert.Contains(t, buf.String(), "warn message")
	assert.Contains(t, buf.String(), "WARN")
}

func TestWriterLogger_SetLevelChangesFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(LevelError, &buf)
	LogInfo(l, "worker", "should not appear", nil)
	assert.Empty(t, buf.String())

	l.SetLevel(LevelDebug)
	LogInfo(l, "worker", "should appear", nil)
	assert.Contains(t, buf.String(), "should appear")
}

func TestWriterLogger_IncludesContextAndError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(LevelDebug, &buf)
	LogError(l, "checkpoint", "task panicked", errors.New("boom"), map[string]interface{}{"stack": 3})
	out := buf.String()
	assert.Contains(t, out, "task panicked")
	assert.Contains(t, out, "stack=3")
	assert.Contains(t, out, "err=boom")
}

func TestLogEntryOptions_PopulateFields(t *testing.T) {
	entry := newLogEntry(LevelInfo, "stack", "drained",
		WithSchedulerID(7), WithWorkerID(2), WithStackIndex(5), WithField("extra", "value"))

	assert.Equal(t, int64(7), entry.SchedulerID)
	assert.Equal(t, 2, entry.WorkerID)
	assert.Equal(t, 5, entry.StackIndex)
	assert.Equal(t, "value", entry.Context["extra"])
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Contains(t, LogLevel(42).String(), "UNKNOWN")
}

func TestSetStructuredLogger_AffectsPackageConvenienceFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetStructuredLogger(NewWriterLogger(LevelDebug, &buf))
	defer SetStructuredLogger(NewNoOpLogger())

	SInfo("worker", "hello from global logger")
	assert.Contains(t, buf.String(), "hello from global logger")
}
