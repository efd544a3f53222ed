package logifaceadapter

import (
	"bytes"
	"errors"
	"testing"

	frameScheduler "github.com/joeycumines/go-frame-scheduler"
	"github.com/stretchr/testify/assert"
)

func TestLogger_IsEnabledRespectsMinLevel(t *testing.T) {
	l := New(nil, frameScheduler.LevelWarn)
	assert.False(t, l.IsEnabled(frameScheduler.LevelDebug))
	assert.True(t, l.IsEnabled(frameScheduler.LevelWarn))
	assert.True(t, l.IsEnabled(frameScheduler.LevelError))
}

func TestLogger_LogFiltersBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, frameScheduler.LevelWarn)

	l.Log(frameScheduler.LogEntry{Level: frameScheduler.LevelDebug, Category: "worker", Message: "too quiet"})
	assert.Empty(t, buf.String())
}

func TestLogger_LogRendersCategoryMessageAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, frameScheduler.LevelDebug)

	l.Log(frameScheduler.LogEntry{
		Level:       frameScheduler.LevelInfo,
		Category:    "stack",
		Message:     "stack drained",
		SchedulerID: 1,
		WorkerID:    2,
		StackIndex:  3,
		Context:     map[string]interface{}{"iteration": 7},
	})

	out := buf.String()
	assert.Contains(t, out, "stack drained")
	assert.Contains(t, out, "category=stack")
	assert.Contains(t, out, "scheduler=1")
	assert.Contains(t, out, "worker=2")
	assert.Contains(t, out, "stack=3")
	assert.Contains(t, out, "iteration=7")
}

func TestLogger_LogIncludesError(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, frameScheduler.LevelDebug)

	l.Log(frameScheduler.LogEntry{
		Level:    frameScheduler.LevelError,
		Category: "worker",
		Message:  "task panicked",
		Err:      errors.New("boom"),
	})

	out := buf.String()
	assert.Contains(t, out, "task panicked")
	assert.Contains(t, out, "err=boom")
	assert.Contains(t, out, "[ERROR]")
}

func TestLogger_DefaultsToStderrWhenWriterNil(t *testing.T) {
	l := New(nil, frameScheduler.LevelInfo)
	assert.NotNil(t, l)
}

var _ frameScheduler.Logger = (*Logger)(nil)
