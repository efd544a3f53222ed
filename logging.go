// logging.go - Structured Logging Interface for the frame scheduler
//
// Package-level configuration for structured logging. This design allows
// external integration with logging frameworks like zerolog, logrus, etc.
// (see logifaceadapter for a github.com/joeycumines/logiface-backed
// Logger) while providing a low-overhead built-in implementation for
// basic usage.
//
// Usage:
//
//	frameScheduler.SetStructuredLogger(frameScheduler.NewDefaultLogger(frameScheduler.LevelInfo))
//
// Design Decision: the package-level logger backs only the S* convenience
// functions, because logging is an infrastructure cross-cutting concern.
// A Scheduler does not use it: each instance logs through the Logger given
// by WithLogger (NoOpLogger by default).
package frameScheduler

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"
)

var globalLogger struct {
	sync.RWMutex
	logger Logger
}

// SetStructuredLogger sets the global structured logger used by the
// package-level S* convenience functions.
func SetStructuredLogger(logger Logger) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	globalLogger.logger = logger
}

func getGlobalLogger() Logger {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	if globalLogger.logger != nil {
		return globalLogger.logger
	}
	return NewNoOpLogger()
}

// LogLevel represents the severity of a log message.
type LogLevel int32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", l)
	}
}

// LogEntry is a structured log entry. SchedulerID/WorkerID/StackIndex
// cover the identifiers that matter for this domain (there is no
// per-task or per-timer identity worth logging; tasks are anonymous
// closures and the interesting coordinate is which worker ran them on
// which stack).
type LogEntry struct {
	Level      LogLevel
	Category   string // "stack", "checkpoint", "worker", "shutdown", "watchdog"
	SchedulerID int64
	WorkerID    int
	StackIndex  int
	Context     map[string]interface{}
	Message     string
	Err         error
	Timestamp   time.Time
}

// Logger is the structured logging interface.
type Logger interface {
	Log(entry LogEntry)
	IsEnabled(level LogLevel) bool
}

// DefaultLogger implements Logger using os.Stdout by default.
type DefaultLogger struct {
	level atomic.Int32
	mu    sync.Mutex
	Out   *os.File // public for testing
}

// NewDefaultLogger creates a logger with the specified minimum level.
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	l := &DefaultLogger{Out: os.Stdout}
	l.level.Store(int32(level))
	return l
}

// NewFileLogger creates a logger writing to the named file.
func NewFileLogger(level LogLevel, filename string) (*DefaultLogger, error) {
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	l := &DefaultLogger{Out: file}
	l.level.Store(int32(level))
	return l, nil
}

// SetLevel dynamically changes the minimum log level.
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level.Store(int32(level))
}

func (l *DefaultLogger) getLevel() int32 {
	return l.level.Load()
}

func (l *DefaultLogger) IsEnabled(level LogLevel) bool {
	return level >= LogLevel(l.getLevel())
}

func (l *DefaultLogger) Log(entry LogEntry) {
	if !l.IsEnabled(entry.Level) {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if isTerminal(l.Out) {
		l.logPretty(entry)
	} else {
		l.logJSON(entry)
	}
}

func (l *DefaultLogger) logPretty(entry LogEntry) {
	colorReset := "\033[0m"
	colorError := "\033[31m"
	colorWarn := "\033[33m"
	colorInfo := "\033[36m"
	colorDebug := "\033[90m"
	colorDim := "\033[2m"

	var color string
	switch entry.Level {
	case LevelDebug:
		color = colorDebug
	case LevelInfo:
		color = colorInfo
	case LevelWarn:
		color = colorWarn
	case LevelError:
		color = colorError
	}

	fmt.Fprintf(l.Out, "%s%s%s %s [%-10s] %s%s",
		color, entry.Level.String(), colorReset,
		entry.Timestamp.Format("15:04:05.000"),
		entry.Category,
		entry.Message,
		colorReset,
	)

	if len(entry.Context) > 0 || entry.SchedulerID != 0 || entry.WorkerID != 0 || entry.StackIndex != 0 {
		fmt.Fprint(l.Out, colorDim)
		if entry.SchedulerID != 0 {
			fmt.Fprintf(l.Out, " scheduler=%d", entry.SchedulerID)
		}
		if entry.WorkerID != 0 {
			fmt.Fprintf(l.Out, " worker=%d", entry.WorkerID)
		}
		if entry.StackIndex != 0 {
			fmt.Fprintf(l.Out, " stack=%d", entry.StackIndex)
		}
		for k, v := range entry.Context {
			fmt.Fprintf(l.Out, " %s=%v", k, v)
		}
		fmt.Fprint(l.Out, colorReset)
	}

	if entry.Err != nil {
		fmt.Fprintf(l.Out, " %v\n", entry.Err)
	} else {
		fmt.Fprintln(l.Out)
	}
}

func (l *DefaultLogger) logJSON(entry LogEntry) {
	fmt.Fprintf(l.Out, "{\"timestamp\":\"%s\",\"level\":%s,\"category\":\"%s\"",
		entry.Timestamp.Format(time.RFC3339Nano),
		entry.Level,
		entry.Category,
	)

	jsonFields := make([]byte, 0, 256)
	jsonFields = append(jsonFields, ',')
	if entry.SchedulerID != 0 {
		jsonFields = append(jsonFields, fmt.Sprintf("\"scheduler\":%d,", entry.SchedulerID)...)
	}
	if entry.WorkerID != 0 {
		jsonFields = append(jsonFields, fmt.Sprintf("\"worker\":%d,", entry.WorkerID)...)
	}
	if entry.StackIndex != 0 {
		jsonFields = append(jsonFields, fmt.Sprintf("\"stack\":%d,", entry.StackIndex)...)
	}
	for k, v := range entry.Context {
		jsonFields = append(jsonFields, fmt.Sprintf("\"%s\":%v,", k, v)...)
	}

	message := escapeJSON(entry.Message)
	fmt.Fprintf(l.Out, "%s\"message\":\"%s\"", jsonFields, message)

	if entry.Err != nil {
		fmt.Fprintf(l.Out, ",\"error\":\"%s\"}\n", escapeJSON(entry.Err.Error()))
	} else {
		fmt.Fprintln(l.Out, "}")
	}
}

func escapeJSON(s string) string {
	b := make([]byte, 0, len(s)*2)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\', '"', '/', '\b', '\f', '\n', '\r', '\t':
			b = append(b, '\\', c)
		default:
			if c < ' ' {
				b = append(b, '\\', 'u', '0', '0', byte(c>>4)+'0', byte(c&0xF)+'0')
			} else {
				b = append(b, c)
			}
		}
	}
	return *(*string)(unsafe.Pointer(&b))
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// NoOpLogger discards every entry. It is the default logger until
// WithLogger is used.
type NoOpLogger struct{}

func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (l *NoOpLogger) Log(LogEntry) {}

func (l *NoOpLogger) IsEnabled(LogLevel) bool { return false }

// WriterLogger implements Logger using any io.Writer, as plain text.
// Convenient for tests: point it at a bytes.Buffer and assert on output.
type WriterLogger struct {
	level atomic.Int32
	mu    sync.Mutex
	out   io.Writer
}

func NewWriterLogger(level LogLevel, out io.Writer) *WriterLogger {
	l := &WriterLogger{out: out}
	l.level.Store(int32(level))
	return l
}

func (l *WriterLogger) SetLevel(level LogLevel) {
	l.level.Store(int32(level))
}

func (l *WriterLogger) IsEnabled(level LogLevel) bool {
	return level >= LogLevel(l.level.Load())
}

func (l *WriterLogger) Log(entry LogEntry) {
	if !l.IsEnabled(entry.Level) {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.logText(entry)
}

func (l *WriterLogger) logText(entry LogEntry) {
	fmt.Fprintf(l.out, "[%s] [%s] [%-10s] %s",
		entry.Level.String(),
		entry.Timestamp.Format("15:04:05.000"),
		entry.Category,
		entry.Message,
	)

	if len(entry.Context) > 0 || entry.SchedulerID != 0 || entry.WorkerID != 0 || entry.StackIndex != 0 {
		if entry.SchedulerID != 0 {
			fmt.Fprintf(l.out, " scheduler=%d", entry.SchedulerID)
		}
		if entry.WorkerID != 0 {
			fmt.Fprintf(l.out, " worker=%d", entry.WorkerID)
		}
		if entry.StackIndex != 0 {
			fmt.Fprintf(l.out, " stack=%d", entry.StackIndex)
		}
		for k, v := range entry.Context {
			fmt.Fprintf(l.out, " %s=%v", k, v)
		}
	}

	if entry.Err != nil {
		fmt.Fprintf(l.out, " err=%v\n", entry.Err)
	} else {
		fmt.Fprintln(l.out)
	}
}

// Helper functions for common logging patterns.

func LogDebug(l Logger, category, message string, fields map[string]interface{}) {
	if !l.IsEnabled(LevelDebug) {
		return
	}
	l.Log(LogEntry{Level: LevelDebug, Category: category, Message: message, Context: fields, Timestamp: time.Now()})
}

func LogInfo(l Logger, category, message string, fields map[string]interface{}) {
	if !l.IsEnabled(LevelInfo) {
		return
	}
	l.Log(LogEntry{Level: LevelInfo, Category: category, Message: message, Context: fields, Timestamp: time.Now()})
}

func LogWarn(l Logger, category, message string, fields map[string]interface{}) {
	if !l.IsEnabled(LevelWarn) {
		return
	}
	l.Log(LogEntry{Level: LevelWarn, Category: category, Message: message, Context: fields, Timestamp: time.Now()})
}

func LogError(l Logger, category, message string, err error, fields map[string]interface{}) {
	if !l.IsEnabled(LevelError) {
		return
	}
	l.Log(LogEntry{Level: LevelError, Category: category, Message: message, Err: err, Context: fields, Timestamp: time.Now()})
}

// Package-level structured logging convenience functions using the
// global logger.

func SDebug(category, message string, fields ...map[string]interface{}) {
	logger := getGlobalLogger()
	if !logger.IsEnabled(LevelDebug) {
		return
	}
	LogDebug(logger, category, message, firstOrNil(fields))
}

func SInfo(category, message string, fields ...map[string]interface{}) {
	logger := getGlobalLogger()
	if !logger.IsEnabled(LevelInfo) {
		return
	}
	LogInfo(logger, category, message, firstOrNil(fields))
}

func SWarn(category, message string, fields ...map[string]interface{}) {
	logger := getGlobalLogger()
	if !logger.IsEnabled(LevelWarn) {
		return
	}
	LogWarn(logger, category, message, firstOrNil(fields))
}

func SError(category, message string, err error, fields ...map[string]interface{}) {
	logger := getGlobalLogger()
	if !logger.IsEnabled(LevelError) {
		return
	}
	LogError(logger, category, message, err, firstOrNil(fields))
}

func firstOrNil(fields []map[string]interface{}) map[string]interface{} {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// LogEntryOption is a functional option for constructing a LogEntry.
type LogEntryOption func(*LogEntry)

func WithSchedulerID(id int64) LogEntryOption {
	return func(e *LogEntry) { e.SchedulerID = id }
}

func WithWorkerID(id int) LogEntryOption {
	return func(e *LogEntry) { e.WorkerID = id }
}

func WithStackIndex(index int) LogEntryOption {
	return func(e *LogEntry) { e.StackIndex = index }
}

func WithField(key string, value interface{}) LogEntryOption {
	return func(e *LogEntry) {
		if e.Context == nil {
			e.Context = make(map[string]interface{})
		}
		e.Context[key] = value
	}
}

func newLogEntry(level LogLevel, category, message string, opts ...LogEntryOption) LogEntry {
	e := LogEntry{Level: level, Category: category, Message: message, Timestamp: time.Now()}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Specialty helpers for scheduler-specific events.

// LogStackDrained logs that a stack hit size 0 and bumped its iteration.
func LogStackDrained(l Logger, workerID, stackIndex int, newIteration uint32) {
	if !l.IsEnabled(LevelDebug) {
		return
	}
	l.Log(newLogEntry(LevelDebug, "stack", "stack drained",
		WithWorkerID(workerID), WithStackIndex(stackIndex), WithField("iteration", newIteration)))
}

// LogMaskRecomputed logs a successful priority-mask recomputation.
func LogMaskRecomputed(l Logger, workerID int, oldMainStack, newMainStack, mask uint32) {
	if !l.IsEnabled(LevelDebug) {
		return
	}
	l.Log(newLogEntry(LevelDebug, "stack", "priority mask recomputed",
		WithWorkerID(workerID),
		WithField("old_main_stack", oldMainStack),
		WithField("new_main_stack", newMainStack),
		WithField("mask", mask)))
}

// LogTaskPanicked logs a recovered task panic.
func LogTaskPanicked(l Logger, workerID, stackIndex int, panicMsg interface{}, stack []byte) {
	if !l.IsEnabled(LevelError) {
		return
	}
	l.Log(newLogEntry(LevelError, "worker", "task panicked",
		WithWorkerID(workerID), WithStackIndex(stackIndex),
		WithField("panic", panicMsg), WithField("stack", string(stack))))
}

// LogShutdownRequested logs that quit_request was set, and by what.
func LogShutdownRequested(l Logger, workerID int, reason string) {
	if !l.IsEnabled(LevelInfo) {
		return
	}
	l.Log(newLogEntry(LevelInfo, "shutdown", "shutdown requested",
		WithWorkerID(workerID), WithField("reason", reason)))
}

// LogWatchdogStall logs a stack the watchdog believes made no progress
// across a full interval (spec.md §8 B2).
func LogWatchdogStall(l Logger, stackIndex int, frame uint32, interval time.Duration) {
	if !l.IsEnabled(LevelWarn) {
		return
	}
	e := newLogEntry(LevelWarn, "watchdog", "stack stalled",
		WithStackIndex(stackIndex), WithField("frame", frame), WithField("interval", interval))
	e.Err = &DeadlockError{Stack: stackIndex, Frame: frame}
	l.Log(e)
}
