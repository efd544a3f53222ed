// Package logifaceadapter adapts github.com/joeycumines/logiface as a real
// backend for frameScheduler.Logger, instead of the package's own
// DefaultLogger/WriterLogger (logging.go). Structured fields, levels, and
// the message/error pair all flow through logiface's Builder chain rather
// than being hand-formatted.
package logifaceadapter

import (
	"fmt"
	"io"
	"os"

	frameScheduler "github.com/joeycumines/go-frame-scheduler"
	"github.com/joeycumines/logiface"
)

// Event is the concrete logiface.Event implementation backing Logger. It
// holds nothing a caller needs to inspect directly; fields arrive via
// AddField and friends, then get written out by lineWriter on Log.
type Event struct {
	logiface.UnimplementedEvent

	lvl    logiface.Level
	msg    string
	err    error
	fields []field
}

type field struct {
	key string
	val any
}

func (e *Event) Level() logiface.Level { return e.lvl }

func (e *Event) AddField(key string, val any) {
	e.fields = append(e.fields, field{key, val})
}

func (e *Event) AddMessage(msg string) bool {
	e.msg = msg
	return true
}

func (e *Event) AddError(err error) bool {
	e.err = err
	return true
}

func (e *Event) reset(lvl logiface.Level) {
	e.lvl = lvl
	e.msg = ""
	e.err = nil
	e.fields = e.fields[:0]
}

// eventFactory and eventReleaser supply and release Events for the
// logiface.Logger. Events are not pooled: NewEvent allocates a fresh Event
// for every log line, and ReleaseEvent does nothing with it.
type eventFactory struct{}

func (eventFactory) NewEvent(level logiface.Level) *Event {
	e := new(Event)
	e.reset(level)
	return e
}

type eventReleaser struct{}

func (eventReleaser) ReleaseEvent(*Event) {}

// lineWriter renders an Event as a single line of text to an io.Writer,
// grounded on logging.go's DefaultLogger.logPretty line shape (level,
// message, then key=value pairs, the category among them) translated
// into logiface's Writer[E] contract instead of a bespoke formatter.
type lineWriter struct {
	out io.Writer
}

func (w lineWriter) Write(e *Event) error {
	var buf []byte
	buf = append(buf, '[')
	buf = append(buf, levelString(e.lvl)...)
	buf = append(buf, "] "...)
	buf = append(buf, e.msg...)
	for _, f := range e.fields {
		buf = append(buf, ' ')
		buf = append(buf, f.key...)
		buf = append(buf, '=')
		buf = appendValue(buf, f.val)
	}
	if e.err != nil {
		buf = append(buf, " err="...)
		buf = append(buf, e.err.Error()...)
	}
	buf = append(buf, '\n')
	_, err := w.out.Write(buf)
	return err
}

func appendValue(buf []byte, val any) []byte {
	switch v := val.(type) {
	case string:
		return append(buf, v...)
	case error:
		if v == nil {
			return append(buf, "<nil>"...)
		}
		return append(buf, v.Error()...)
	default:
		return append(buf, fmt.Sprint(v)...)
	}
}

func levelString(lvl logiface.Level) string {
	switch lvl {
	case logiface.LevelEmergency, logiface.LevelAlert, logiface.LevelCritical, logiface.LevelError:
		return "ERROR"
	case logiface.LevelWarning:
		return "WARN"
	case logiface.LevelNotice, logiface.LevelInformational:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// toLogifaceLevel maps frameScheduler's four-level scheme onto the syslog
// levels logiface.Level is built from (level.go).
func toLogifaceLevel(l frameScheduler.LogLevel) logiface.Level {
	switch l {
	case frameScheduler.LevelDebug:
		return logiface.LevelDebug
	case frameScheduler.LevelInfo:
		return logiface.LevelInformational
	case frameScheduler.LevelWarn:
		return logiface.LevelWarning
	case frameScheduler.LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

// Logger adapts a *logiface.Logger[*Event] into a frameScheduler.Logger,
// translating a LogEntry into a Builder fluent chain (context.go's
// Str/Int64/Int/Any/Err methods) instead of the package's own
// DefaultLogger formatting.
type Logger struct {
	inner *logiface.Logger[*Event]
}

// New builds a Logger writing lines to w at minLevel or above.
func New(w io.Writer, minLevel frameScheduler.LogLevel) *Logger {
	if w == nil {
		w = os.Stderr
	}
	inner := logiface.New[*Event](
		logiface.WithEventFactory[*Event](eventFactory{}),
		logiface.WithEventReleaser[*Event](eventReleaser{}),
		logiface.WithWriter[*Event](lineWriter{out: w}),
		logiface.WithLevel[*Event](toLogifaceLevel(minLevel)),
	)
	return &Logger{inner: inner}
}

// IsEnabled reports whether level would produce output.
func (l *Logger) IsEnabled(level frameScheduler.LogLevel) bool {
	return l.inner.Level() >= toLogifaceLevel(level)
}

// Log renders entry through the wrapped logiface.Logger's Builder chain.
func (l *Logger) Log(entry frameScheduler.LogEntry) {
	b := l.inner.Build(toLogifaceLevel(entry.Level))
	if !b.Enabled() {
		b.Release()
		return
	}

	b = b.Str("category", entry.Category)
	if entry.SchedulerID != 0 {
		b = b.Int64("scheduler", entry.SchedulerID)
	}
	if entry.WorkerID != 0 {
		b = b.Int("worker", entry.WorkerID)
	}
	if entry.StackIndex != 0 {
		b = b.Int("stack", entry.StackIndex)
	}
	for k, v := range entry.Context {
		b = b.Any(k, v)
	}
	if entry.Err != nil {
		b = b.Err(entry.Err)
	}

	b.Log(entry.Message)
}
