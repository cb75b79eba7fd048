// Package logger provides the logging capability threaded through every
// component. There is no package-level logger: callers construct one in main
// and pass it down.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the capability every component logs through. Key/value pairs
// follow the message, e.g. log.Info("loaded", "count", 3).
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	Success(msg string, kv ...any)
	With(kv ...any) Logger
	DebugEnabled() bool
}

// Options configures New.
type Options struct {
	Debug bool
	// JSON disables the human-readable console format.
	JSON bool
	// File, when set, receives a JSON copy of every entry, rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

type zlogger struct {
	zl    zerolog.Logger
	debug bool
}

// New builds a Logger writing to w (stdout when nil).
func New(w io.Writer, opts Options) Logger {
	if w == nil {
		w = os.Stdout
	}
	out := w
	if !opts.JSON {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
		}
		out = zerolog.MultiLevelWriter(out, rotated)
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}
	return &zlogger{
		zl:    zerolog.New(out).Level(level).With().Timestamp().Logger(),
		debug: opts.Debug,
	}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &zlogger{zl: zerolog.Nop()}
}

func (l *zlogger) Debug(msg string, kv ...any) { emit(l.zl.Debug(), msg, kv) }
func (l *zlogger) Info(msg string, kv ...any)  { emit(l.zl.Info(), msg, kv) }
func (l *zlogger) Warn(msg string, kv ...any)  { emit(l.zl.Warn(), msg, kv) }
func (l *zlogger) Error(msg string, kv ...any) { emit(l.zl.Error(), msg, kv) }

// Success is an info entry flagged as a completed milestone.
func (l *zlogger) Success(msg string, kv ...any) {
	emit(l.zl.Info().Str("status", "success"), msg, kv)
}

func (l *zlogger) With(kv ...any) Logger {
	return &zlogger{zl: l.zl.With().Fields(normalize(kv)).Logger(), debug: l.debug}
}

func (l *zlogger) DebugEnabled() bool { return l.debug }

func emit(e *zerolog.Event, msg string, kv []any) {
	if e == nil {
		return
	}
	if len(kv) > 0 {
		e = e.Fields(normalize(kv))
	}
	e.Msg(msg)
}

// normalize turns errors into strings and pads an odd trailing key so
// zerolog never drops a pair.
func normalize(kv []any) []any {
	out := make([]any, 0, len(kv)+1)
	for i, v := range kv {
		if err, ok := v.(error); ok && i%2 == 1 {
			v = err.Error()
		}
		out = append(out, v)
	}
	if len(out)%2 == 1 {
		out = append(out, "")
	}
	return out
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
