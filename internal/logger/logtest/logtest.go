// Package logtest records log entries so tests can assert on them.
package logtest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/keshon/botport/internal/logger"
)

const (
	LevelDebug   = "debug"
	LevelInfo    = "info"
	LevelWarn    = "warn"
	LevelError   = "error"
	LevelSuccess = "success"
)

// Entry is one recorded log call.
type Entry struct {
	Level  string
	Msg    string
	Fields map[string]any
}

// Recorder implements logger.Logger in memory.
type Recorder struct {
	mu      *sync.Mutex
	entries *[]Entry
	fields  []any
	debug   bool
}

var _ logger.Logger = (*Recorder)(nil)

// New returns a recorder with debug mode enabled.
func New() *Recorder {
	return &Recorder{mu: &sync.Mutex{}, entries: &[]Entry{}, debug: true}
}

// SetDebug toggles DebugEnabled.
func (r *Recorder) SetDebug(on bool) { r.debug = on }

func (r *Recorder) Debug(msg string, kv ...any)   { r.add(LevelDebug, msg, kv) }
func (r *Recorder) Info(msg string, kv ...any)    { r.add(LevelInfo, msg, kv) }
func (r *Recorder) Warn(msg string, kv ...any)    { r.add(LevelWarn, msg, kv) }
func (r *Recorder) Error(msg string, kv ...any)   { r.add(LevelError, msg, kv) }
func (r *Recorder) Success(msg string, kv ...any) { r.add(LevelSuccess, msg, kv) }

func (r *Recorder) With(kv ...any) logger.Logger {
	return &Recorder{
		mu:      r.mu,
		entries: r.entries,
		fields:  append(append([]any{}, r.fields...), kv...),
		debug:   r.debug,
	}
}

func (r *Recorder) DebugEnabled() bool { return r.debug }

func (r *Recorder) add(level, msg string, kv []any) {
	all := append(append([]any{}, r.fields...), kv...)
	fields := make(map[string]any, len(all)/2)
	for i := 0; i+1 < len(all); i += 2 {
		fields[fmt.Sprint(all[i])] = all[i+1]
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.entries = append(*r.entries, Entry{Level: level, Msg: msg, Fields: fields})
}

// Entries returns every entry at level, or all entries when level is empty.
func (r *Recorder) Entries(level string) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, e := range *r.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of entries at level.
func (r *Recorder) Count(level string) int {
	return len(r.Entries(level))
}

// Contains reports whether any entry at level has msg as a substring.
func (r *Recorder) Contains(level, substr string) bool {
	for _, e := range r.Entries(level) {
		if strings.Contains(e.Msg, substr) {
			return true
		}
	}
	return false
}

// Reset drops all recorded entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.entries = nil
}
