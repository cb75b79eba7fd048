package loader

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/module"
)

// Events binds every event module directly inside dir to the client and
// returns how many were bound. A missing dir is not an error.
func (l *Loader) Events(ctx context.Context, dir string) int {
	l.log.Info("Checking for event handlers...")
	files, err := l.top(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.log.Error("Could not read events directory", "path", dir, "error", err)
		}
		return 0
	}

	bound := 0
	for _, f := range files {
		if !l.modules.Handles(f) {
			continue
		}
		if l.event(ctx, f) {
			bound++
		}
	}
	if bound > 0 {
		l.log.Success("Event handlers loaded", "count", bound)
	}
	return bound
}

func (l *Loader) event(ctx context.Context, path string) bool {
	file := filepath.Base(path)
	l.log.Debug("Loading event", "file", file)

	exp, err := l.load(ctx, path)
	if err != nil {
		l.failed("Failed to import event", err, "file", file)
		return false
	}
	evt, err := module.EventBinding(exp).Get()
	if err != nil {
		l.log.Error("Invalid event export", "file", file, "error", err)
		return false
	}

	listener := l.withClient(evt.Execute)
	if evt.Once {
		l.client.Once(evt.Name, listener)
		l.log.Success("Loaded event (once)", "event", evt.Name)
	} else {
		l.client.On(evt.Name, listener)
		l.log.Success("Loaded event", "event", evt.Name)
	}
	return true
}

// withClient appends the live client to the emitted arguments.
func (l *Loader) withClient(fn bot.Listener) bot.Listener {
	return func(ctx context.Context, args ...any) error {
		full := make([]any, 0, len(args)+1)
		full = append(full, args...)
		return fn(ctx, append(full, l.client)...)
	}
}
