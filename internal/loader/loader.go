// Package loader discovers command, addon and event modules on disk and wires
// them into the registry and the client's event bus. Every failure is logged
// and confined to the module that caused it.
package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/guard"
	"github.com/keshon/botport/internal/logger"
	"github.com/keshon/botport/internal/module"
	"github.com/keshon/botport/internal/scan"
)

// Modules loads module files and knows which extensions are modules.
type Modules interface {
	module.Loader
	Handles(path string) bool
}

// Loader holds what every load phase needs. The client is the live handle
// passed to addons and appended to event listener arguments.
type Loader struct {
	modules Modules
	client  bot.Client
	log     logger.Logger

	files func(root string) ([]string, error)
	dirs  func(root string) ([]string, error)
	top   func(root string) ([]string, error)
}

func New(modules Modules, client bot.Client, log logger.Logger) *Loader {
	return &Loader{
		modules: modules,
		client:  client,
		log:     log,
		files:   scan.Files,
		dirs:    scan.Dirs,
		top:     scan.Top,
	}
}

// load runs the module loader with panics turned into errors.
func (l *Loader) load(ctx context.Context, path string) (module.Export, error) {
	var exp module.Export
	err := guard.Run(func() error {
		var err error
		exp, err = l.modules.Load(ctx, path)
		return err
	})
	return exp, err
}

// failed logs err and, in debug mode, its stack when one is known.
func (l *Loader) failed(msg string, err error, kv ...any) {
	l.log.Error(msg, append(kv, "error", err)...)
	if !l.log.DebugEnabled() {
		return
	}
	if stack := guard.Stack(err); stack != "" {
		l.log.Debug("Full error details", append(kv, "stack", stack)...)
	}
}

// resolveMain resolves a descriptor's mainfile against its directory.
func resolveMain(dir, main string) string {
	if strings.HasPrefix(main, "./") || strings.HasPrefix(main, "../") {
		if abs, err := filepath.Abs(filepath.Join(dir, main)); err == nil {
			return abs
		}
	}
	return filepath.Join(dir, main)
}

func isFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func isDescriptor(path, name string) bool {
	return strings.EqualFold(filepath.Base(path), name)
}
