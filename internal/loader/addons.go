package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/keshon/botport/internal/guard"
	"github.com/keshon/botport/internal/infofile"
	"github.com/keshon/botport/internal/module"
)

// Addons initialises every addon directory directly below root and returns
// how many loaded. Nothing is read from disk when enabled is false.
func (l *Loader) Addons(ctx context.Context, enabled bool, root string) int {
	if !enabled {
		l.log.Debug("Addon loading is disabled (ADDONS=false)")
		return 0
	}

	l.log.Info("Loading addons...")
	dirs, err := l.dirs(root)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.log.Error("Could not read addons directory", "path", root, "error", err)
		}
		return 0
	}
	if len(dirs) == 0 {
		l.log.Info("No addon directories found", "path", root)
		return 0
	}

	loaded := 0
	for _, name := range dirs {
		if l.addon(ctx, root, name) {
			loaded++
		}
	}

	summary := fmt.Sprintf("Loaded %d of %d addon directories", loaded, len(dirs))
	if loaded > 0 {
		l.log.Success(summary)
	} else {
		l.log.Info(summary)
	}
	return loaded
}

func (l *Loader) addon(ctx context.Context, root, name string) bool {
	dir := filepath.Join(root, name)
	infoPath := filepath.Join(dir, infofile.AddonFile)
	if !isFile(infoPath) {
		l.log.Debug("Skipping directory: no addon.info file found", "addon", name)
		return false
	}

	info, err := infofile.ParseFile(infoPath, l.log)
	if err != nil {
		l.log.Error("Failed to parse addon.info", "addon", name)
		return false
	}
	if t := info.Type(); t != "" && !strings.EqualFold(t, "addon") {
		l.log.Debug("Skipping directory: type is not addon", "addon", name, "type", t)
		return false
	}
	if info.MainFile() == "" {
		l.log.Error("Addon is missing mainfile field in addon.info", "addon", name)
		return false
	}
	mainPath := resolveMain(dir, info.MainFile())
	if !isFile(mainPath) {
		l.log.Error("Main file for addon not found", "addon", name, "mainfile", info.MainFile())
		return false
	}

	label, version := info.Label(name), info.VersionOr("1.0")
	l.log.Debug("Loading addon", "addon", label, "version", version)

	exp, err := l.load(ctx, mainPath)
	if err != nil {
		l.failed("Error loading addon", err, "addon", name)
		return false
	}
	addon, err := module.AddonInit(exp).Get()
	if err != nil {
		l.log.Error("Failed to initialize addon", "addon", name, "error", err)
		return false
	}
	if err := guard.Run(func() error { return addon.Execute(ctx, l.client) }); err != nil {
		l.failed("Error loading addon", err, "addon", name)
		return false
	}

	l.log.Success("Loaded addon", "addon", label, "version", version)
	return true
}
