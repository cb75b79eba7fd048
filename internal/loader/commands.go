package loader

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/keshon/botport/internal/command"
	"github.com/keshon/botport/internal/infofile"
	"github.com/keshon/botport/internal/module"
)

// Commands loads every command below root into reg and reports whether at
// least one was loaded.
//
// Directories holding a command.info are structured commands: the descriptor
// names the main file and is attached to each command. Module files outside
// command.info and addon.info directories are standalone commands.
func (l *Loader) Commands(ctx context.Context, root string, reg *command.Registry) bool {
	files, err := l.files(root)
	if err != nil {
		l.log.Error("Failed to read addons directory", "path", root, "error", err)
		return false
	}

	total := l.structuredCommands(ctx, files, reg) + l.standaloneCommands(ctx, files, reg)
	if total == 0 {
		l.log.Info("No commands were loaded", "path", root)
		return false
	}
	l.log.Success("Commands loaded", "count", total, "registered", reg.Len())
	return true
}

func (l *Loader) structuredCommands(ctx context.Context, files []string, reg *command.Registry) int {
	n := 0
	for _, f := range files {
		if isDescriptor(f, infofile.CommandFile) {
			n += l.structuredCommand(ctx, f, reg)
		}
	}
	return n
}

func (l *Loader) structuredCommand(ctx context.Context, infoPath string, reg *command.Registry) int {
	dir := filepath.Dir(infoPath)
	info, err := infofile.ParseFile(infoPath, l.log)
	if err != nil {
		l.log.Error("Could not parse command.info", "dir", dir)
		return 0
	}
	if info.MainFile() == "" {
		l.log.Error("Command info file is missing required field mainfile", "path", infoPath)
		return 0
	}

	mainPath := resolveMain(dir, info.MainFile())
	if !isFile(mainPath) {
		l.log.Error("Main file for command not found", "command", info.Label("Unknown"), "path", mainPath)
		return 0
	}

	exp, err := l.load(ctx, mainPath)
	if err != nil {
		l.failed("Error loading command", err, "path", mainPath)
		return 0
	}
	if exp == nil {
		l.log.Error("Failed to import command: missing default export", "path", mainPath)
		return 0
	}
	return l.register(mainPath, exp, info, reg, true)
}

func (l *Loader) standaloneCommands(ctx context.Context, files []string, reg *command.Registry) int {
	described := make(map[string]bool)
	for _, f := range files {
		if isDescriptor(f, infofile.CommandFile) || isDescriptor(f, infofile.AddonFile) {
			described[filepath.Dir(f)] = true
		}
	}

	n := 0
	for _, f := range files {
		if !l.modules.Handles(f) || described[filepath.Dir(f)] {
			continue
		}
		exp, err := l.load(ctx, f)
		switch {
		case errors.Is(err, module.ErrNotRegistered):
			l.log.Debug("Skipping file without a registered module", "path", f)
			continue
		case err != nil:
			l.failed("Error loading command", err, "path", f)
			continue
		case exp == nil:
			continue
		}
		n += l.register(f, exp, nil, reg, false)
	}
	return n
}

// register validates every candidate of exp and inserts the valid ones.
// Standalone files may export things that are not commands at all, so only
// schema errors are reported for them.
func (l *Loader) register(path string, exp module.Export, info infofile.Info, reg *command.Registry, strict bool) int {
	n := 0
	for _, res := range module.Commands(exp) {
		rec, err := res.Get()
		if err != nil {
			if strict || errors.Is(err, module.ErrInvalidSchema) {
				l.log.Error("Invalid command structure", "path", path, "error", err)
			}
			continue
		}
		rec.Info = info
		rec.Source = path
		if prev, replaced := reg.Set(rec).Get(); replaced {
			l.log.Debug("Command name registered twice, keeping the latest",
				"command", rec.Name(), "previous", prev.Source, "source", path)
		}
		l.log.Debug("Loaded command", "command", rec.Name(), "path", path)
		n++
	}
	return n
}
