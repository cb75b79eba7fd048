package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/command"
	"github.com/keshon/botport/internal/command/commandtest"
	"github.com/keshon/botport/internal/logger/logtest"
	"github.com/keshon/botport/internal/module"
)

type fixture struct {
	project string
	addons  string
	events  string
	entries map[string]module.Export
	log     *logtest.Recorder
	client  *commandtest.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	project := t.TempDir()
	log := logtest.New()
	return &fixture{
		project: project,
		addons:  filepath.Join(project, "addons"),
		events:  filepath.Join(project, "events"),
		entries: map[string]module.Export{},
		log:     log,
		client:  commandtest.NewClient(log),
	}
}

// write creates rel (slash-separated, relative to the project) with content.
func (f *fixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(f.project, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// goModule writes a placeholder Go file and registers exp for it.
func (f *fixture) goModule(t *testing.T, rel string, exp module.Export) {
	t.Helper()
	f.write(t, rel, "package x\n")
	f.entries[rel] = exp
}

func (f *fixture) loader() *Loader {
	mods := module.NewMulti(
		module.NewManifestFrom(f.project, f.entries),
		module.NewScript(f.log),
	)
	return New(mods, f.client, f.log)
}

func cmd(name string) module.Command {
	return module.Command{
		Data:    commandtest.Slash(name),
		Execute: func(context.Context, command.Interaction, bot.Client) error { return nil },
	}
}

type panicModules struct{}

func (panicModules) Handles(path string) bool { return filepath.Ext(path) == ".go" }
func (panicModules) Extensions() []string     { return []string{".go"} }
func (panicModules) Load(context.Context, string) (module.Export, error) {
	panic("module blew up")
}
