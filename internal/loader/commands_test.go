package loader

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/botport/internal/command"
	"github.com/keshon/botport/internal/logger/logtest"
	"github.com/keshon/botport/internal/module"
)

func TestCommands_ArrayKeepsValidSiblings(t *testing.T) {
	f := newFixture(t)
	f.write(t, "addons/multi/command.info", "name: multi\nversion: 2.0\nmainfile: multi.go\n")
	f.goModule(t, "addons/multi/multi.go", []any{
		cmd("alpha"),
		module.Command{Data: "not a schema", Execute: cmd("x").Execute},
		module.Command{Data: &discordgo.ApplicationCommand{Name: "bad", Type: discordgo.MessageApplicationCommand}, Execute: cmd("x").Execute},
		cmd("beta"),
	})

	reg := command.NewRegistry()
	require.True(t, f.loader().Commands(context.Background(), f.addons, reg))

	assert.Equal(t, 2, reg.Len())
	alpha := reg.Get("alpha").MustGet()
	assert.Equal(t, "2.0", alpha.Info.Version())
	assert.True(t, reg.Get("beta").IsPresent())
	assert.Equal(t, 2, f.log.Count(logtest.LevelError))
}

func TestCommands_MissingMainfileDoesNotStopScan(t *testing.T) {
	f := newFixture(t)
	f.write(t, "addons/a_broken/command.info", "name: broken\nmainfile: ./nope.go\n")
	f.write(t, "addons/b_ok/command.info", "name: ok\nmainfile: ok.go\n")
	f.goModule(t, "addons/b_ok/ok.go", cmd("ok"))

	reg := command.NewRegistry()
	assert.True(t, f.loader().Commands(context.Background(), f.addons, reg))

	assert.Equal(t, 1, reg.Len())
	assert.True(t, reg.Get("ok").IsPresent())
	require.Len(t, f.log.Entries(logtest.LevelError), 1)
	assert.True(t, f.log.Contains(logtest.LevelError, "Main file for command not found"))
}

func TestCommands_MissingMainfileField(t *testing.T) {
	f := newFixture(t)
	f.write(t, "addons/nomain/command.info", "name: nomain\n")

	reg := command.NewRegistry()
	assert.False(t, f.loader().Commands(context.Background(), f.addons, reg))
	assert.True(t, f.log.Contains(logtest.LevelError, "missing required field mainfile"))
}

func TestCommands_Standalone(t *testing.T) {
	f := newFixture(t)
	f.write(t, "addons/roll.js", `
module.exports = {
  data: { name: 'roll', description: 'Roll a die' },
  execute(i) { i.reply('4'); },
};
`)
	f.write(t, "addons/lib/helpers.js", `module.exports = { double: (n) => n * 2 };`)
	f.write(t, "addons/lib/util.go", "package lib\n")
	f.write(t, "addons/lib/util_test.go", "package lib\n")
	f.write(t, "addons/notes.txt", "not a module")
	f.write(t, "addons/welcome/addon.info", "type: addon\nmainfile: welcome.go\n")
	f.goModule(t, "addons/welcome/welcome.go", module.Addon{})

	reg := command.NewRegistry()
	require.True(t, f.loader().Commands(context.Background(), f.addons, reg))

	assert.Equal(t, 1, reg.Len())
	roll := reg.Get("roll").MustGet()
	assert.Nil(t, roll.Info)
	assert.Equal(t, 0, f.log.Count(logtest.LevelError))
}

func TestCommands_LastWriterWins(t *testing.T) {
	f := newFixture(t)
	f.write(t, "addons/a/command.info", "mainfile: a.go\n")
	f.goModule(t, "addons/a/a.go", cmd("ping"))
	f.write(t, "addons/b/command.info", "mainfile: b.go\n")
	f.goModule(t, "addons/b/b.go", cmd("ping"))

	reg := command.NewRegistry()
	require.True(t, f.loader().Commands(context.Background(), f.addons, reg))

	assert.Equal(t, 1, reg.Len())
	assert.Contains(t, reg.Get("ping").MustGet().Source, "b.go")
	assert.True(t, f.log.Contains(logtest.LevelDebug, "registered twice"))
}

func TestCommands_ScriptErrorLoggedWithStack(t *testing.T) {
	f := newFixture(t)
	f.write(t, "addons/bad.js", `throw new Error('syntax of doom');`)
	f.write(t, "addons/good.js", `module.exports = { data: { name: 'good', description: 'g' }, execute() {} };`)

	reg := command.NewRegistry()
	require.True(t, f.loader().Commands(context.Background(), f.addons, reg))

	assert.True(t, reg.Get("good").IsPresent())
	assert.True(t, f.log.Contains(logtest.LevelError, "Error loading command"))
	assert.True(t, f.log.Contains(logtest.LevelDebug, "Full error details"))
}

func TestCommands_PanicContained(t *testing.T) {
	f := newFixture(t)
	f.write(t, "addons/a/command.info", "mainfile: a.go\n")
	f.write(t, "addons/a/a.go", "package a\n")

	l := New(panicModules{}, f.client, f.log)
	assert.False(t, l.Commands(context.Background(), f.addons, command.NewRegistry()))
	assert.True(t, f.log.Contains(logtest.LevelError, "Error loading command"))
	assert.True(t, f.log.Contains(logtest.LevelDebug, "Full error details"))
}

func TestCommands_MissingRoot(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.loader().Commands(context.Background(), f.addons, command.NewRegistry()))
	assert.True(t, f.log.Contains(logtest.LevelError, "Failed to read addons directory"))
}
