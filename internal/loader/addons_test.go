package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/logger/logtest"
	"github.com/keshon/botport/internal/module"
)

func TestAddons_DisabledTouchesNothing(t *testing.T) {
	f := newFixture(t)
	f.write(t, "addons/good/addon.info", "mainfile: good.go\n")

	l := f.loader()
	scans := 0
	l.dirs = func(string) ([]string, error) {
		scans++
		return nil, nil
	}

	assert.Equal(t, 0, l.Addons(context.Background(), false, f.addons))
	assert.Equal(t, 0, scans)
	assert.True(t, f.log.Contains(logtest.LevelDebug, "disabled"))
}

func TestAddons_LoadsAndSkips(t *testing.T) {
	f := newFixture(t)
	var got bot.Client
	f.write(t, "addons/good/addon.info", "name: Good\nversion: 3.1\ntype: Addon\nmainfile: ./good.go\n")
	f.goModule(t, "addons/good/good.go", module.Addon{Execute: func(_ context.Context, c bot.Client) error {
		got = c
		return nil
	}})
	f.write(t, "addons/noinfo/readme.md", "hi")
	f.write(t, "addons/cmd/addon.info", "type: command\nmainfile: cmd.go\n")
	f.write(t, "addons/nomain/addon.info", "name: nomain\n")
	f.write(t, "addons/missing/addon.info", "mainfile: gone.go\n")
	f.write(t, "addons/failing/addon.info", "mainfile: failing.go\n")
	f.goModule(t, "addons/failing/failing.go", module.Addon{Execute: func(context.Context, bot.Client) error {
		return errors.New("init failed")
	}})
	f.write(t, "addons/panicky/addon.info", "mainfile: panicky.go\n")
	f.goModule(t, "addons/panicky/panicky.go", func(context.Context, bot.Client) error {
		panic("addon panic")
	})
	f.write(t, "addons/shapeless/addon.info", "mainfile: shapeless.go\n")
	f.goModule(t, "addons/shapeless/shapeless.go", module.Fields{"name": "no execute"})

	n := f.loader().Addons(context.Background(), true, f.addons)

	assert.Equal(t, 1, n)
	require.NotNil(t, got)
	assert.Same(t, f.client, got)
	assert.True(t, f.log.Contains(logtest.LevelSuccess, "Loaded 1 of 8 addon directories"))
	assert.True(t, f.log.Contains(logtest.LevelDebug, "no addon.info"))
	assert.True(t, f.log.Contains(logtest.LevelDebug, "type is not addon"))
	assert.True(t, f.log.Contains(logtest.LevelError, "missing mainfile"))
	assert.True(t, f.log.Contains(logtest.LevelError, "Main file for addon not found"))
	assert.True(t, f.log.Contains(logtest.LevelError, "Failed to initialize addon"))
	assert.Equal(t, 5, f.log.Count(logtest.LevelError))
}

func TestAddons_MissingRootIsQuiet(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 0, f.loader().Addons(context.Background(), true, f.addons))
	assert.Equal(t, 0, f.log.Count(logtest.LevelError))
}

func TestAddons_NoDirectories(t *testing.T) {
	f := newFixture(t)
	f.write(t, "addons/loose.js", "")
	assert.Equal(t, 0, f.loader().Addons(context.Background(), true, f.addons))
	assert.True(t, f.log.Contains(logtest.LevelInfo, "No addon directories found"))
}
