package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/botport/internal/logger/logtest"
	"github.com/keshon/botport/internal/module"
)

func TestEvents_BindsWithTrailingClient(t *testing.T) {
	f := newFixture(t)
	var args []any
	f.goModule(t, "events/ready.go", module.Event{
		Name: "ready",
		Once: true,
		Execute: func(_ context.Context, a ...any) error {
			args = a
			return nil
		},
	})
	f.write(t, "events/message.js", `
module.exports = {
  name: 'messageCreate',
  execute(content, client) { console.log('msg ' + content + ' ' + (typeof client.on)); },
};
`)
	f.goModule(t, "events/nameless.go", module.Fields{"execute": "nope"})
	f.write(t, "events/nested/skip.js", `throw new Error('must not load');`)
	f.write(t, "events/README.md", "docs")

	n := f.loader().Events(context.Background(), f.events)
	require.Equal(t, 2, n)
	assert.True(t, f.log.Contains(logtest.LevelError, "Invalid event export"))

	f.client.Emit(context.Background(), "READY", "payload")
	require.Len(t, args, 2)
	assert.Equal(t, "payload", args[0])
	assert.Same(t, f.client, args[1])
	assert.Equal(t, 0, f.client.Len("ready"))

	f.client.Emit(context.Background(), "MESSAGE_CREATE", "hi")
	assert.True(t, f.log.Contains(logtest.LevelInfo, "msg hi function"))
	assert.Equal(t, 1, f.client.Len("messageCreate"))
}

func TestEvents_MissingDirIsSilent(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 0, f.loader().Events(context.Background(), f.events))
	assert.Equal(t, 0, f.log.Count(logtest.LevelError))
}

func TestEvents_SkipsGoTestFiles(t *testing.T) {
	f := newFixture(t)
	f.goModule(t, "events/ready.go", module.Event{
		Name:    "ready",
		Execute: func(context.Context, ...any) error { return nil },
	})
	f.write(t, "events/ready_test.go", "package events\n")

	n := f.loader().Events(context.Background(), f.events)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, f.log.Count(logtest.LevelError))
	assert.Equal(t, 1, f.client.Len("ready"))
}
