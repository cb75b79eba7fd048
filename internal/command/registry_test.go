package command_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/command"
	"github.com/keshon/botport/internal/command/commandtest"
	"github.com/keshon/botport/internal/logger/logtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(name, source string) *command.Record {
	return &command.Record{
		Data:    commandtest.Slash(name),
		Execute: func(context.Context, command.Interaction, bot.Client) error { return nil },
		Source:  source,
	}
}

func TestRegistry_SetGetLen(t *testing.T) {
	reg := command.NewRegistry()
	assert.True(t, reg.Set(record("ping", "a")).IsAbsent())

	got, ok := reg.Get("ping").Get()
	require.True(t, ok)
	assert.Equal(t, "a", got.Source)
	assert.Equal(t, 1, reg.Len())
	assert.True(t, reg.Get("pong").IsAbsent())
}

func TestRegistry_LastWriterWins(t *testing.T) {
	reg := command.NewRegistry()
	reg.Set(record("ping", "first"))

	prev, replaced := reg.Set(record("ping", "second")).Get()
	require.True(t, replaced)
	assert.Equal(t, "first", prev.Source)

	assert.Equal(t, "second", reg.Get("ping").MustGet().Source)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_AllAndDefinitionsSorted(t *testing.T) {
	reg := command.NewRegistry()
	for _, n := range []string{"roll", "about", "ping"} {
		reg.Set(record(n, n))
	}

	var names []string
	for _, rec := range reg.All() {
		names = append(names, rec.Name())
	}
	assert.Equal(t, []string{"about", "ping", "roll"}, names)

	defs := reg.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "about", defs[0].Name)
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	reg := command.NewRegistry()
	reg.Set(record("ping", "a"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, reg.Get("ping").IsPresent())
			assert.Len(t, reg.All(), 1)
		}()
	}
	wg.Wait()
}

func TestChain_OrderAndGuildOnly(t *testing.T) {
	var order []string
	mark := func(tag string) command.Middleware {
		return func(next command.Handler) command.Handler {
			return func(ctx context.Context, in command.Interaction, c bot.Client) error {
				order = append(order, tag)
				return next(ctx, in, c)
			}
		}
	}
	h := command.Chain(func(context.Context, command.Interaction, bot.Client) error {
		order = append(order, "handler")
		return nil
	}, mark("outer"), mark("inner"), command.GuildOnly())

	require.NoError(t, h(context.Background(), commandtest.ChatInput("x"), nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)

	order = nil
	dm := commandtest.ChatInput("x")
	dm.Guild = ""
	require.NoError(t, h(context.Background(), dm, nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestWithLogging_PassesErrorThrough(t *testing.T) {
	log := logtest.New()
	boom := errors.New("boom")
	h := command.Chain(func(context.Context, command.Interaction, bot.Client) error {
		return boom
	}, command.WithLogging(log))

	err := h(context.Background(), commandtest.ChatInput("x"), nil)
	assert.ErrorIs(t, err, boom)
	assert.True(t, log.Contains(logtest.LevelDebug, "Running command"))
	assert.False(t, log.Contains(logtest.LevelDebug, "Command finished"))
}

func TestAnswered(t *testing.T) {
	in := commandtest.ChatInput("x")
	assert.False(t, command.Answered(in))
	require.NoError(t, in.Defer(context.Background(), true))
	assert.True(t, command.Answered(in))
}
