package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/keshon/botport/internal/logger/logtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventName(t *testing.T) {
	testCases := map[string]string{
		"messageCreate":     "MESSAGE_CREATE",
		"MESSAGE_CREATE":    "MESSAGE_CREATE",
		"message_create":    "MESSAGE_CREATE",
		"ready":             "READY",
		"interactionCreate": "INTERACTION_CREATE",
		"guildMemberAdd":    "GUILD_MEMBER_ADD",
		" guild-create ":    "GUILD_CREATE",
	}
	for in, want := range testCases {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, EventName(in))
		})
	}
}

func TestBus_OnFiresEveryTime(t *testing.T) {
	bus := NewBus(logtest.New())
	var got [][]any
	bus.On("messageCreate", func(_ context.Context, args ...any) error {
		got = append(got, args)
		return nil
	})

	assert.Equal(t, 1, bus.Emit(context.Background(), "MESSAGE_CREATE", "a"))
	assert.Equal(t, 1, bus.Emit(context.Background(), "messageCreate", "b", 2))
	assert.Equal(t, [][]any{{"a"}, {"b", 2}}, got)
	assert.Equal(t, 1, bus.Len("message_create"))
}

func TestBus_OnceFiresOnce(t *testing.T) {
	bus := NewBus(logtest.New())
	calls := 0
	bus.Once("ready", func(context.Context, ...any) error {
		calls++
		return nil
	})

	bus.Emit(context.Background(), "READY")
	bus.Emit(context.Background(), "READY")

	assert.Equal(t, 1, calls)
	assert.Zero(t, bus.Len("ready"))
}

func TestBus_ContainsFailures(t *testing.T) {
	log := logtest.New()
	bus := NewBus(log)
	after := false
	bus.On("x", func(context.Context, ...any) error { return errors.New("bad") })
	bus.On("x", func(context.Context, ...any) error { panic("worse") })
	bus.On("x", func(context.Context, ...any) error {
		after = true
		return nil
	})

	require.NotPanics(t, func() { bus.Emit(context.Background(), "x") })
	assert.True(t, after)
	assert.Equal(t, 2, log.Count(logtest.LevelError))
}

func TestBus_EmitWithoutListeners(t *testing.T) {
	bus := NewBus(logtest.New())
	assert.Zero(t, bus.Emit(context.Background(), "nothing"))
}
