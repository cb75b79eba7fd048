package events

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/botport/internal/module"
)

func TestReadyRegistered(t *testing.T) {
	res := module.EventBinding(module.Registered()["events/ready.go"])
	evt, err := res.Get()
	require.NoError(t, err)
	assert.Equal(t, "ready", evt.Name)
	assert.True(t, evt.Once)
}

func TestReady_IgnoresMissingClient(t *testing.T) {
	assert.NoError(t, ready(context.Background(), &discordgo.Ready{}))
	assert.NoError(t, ready(context.Background(), &discordgo.Ready{}, nil))
}
