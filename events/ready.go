// Package events holds the bundled gateway event modules.
package events

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/module"
)

func init() {
	module.Register("events/ready.go", module.Event{Name: "ready", Once: true, Execute: ready})
}

// ready sets the bot's activity once the gateway session is up.
func ready(_ context.Context, args ...any) error {
	if len(args) < 2 {
		return nil
	}
	r, _ := args[0].(*discordgo.Ready)
	client, _ := args[len(args)-1].(bot.Client)
	if r == nil || client == nil || client.Session() == nil {
		return nil
	}
	return client.Session().UpdateGameStatus(0, fmt.Sprintf("/ping in %d servers", len(r.Guilds)))
}
