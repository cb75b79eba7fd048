// Package ping is the /ping command.
package ping

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/command"
	"github.com/keshon/botport/internal/module"
)

func init() {
	module.Register("addons/ping/ping.go", module.Command{
		Data: &discordgo.ApplicationCommand{
			Name:        "ping",
			Description: "Check the bot's latency",
		},
		Execute: run,
	})
}

func run(ctx context.Context, in command.Interaction, client bot.Client) error {
	latency := "unknown"
	if s := client.Session(); s != nil {
		latency = s.HeartbeatLatency().Round(time.Millisecond).String()
	}
	return in.Reply(ctx, command.Response{Content: fmt.Sprintf("🏓 Pong! Heartbeat %s", latency)})
}
