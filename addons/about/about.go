// Package about is the /about command.
package about

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/command"
	"github.com/keshon/botport/internal/module"
	"github.com/keshon/botport/internal/version"
)

const embedColor = 0x5865F2

type about struct{}

func (about) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "about",
		Description: "Discover the bot's origin and purpose",
	}
}

func (about) Run(ctx context.Context, in command.Interaction, _ bot.Client) error {
	return in.Reply(ctx, command.Response{Embeds: []*discordgo.MessageEmbed{aboutEmbed()}})
}

func aboutEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color:       embedColor,
		Description: fmt.Sprintf("ℹ️ **About %s**\n\n%s", version.AppName, version.AppDescription),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Version", Value: version.String(), Inline: true},
			{Name: "Release", Value: version.Release(), Inline: true},
		},
	}
}

func init() {
	module.Register("addons/about/about.go", []module.SlashProvider{about{}})
}
