// Package welcome greets new members in the guild's system channel.
package welcome

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/module"
)

// Sender posts a message to a channel.
type Sender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

func init() {
	module.Register("addons/welcome/welcome.go", module.Addon{Execute: setup})
}

func setup(_ context.Context, client bot.Client) error {
	s := client.Session()
	if s == nil {
		return errors.New("welcome addon needs a gateway session")
	}
	client.On("GUILD_MEMBER_ADD", func(ctx context.Context, args ...any) error {
		ev, ok := first[*discordgo.GuildMemberAdd](args)
		if !ok || ev.Member == nil || ev.User == nil {
			return nil
		}
		guild, err := s.State.Guild(ev.GuildID)
		if err != nil || guild.SystemChannelID == "" {
			return nil
		}
		return greet(ctx, s, guild.SystemChannelID, ev.User.ID)
	})
	return nil
}

func greet(ctx context.Context, s Sender, channelID, userID string) error {
	_, err := s.ChannelMessageSend(channelID, fmt.Sprintf("👋 Welcome <@%s>!", userID), discordgo.WithContext(ctx))
	return err
}

func first[T any](args []any) (T, bool) {
	var zero T
	if len(args) == 0 {
		return zero, false
	}
	v, ok := args[0].(T)
	return v, ok
}
