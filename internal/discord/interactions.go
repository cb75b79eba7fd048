package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/botport/internal/command"
)

// REST is the subset of the session the interaction adapter calls.
type REST interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64, options ...discordgo.RequestOption) error
}

// ChannelLookup resolves a channel, usually from the session state cache.
type ChannelLookup func(channelID string) (*discordgo.Channel, error)

// Interaction adapts a gateway interaction to command.Interaction.
type Interaction struct {
	i        *discordgo.Interaction
	rest     REST
	channels ChannelLookup

	mu       sync.Mutex
	replied  bool
	deferred bool
}

func NewInteraction(i *discordgo.Interaction, rest REST, channels ChannelLookup) *Interaction {
	return &Interaction{i: i, rest: rest, channels: channels}
}

func (in *Interaction) Kind() command.Kind {
	switch in.i.Type {
	case discordgo.InteractionApplicationCommand:
		if in.i.ApplicationCommandData().CommandType == discordgo.ChatApplicationCommand {
			return command.KindChatInput
		}
	case discordgo.InteractionMessageComponent:
		switch in.i.MessageComponentData().ComponentType {
		case discordgo.ButtonComponent:
			return command.KindButton
		case discordgo.SelectMenuComponent:
			return command.KindStringSelect
		}
	case discordgo.InteractionModalSubmit:
		return command.KindModalSubmit
	}
	return command.KindUnknown
}

func (in *Interaction) Type() string { return in.i.Type.String() }

func (in *Interaction) CommandName() string {
	if in.i.Type != discordgo.InteractionApplicationCommand {
		return ""
	}
	return in.i.ApplicationCommandData().Name
}

func (in *Interaction) CustomID() string {
	switch in.i.Type {
	case discordgo.InteractionMessageComponent:
		return in.i.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		return in.i.ModalSubmitData().CustomID
	}
	return ""
}

func (in *Interaction) User() command.User {
	u := in.i.User
	if in.i.Member != nil && in.i.Member.User != nil {
		u = in.i.Member.User
	}
	if u == nil {
		return command.User{}
	}
	return command.User{ID: u.ID, Tag: userTag(u)}
}

// userTag is the username, with the discriminator for legacy accounts.
func userTag(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

func (in *Interaction) GuildID() string { return in.i.GuildID }

// Options flattens subcommand options into one map.
func (in *Interaction) Options() map[string]any {
	out := map[string]any{}
	if in.i.Type != discordgo.InteractionApplicationCommand {
		return out
	}
	collectOptions(in.i.ApplicationCommandData().Options, out)
	return out
}

func collectOptions(opts []*discordgo.ApplicationCommandInteractionDataOption, out map[string]any) {
	for _, o := range opts {
		switch o.Type {
		case discordgo.ApplicationCommandOptionSubCommand, discordgo.ApplicationCommandOptionSubCommandGroup:
			collectOptions(o.Options, out)
		default:
			out[o.Name] = o.Value
		}
	}
}

func (in *Interaction) Replied() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.replied
}

func (in *Interaction) Deferred() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.deferred
}

func (in *Interaction) Reply(ctx context.Context, r command.Response) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.replied || in.deferred {
		return command.ErrAlreadyAcknowledged
	}
	err := in.rest.InteractionRespond(in.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: r.Content,
			Embeds:  r.Embeds,
			Flags:   flags(r.Ephemeral),
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	in.replied = true
	return nil
}

func (in *Interaction) Defer(ctx context.Context, ephemeral bool) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.replied || in.deferred {
		return command.ErrAlreadyAcknowledged
	}
	err := in.rest.InteractionRespond(in.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(ephemeral)},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	in.deferred = true
	return nil
}

func (in *Interaction) FollowUp(ctx context.Context, r command.Response) error {
	if !in.Replied() && !in.Deferred() {
		return command.ErrNotAcknowledged
	}
	_, err := in.rest.FollowupMessageCreate(in.i, true, &discordgo.WebhookParams{
		Content: r.Content,
		Embeds:  r.Embeds,
		Flags:   flags(r.Ephemeral),
	}, discordgo.WithContext(ctx))
	return err
}

// Channel returns a PermissionEditor for guild text channels.
func (in *Interaction) Channel() command.Channel {
	if in.i.ChannelID == "" {
		return nil
	}
	base := channel{id: in.i.ChannelID}
	if in.i.GuildID == "" || in.channels == nil {
		return base
	}
	ch, err := in.channels(in.i.ChannelID)
	if err != nil || ch == nil {
		return base
	}
	switch ch.Type {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews:
		return &textChannel{channel: base, rest: in.rest}
	}
	return base
}

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

type channel struct{ id string }

func (c channel) ID() string { return c.id }

type textChannel struct {
	channel
	rest REST
}

// DenySendMessages adds a member overwrite denying SendMessages.
func (c *textChannel) DenySendMessages(ctx context.Context, userID string) error {
	return c.rest.ChannelPermissionSet(c.id, userID, discordgo.PermissionOverwriteTypeMember,
		0, discordgo.PermissionSendMessages, discordgo.WithContext(ctx))
}
