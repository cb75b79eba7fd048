// Package command holds the validated command records, the registry they live
// in, and the interaction abstraction handlers are written against.
package command

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/infofile"
)

// Handler executes a command for one interaction.
type Handler func(ctx context.Context, in Interaction, client bot.Client) error

// Record is a registered command. It is immutable once in the registry.
type Record struct {
	Data    *discordgo.ApplicationCommand
	Execute Handler
	// Info is the parsed command.info of structured commands, nil otherwise.
	Info infofile.Info
	// Source is the file the command was loaded from.
	Source string
}

// Name is the declared command name.
func (r *Record) Name() string { return r.Data.Name }

// Kind classifies an inbound interaction.
type Kind int

const (
	KindUnknown Kind = iota
	KindChatInput
	KindButton
	KindModalSubmit
	KindStringSelect
)

func (k Kind) String() string {
	switch k {
	case KindChatInput:
		return "chat_input"
	case KindButton:
		return "button"
	case KindModalSubmit:
		return "modal_submit"
	case KindStringSelect:
		return "string_select"
	default:
		return "unknown"
	}
}

// User identifies who triggered an interaction.
type User struct {
	ID  string
	Tag string
}

// Response is the content of a reply or follow-up.
type Response struct {
	Content   string
	Ephemeral bool
	Embeds    []*discordgo.MessageEmbed
}

var (
	ErrAlreadyAcknowledged = errors.New("interaction already acknowledged")
	ErrNotAcknowledged     = errors.New("interaction not acknowledged yet")
)

// Interaction is one inbound user action. Implementations track whether the
// interaction has been answered: Reply fails with ErrAlreadyAcknowledged once
// Replied or Deferred is true, after which only FollowUp may be used.
type Interaction interface {
	Kind() Kind
	// Type is the raw platform type, for logs.
	Type() string
	CommandName() string
	CustomID() string
	User() User
	GuildID() string
	// Options maps option names to values for chat-input commands.
	Options() map[string]any
	Replied() bool
	Deferred() bool
	Reply(ctx context.Context, r Response) error
	Defer(ctx context.Context, ephemeral bool) error
	FollowUp(ctx context.Context, r Response) error
	// Channel is nil when the interaction carries no channel.
	Channel() Channel
}

// Answered reports whether the interaction was replied to or deferred.
func Answered(in Interaction) bool {
	return in.Replied() || in.Deferred()
}

// Channel is the channel an interaction happened in.
type Channel interface {
	ID() string
}

// PermissionEditor is implemented by channels whose permission overwrites
// can be edited, i.e. guild text channels.
type PermissionEditor interface {
	Channel
	DenySendMessages(ctx context.Context, userID string) error
}
