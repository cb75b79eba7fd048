// Package commandtest provides in-memory interactions, channels and clients
// for tests.
package commandtest

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/command"
	"github.com/keshon/botport/internal/logger"
)

// Interaction records every reply attempt made against it.
type Interaction struct {
	mu sync.Mutex

	KindValue   command.Kind
	Name        string
	Custom      string
	UserValue   command.User
	Guild       string
	OptionsMap  map[string]any
	ChannelVal  command.Channel
	IsReplied   bool
	IsDeferred  bool
	ReplyErr    error
	FollowUpErr error

	Replies   []command.Response
	FollowUps []command.Response
	Defers    int
}

var _ command.Interaction = (*Interaction)(nil)

// ChatInput returns a slash-command interaction for name.
func ChatInput(name string) *Interaction {
	return &Interaction{
		KindValue: command.KindChatInput,
		Name:      name,
		UserValue: command.User{ID: "100", Tag: "tester"},
		Guild:     "guild-1",
	}
}

// Button returns a button interaction with customID in ch.
func Button(customID string, ch command.Channel) *Interaction {
	return &Interaction{
		KindValue:  command.KindButton,
		Custom:     customID,
		UserValue:  command.User{ID: "100", Tag: "tester"},
		Guild:      "guild-1",
		ChannelVal: ch,
	}
}

func (i *Interaction) Kind() command.Kind      { return i.KindValue }
func (i *Interaction) Type() string            { return i.KindValue.String() }
func (i *Interaction) CommandName() string     { return i.Name }
func (i *Interaction) CustomID() string        { return i.Custom }
func (i *Interaction) User() command.User      { return i.UserValue }
func (i *Interaction) GuildID() string         { return i.Guild }
func (i *Interaction) Options() map[string]any { return i.OptionsMap }
func (i *Interaction) Channel() command.Channel {
	return i.ChannelVal
}

func (i *Interaction) Replied() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.IsReplied
}

func (i *Interaction) Deferred() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.IsDeferred
}

func (i *Interaction) Reply(_ context.Context, r command.Response) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.IsReplied || i.IsDeferred {
		return command.ErrAlreadyAcknowledged
	}
	if i.ReplyErr != nil {
		return i.ReplyErr
	}
	i.Replies = append(i.Replies, r)
	i.IsReplied = true
	return nil
}

func (i *Interaction) Defer(context.Context, bool) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.IsReplied || i.IsDeferred {
		return command.ErrAlreadyAcknowledged
	}
	i.Defers++
	i.IsDeferred = true
	return nil
}

func (i *Interaction) FollowUp(_ context.Context, r command.Response) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.IsReplied && !i.IsDeferred {
		return command.ErrNotAcknowledged
	}
	if i.FollowUpErr != nil {
		return i.FollowUpErr
	}
	i.FollowUps = append(i.FollowUps, r)
	return nil
}

// Channel is a plain channel without permission editing.
type Channel struct{ IDValue string }

func (c *Channel) ID() string { return c.IDValue }

// TextChannel is a guild text channel recording permission edits.
type TextChannel struct {
	Channel
	DenyErr error

	mu     sync.Mutex
	Denied []string
}

var _ command.PermissionEditor = (*TextChannel)(nil)

func (c *TextChannel) DenySendMessages(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Denied = append(c.Denied, userID)
	return c.DenyErr
}

// Client is a bot.Client backed by a real Bus and no session.
type Client struct {
	*bot.Bus
}

var _ bot.Client = (*Client)(nil)

// NewClient returns a client whose bus logs to log.
func NewClient(log logger.Logger) *Client {
	return &Client{Bus: bot.NewBus(log)}
}

func (c *Client) Session() *discordgo.Session { return nil }

// Slash builds a chat-input schema named name.
func Slash(name string) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        name,
		Description: name + " command",
		Type:        discordgo.ChatApplicationCommand,
	}
}
