// Package discord connects the framework to the Discord gateway: it forwards
// gateway events to the event bus, routes interactions and publishes the
// registered slash commands.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/command"
	"github.com/keshon/botport/internal/logger"
)

// Dispatcher routes one interaction.
type Dispatcher interface {
	Dispatch(ctx context.Context, in command.Interaction)
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(ctx context.Context, in command.Interaction)

func (f DispatchFunc) Dispatch(ctx context.Context, in command.Interaction) { f(ctx, in) }

// Bot is the live client: a gateway session plus the event bus listeners
// subscribe through.
type Bot struct {
	dg  *discordgo.Session
	bus *bot.Bus
	log logger.Logger
}

// New creates a session for token with every intent enabled. The gateway
// is not opened until Open.
func New(token string, bus *bot.Bus, log logger.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsAll
	dg.StateEnabled = true
	return &Bot{dg: dg, bus: bus, log: log}, nil
}

func (b *Bot) On(event string, fn bot.Listener)   { b.bus.On(event, fn) }
func (b *Bot) Once(event string, fn bot.Listener) { b.bus.Once(event, fn) }
func (b *Bot) Session() *discordgo.Session        { return b.dg }

// Attach installs the gateway handlers. Every gateway event is emitted on
// the bus under its gateway name with the typed payload as the only
// argument; interactions also go to d.
func (b *Bot) Attach(ctx context.Context, d Dispatcher) {
	b.dg.AddHandler(func(_ *discordgo.Session, e *discordgo.Event) {
		if e.Struct == nil {
			return
		}
		b.bus.Emit(ctx, e.Type, e.Struct)
	})
	b.dg.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		d.Dispatch(ctx, NewInteraction(ic.Interaction, s, s.State.Channel))
	})
	b.dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.log.Success("Logged in", "user", userTag(r.User), "guilds", len(r.Guilds))
	})
}

// Open connects to the gateway.
func (b *Bot) Open() error {
	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	return b.dg.Close()
}
