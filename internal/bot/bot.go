// Package bot defines the live client handle that commands, addons and event
// modules receive, and the event bus behind its On/Once subscriptions.
package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Listener handles one emitted event. Args are the event payloads, with the
// client appended last when bound by the event loader.
type Listener func(ctx context.Context, args ...any) error

// Client is the handle passed explicitly to every component that needs the
// gateway. It is never stored in package state.
type Client interface {
	On(event string, fn Listener)
	Once(event string, fn Listener)
	// Session exposes the underlying gateway session. It may be nil in tests.
	Session() *discordgo.Session
}
