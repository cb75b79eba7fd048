package command

import (
	"context"
	"time"

	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/logger"
)

// Middleware wraps a handler (logging, permission checks, metrics).
type Middleware func(Handler) Handler

// Chain applies middlewares in order; the first in the list is the outermost.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// WithLogging logs every execution of the wrapped handler with its duration.
func WithLogging(log logger.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, in Interaction, client bot.Client) error {
			start := time.Now()
			user := in.User()
			log.Debug("Running command", "command", in.CommandName(), "user", user.Tag)

			err := next(ctx, in, client)
			if err == nil {
				log.Debug("Command finished",
					"command", in.CommandName(),
					"duration", time.Since(start).String())
			}
			return err
		}
	}
}

// GuildOnly drops interactions that did not come from a guild.
func GuildOnly() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, in Interaction, client bot.Client) error {
			if in.GuildID() == "" {
				return nil
			}
			return next(ctx, in, client)
		}
	}
}
