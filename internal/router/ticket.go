package router

import (
	"context"

	"github.com/keshon/botport/internal/command"
	"github.com/keshon/botport/internal/guard"
	"github.com/keshon/botport/internal/logger"
)

const (
	// CloseTicket is the one ticket action handled here.
	CloseTicket = "closeTicket"
	// TicketMenu is the select menu owned by the ticket addon.
	TicketMenu = "ticket_menu"
)

// addonOwned lists custom ids the ticket addon answers itself.
var addonOwned = map[string]bool{
	"archive_ticket":      true,
	"archiveTicket":       true,
	"close_ticket":        true,
	"delete_ticket":       true,
	"close_ticket_reason": true,
	"close_reason_modal":  true,
	TicketMenu:            true,
}

// AddonOwned reports whether id is answered by the ticket addon.
func AddonOwned(id string) bool { return addonOwned[id] }

func (r *Router) buttonOrModal(ctx context.Context, in command.Interaction, log logger.Logger) Outcome {
	out := r.ticket(ctx, in, log)
	out.State = Button
	if in.Kind() == command.KindModalSubmit {
		out.State = ModalSubmit
	}

	id := in.CustomID()
	switch {
	case !out.Handled:
		log.Debug("Unhandled button/modal interaction", "custom_id", id)
	case out.Err != nil:
		log.Error("Error processing ticket interaction", "custom_id", id, "error", out.Err)
	case !out.SkippedByAddon:
		log.Debug("Processed ticket interaction", "custom_id", id)
	}
	return out
}

func (r *Router) ticket(ctx context.Context, in command.Interaction, log logger.Logger) Outcome {
	id := in.CustomID()
	if AddonOwned(id) {
		log.Debug("Skipping interaction handled by an addon", "custom_id", id)
		return Outcome{Handled: true, SkippedByAddon: true}
	}
	if command.Answered(in) {
		return Outcome{Handled: true}
	}
	ch, ok := in.Channel().(command.PermissionEditor)
	if !ok || id != CloseTicket {
		return Outcome{}
	}

	err := guard.Run(func() error { return r.closeTicket(ctx, in, ch, log) })
	if err == nil {
		return Outcome{Handled: true}
	}
	if !command.Answered(in) {
		_ = guard.Run(func() error {
			return in.Reply(ctx, command.Response{Content: r.msgs.InteractionError, Ephemeral: true})
		})
	}
	return Outcome{Handled: true, Err: err}
}

// closeTicket confirms, then revokes the user's right to post. A failed
// revoke is only logged.
func (r *Router) closeTicket(ctx context.Context, in command.Interaction, ch command.PermissionEditor, log logger.Logger) error {
	if err := in.Reply(ctx, command.Response{Content: r.msgs.TicketClosing, Ephemeral: true}); err != nil {
		return err
	}
	user := in.User()
	if err := ch.DenySendMessages(ctx, user.ID); err != nil {
		log.Debug("Could not revoke send permission", "channel", ch.ID(), "user", user.ID, "error", err)
	}
	return nil
}
