// Package router dispatches inbound interactions to registered commands and
// the built-in ticket handling. Dispatch never panics and always ends in a
// reply, a follow-up or an explicit no-op.
package router

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/command"
	"github.com/keshon/botport/internal/guard"
	"github.com/keshon/botport/internal/lang"
	"github.com/keshon/botport/internal/logger"
)

// State is the branch an interaction was routed through.
type State int

const (
	Unhandled State = iota
	ChatInputCommand
	Button
	ModalSubmit
	StringSelectMenu
)

func (s State) String() string {
	switch s {
	case ChatInputCommand:
		return "chat_input_command"
	case Button:
		return "button"
	case ModalSubmit:
		return "modal_submit"
	case StringSelectMenu:
		return "string_select_menu"
	default:
		return "unhandled"
	}
}

// Outcome is the result of one dispatch. Err is set when a handler failed;
// the failure has already been logged and reported to the user.
type Outcome struct {
	State          State
	Handled        bool
	SkippedByAddon bool
	Err            error
	TraceID        string
}

type Router struct {
	registry *command.Registry
	client   bot.Client
	msgs     lang.Messages
	log      logger.Logger
	mws      []command.Middleware
}

// New returns a router over reg. Middlewares wrap every command handler,
// the first being outermost.
func New(reg *command.Registry, client bot.Client, msgs lang.Messages, log logger.Logger, mws ...command.Middleware) *Router {
	return &Router{registry: reg, client: client, msgs: msgs, log: log, mws: mws}
}

// Dispatch routes in by kind.
func (r *Router) Dispatch(ctx context.Context, in command.Interaction) Outcome {
	trace := ulid.Make().String()
	log := r.log.With("trace", trace)

	id := in.CustomID()
	if id == "" {
		id = in.Type()
	}
	log.Debug("New interaction received", "id", id)

	var out Outcome
	switch in.Kind() {
	case command.KindChatInput:
		out = r.chatInput(ctx, in, log)
	case command.KindButton, command.KindModalSubmit:
		out = r.buttonOrModal(ctx, in, log)
	case command.KindStringSelect:
		if in.CustomID() == TicketMenu {
			log.Debug("Skipping interaction handled by an addon", "custom_id", TicketMenu)
			out = Outcome{State: StringSelectMenu, Handled: true, SkippedByAddon: true}
			break
		}
		fallthrough
	default:
		log.Debug("Unhandled interaction type", "type", in.Type())
		out = Outcome{State: Unhandled}
	}
	out.TraceID = trace
	return out
}

func (r *Router) chatInput(ctx context.Context, in command.Interaction, log logger.Logger) Outcome {
	out := Outcome{State: ChatInputCommand}
	name := in.CommandName()
	rec, ok := r.registry.Get(name).Get()
	if !ok {
		log.Warn("Command not found", "command", name)
		return out
	}

	out.Handled = true
	h := command.Chain(rec.Execute, r.mws...)
	err := guard.Run(func() error { return h(ctx, in, r.client) })
	if err == nil {
		return out
	}

	out.Err = err
	log.Error("Error running command", "command", name, "error", err)
	if log.DebugEnabled() {
		if stack := guard.Stack(err); stack != "" {
			log.Debug("Full error details", "command", name, "stack", stack)
		}
	}
	r.sendError(ctx, in, r.msgs.CommandError, log)
	return out
}

// sendError reports a failure to the user through whichever path is still
// open. Its own failure is logged only.
func (r *Router) sendError(ctx context.Context, in command.Interaction, msg string, log logger.Logger) {
	resp := command.Response{Content: msg, Ephemeral: true}
	err := guard.Run(func() error {
		if command.Answered(in) {
			return in.FollowUp(ctx, resp)
		}
		return in.Reply(ctx, resp)
	})
	if err != nil {
		log.Error("Failed to send error reply", "error", err)
	}
}
