package module

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/mo"

	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/command"
)

// Commands validates a command module export: one command or an ordered
// sequence. Every candidate yields one result, in order, so invalid entries
// never affect their siblings.
func Commands(exp Export) []mo.Result[*command.Record] {
	if exp == nil {
		return []mo.Result[*command.Record]{mo.Err[*command.Record](ErrNoExport)}
	}
	var out []mo.Result[*command.Record]
	for _, candidate := range candidates(exp) {
		out = append(out, commandRecord(candidate))
	}
	return out
}

func candidates(exp Export) []any {
	switch v := exp.(type) {
	case []any:
		return v
	case []Command:
		list := make([]any, len(v))
		for i := range v {
			list[i] = v[i]
		}
		return list
	case []*Command:
		list := make([]any, len(v))
		for i := range v {
			list[i] = v[i]
		}
		return list
	case []Fields:
		list := make([]any, len(v))
		for i := range v {
			list[i] = v[i]
		}
		return list
	case []SlashProvider:
		list := make([]any, len(v))
		for i := range v {
			list[i] = v[i]
		}
		return list
	default:
		return []any{exp}
	}
}

func commandRecord(candidate any) mo.Result[*command.Record] {
	var (
		data    any
		execute command.Handler
	)
	switch c := candidate.(type) {
	case Command:
		data, execute = c.Data, c.Execute
	case *Command:
		if c != nil {
			data, execute = c.Data, c.Execute
		}
	case SlashProvider:
		data, execute = c.SlashDefinition(), c.Run
	case Fields:
		data = c["data"]
		if fn, ok := c["execute"].(Func); ok && fn != nil {
			execute = func(ctx context.Context, in command.Interaction, client bot.Client) error {
				_, err := fn(ctx, in, client)
				return err
			}
		}
	}

	if isNil(data) || execute == nil {
		return mo.Err[*command.Record](fmt.Errorf("%w: missing data or execute function", ErrInvalidShape))
	}
	schema, err := chatInputSchema(data)
	if err != nil {
		return mo.Err[*command.Record](err)
	}
	return mo.Ok(&command.Record{Data: schema, Execute: execute})
}

// chatInputSchema accepts only a chat-input application command with a name.
// The returned definition is a copy with its type filled in.
func chatInputSchema(data any) (*discordgo.ApplicationCommand, error) {
	var def discordgo.ApplicationCommand
	switch d := data.(type) {
	case *discordgo.ApplicationCommand:
		if d == nil {
			return nil, fmt.Errorf("%w: nil application command", ErrInvalidSchema)
		}
		def = *d
	case discordgo.ApplicationCommand:
		def = d
	default:
		return nil, fmt.Errorf("%w: data is %T, not an application command definition", ErrInvalidSchema, data)
	}
	if strings.TrimSpace(def.Name) == "" {
		return nil, fmt.Errorf("%w: command name is empty", ErrInvalidSchema)
	}
	if def.Type == 0 {
		def.Type = discordgo.ChatApplicationCommand
	}
	if def.Type != discordgo.ChatApplicationCommand {
		return nil, fmt.Errorf("%w: command %q is not a chat-input command", ErrInvalidSchema, def.Name)
	}
	return &def, nil
}

// AddonInit validates an addon module export.
func AddonInit(exp Export) mo.Result[Addon] {
	switch a := exp.(type) {
	case nil:
		return mo.Err[Addon](ErrNoExport)
	case Addon:
		if a.Execute != nil {
			return mo.Ok(a)
		}
	case *Addon:
		if a != nil && a.Execute != nil {
			return mo.Ok(*a)
		}
	case func(context.Context, bot.Client) error:
		if a != nil {
			return mo.Ok(Addon{Execute: a})
		}
	case Fields:
		if fn, ok := a["execute"].(Func); ok && fn != nil {
			return mo.Ok(Addon{Execute: func(ctx context.Context, client bot.Client) error {
				_, err := fn(ctx, client)
				return err
			}})
		}
	}
	return mo.Err[Addon](fmt.Errorf("%w: missing default export or execute function", ErrInvalidShape))
}

// EventBinding validates an event module export.
func EventBinding(exp Export) mo.Result[Event] {
	var evt Event
	switch e := exp.(type) {
	case nil:
		return mo.Err[Event](ErrNoExport)
	case Event:
		evt = e
	case *Event:
		if e != nil {
			evt = *e
		}
	case Fields:
		name, _ := e["name"].(string)
		once, _ := e["once"].(bool)
		evt = Event{Name: name, Once: once}
		if fn, ok := e["execute"].(Func); ok && fn != nil {
			evt.Execute = func(ctx context.Context, args ...any) error {
				_, err := fn(ctx, args...)
				return err
			}
		}
	}
	if strings.TrimSpace(evt.Name) == "" || evt.Execute == nil {
		return mo.Err[Event](fmt.Errorf("%w: must have 'name' and 'execute' properties", ErrInvalidShape))
	}
	return mo.Ok(evt)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	if d, ok := v.(*discordgo.ApplicationCommand); ok {
		return d == nil
	}
	return false
}
