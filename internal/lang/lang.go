// Package lang holds the user-facing strings the router sends.
package lang

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Messages are the localized fallback and confirmation texts.
type Messages struct {
	CommandError     string `json:"COMMAND_ERROR"`
	TicketClosing    string `json:"TICKET_CLOSING"`
	InteractionError string `json:"INTERACTION_ERROR"`
}

// Default returns the built-in English messages.
func Default() Messages {
	return Messages{
		CommandError:     "An error occurred while running the command.",
		TicketClosing:    "Ticket is closing... No further communication will be possible.",
		InteractionError: "An error occurred while processing the interaction.",
	}
}

// Load overlays the messages in the JSON file at path onto the defaults.
// Keys may sit at the top level or in a "Main.js" section. An empty path or
// a missing file yields the defaults.
func Load(path string) (Messages, error) {
	msgs := Default()
	if path == "" {
		return msgs, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return msgs, nil
	}
	if err != nil {
		return msgs, fmt.Errorf("read language file: %w", err)
	}

	var doc struct {
		Messages
		Main *Messages `json:"Main.js"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return msgs, fmt.Errorf("parse language file %s: %w", path, err)
	}
	msgs = msgs.overlay(doc.Messages)
	if doc.Main != nil {
		msgs = msgs.overlay(*doc.Main)
	}
	return msgs, nil
}

func (m Messages) overlay(o Messages) Messages {
	if o.CommandError != "" {
		m.CommandError = o.CommandError
	}
	if o.TicketClosing != "" {
		m.TicketClosing = o.TicketClosing
	}
	if o.InteractionError != "" {
		m.InteractionError = o.InteractionError
	}
	return m
}
