// Package module turns files on disk into loaded module exports and validates
// their shape. Go modules are compiled in and looked up in a build-time
// manifest; JavaScript modules run in an embedded runtime.
package module

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/botport/internal/bot"
	"github.com/keshon/botport/internal/command"
)

var (
	// ErrNotRegistered means a Go module file has no manifest entry.
	ErrNotRegistered = errors.New("module not registered in build manifest")
	// ErrUnsupported means no loader handles the file extension.
	ErrUnsupported = errors.New("unsupported module extension")
	// ErrNoExport means the module loaded but exported nothing.
	ErrNoExport = errors.New("missing default export")
	// ErrInvalidShape means the export lacks a required member.
	ErrInvalidShape = errors.New("invalid module shape")
	// ErrInvalidSchema means a command's data is not a chat-input definition.
	ErrInvalidSchema = errors.New("invalid command schema")
)

// Export is a module's default export.
type Export any

// Loader loads the default export of the module at path.
type Loader interface {
	Extensions() []string
	Load(ctx context.Context, path string) (Export, error)
}

// Command is the export shape of one command.
type Command struct {
	Data    any
	Execute command.Handler
}

// Addon is the export shape of an addon: an initializer run once with the
// live client.
type Addon struct {
	Execute func(ctx context.Context, client bot.Client) error
}

// Event is the export shape of an event module.
type Event struct {
	Name    string
	Once    bool
	Execute bot.Listener
}

// SlashProvider lets a Go type act as a command without the Command struct.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
	Run(ctx context.Context, in command.Interaction, client bot.Client) error
}

// Fields is a dynamically-typed export, read by key. Scripts export these.
type Fields map[string]any

// Func is a dynamically-typed callable produced by a script export.
type Func func(ctx context.Context, args ...any) (any, error)

// Multi dispatches to a loader by file extension.
type Multi struct {
	byExt map[string]Loader
}

// NewMulti builds a Multi; a later loader wins an extension clash.
func NewMulti(loaders ...Loader) *Multi {
	m := &Multi{byExt: make(map[string]Loader)}
	for _, l := range loaders {
		for _, ext := range l.Extensions() {
			m.byExt[strings.ToLower(ext)] = l
		}
	}
	return m
}

// Extensions returns every handled extension, sorted.
func (m *Multi) Extensions() []string {
	exts := make([]string, 0, len(m.byExt))
	for ext := range m.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Handles reports whether path is a module file: a handled extension and
// not a Go test file.
func (m *Multi) Handles(path string) bool {
	if strings.HasSuffix(path, "_test.go") {
		return false
	}
	_, ok := m.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load delegates to the loader registered for path's extension.
func (m *Multi) Load(ctx context.Context, path string) (Export, error) {
	l, ok := m.byExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	return l.Load(ctx, path)
}
