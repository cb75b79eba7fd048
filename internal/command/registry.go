package command

import (
	"sort"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/mo"
)

// Registry stores commands by declared name. Writes happen during loading;
// the router only reads.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Record
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Record)}
}

// Set registers rec under its declared name. A later Set with the same name
// replaces the earlier record; the replaced record is returned.
func (r *Registry) Set(rec *Record) mo.Option[*Record] {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.commands[rec.Name()]
	r.commands[rec.Name()] = rec
	if ok {
		return mo.Some(prev)
	}
	return mo.None[*Record]()
}

// Get returns the command registered under name.
func (r *Registry) Get(name string) mo.Option[*Record] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rec, ok := r.commands[name]; ok {
		return mo.Some(rec)
	}
	return mo.None[*Record]()
}

// All returns every command sorted by name.
func (r *Registry) All() []*Record {
	r.mu.RLock()
	list := make([]*Record, 0, len(r.commands))
	for _, rec := range r.commands {
		list = append(list, rec)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Definitions returns the declarative schema of every command, sorted by
// name, for bulk remote registration.
func (r *Registry) Definitions() []*discordgo.ApplicationCommand {
	all := r.All()
	defs := make([]*discordgo.ApplicationCommand, 0, len(all))
	for _, rec := range all {
		defs = append(defs, rec.Data)
	}
	return defs
}
