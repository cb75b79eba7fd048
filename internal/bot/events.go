package bot

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/keshon/botport/internal/guard"
	"github.com/keshon/botport/internal/logger"
)

type subscription struct {
	fn   Listener
	once bool
}

// Bus is an in-process event bus keyed by normalised event name.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]*subscription
	log  logger.Logger
}

// NewBus returns an empty bus logging listener failures to log.
func NewBus(log logger.Logger) *Bus {
	return &Bus{subs: make(map[string][]*subscription), log: log}
}

// On subscribes fn to every emission of event.
func (b *Bus) On(event string, fn Listener) { b.add(event, fn, false) }

// Once subscribes fn to the next emission of event only.
func (b *Bus) Once(event string, fn Listener) { b.add(event, fn, true) }

func (b *Bus) add(event string, fn Listener, once bool) {
	name := EventName(event)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[name] = append(b.subs[name], &subscription{fn: fn, once: once})
}

// Len returns the number of listeners subscribed to event.
func (b *Bus) Len(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[EventName(event)])
}

// Emit calls the listeners of event in subscription order. Once-listeners are
// removed before they run. Errors and panics are logged, never returned.
func (b *Bus) Emit(ctx context.Context, event string, args ...any) int {
	name := EventName(event)

	b.mu.Lock()
	current := b.subs[name]
	if len(current) == 0 {
		b.mu.Unlock()
		return 0
	}
	kept := current[:0:0]
	for _, s := range current {
		if !s.once {
			kept = append(kept, s)
		}
	}
	b.subs[name] = kept
	b.mu.Unlock()

	for _, s := range current {
		fn := s.fn
		err := guard.Run(func() error { return fn(ctx, args...) })
		if err != nil {
			b.log.Error("Event listener failed", "event", name, "error", err)
			if b.log.DebugEnabled() {
				if stack := guard.Stack(err); stack != "" {
					b.log.Debug("Full error details", "event", name, "stack", stack)
				}
			}
		}
	}
	return len(current)
}

// EventName maps `messageCreate`, `message_create` and `MESSAGE_CREATE` to
// the gateway's canonical `MESSAGE_CREATE`.
func EventName(event string) string {
	event = strings.TrimSpace(event)
	var sb strings.Builder
	prevLower := false
	for _, r := range event {
		switch {
		case r == '-' || r == ' ':
			sb.WriteRune('_')
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				sb.WriteRune('_')
			}
			sb.WriteRune(r)
			prevLower = false
		default:
			sb.WriteRune(unicode.ToUpper(r))
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return sb.String()
}
