package realtime

import (
	"slices"
	"sync"

	"github.com/mesh-intelligence/nexus/pkg/types"
)

type handler struct {
	event  string
	filter types.ChangeFilter
	cb     types.ChangeFunc
}

// matches reports whether h observes payload. Only table-change handlers
// receive payloads; the table must match and the event must be "*" or
// equal to the payload's event type.
func (h handler) matches(p types.ChangePayload) bool {
	if h.event != types.EventPostgresChanges {
		return false
	}
	if h.filter.Table != p.Table {
		return false
	}
	ev := h.filter.Event
	return ev == "" || ev == types.EventAll || ev == p.EventType
}

// Channel is a named set of change handlers.
type Channel struct {
	name string
	reg  *Registry

	mu       sync.Mutex
	handlers []handler
	bound    map[string]struct{}
}

var _ types.Channel = (*Channel)(nil)

// Name returns the channel name.
func (c *Channel) Name() string {
	return c.name
}

// On registers cb. A postgres_changes handler with a table binds the
// channel to that table immediately.
func (c *Channel) On(event string, filter types.ChangeFilter, cb types.ChangeFunc) types.Channel {
	c.mu.Lock()
	c.handlers = append(c.handlers, handler{event: event, filter: filter, cb: cb})
	bind := event == types.EventPostgresChanges && filter.Table != ""
	if bind {
		c.bound[filter.Table] = struct{}{}
	}
	c.mu.Unlock()

	if bind {
		c.reg.bind(filter.Table, c)
	}
	return c
}

// Subscribe reports StatusSubscribed synchronously and returns a handle
// that unsubscribes the channel.
func (c *Channel) Subscribe(status types.StatusFunc) types.Subscription {
	if status != nil {
		status(types.StatusSubscribed)
	}
	return types.SubscriptionFunc(c.Unsubscribe)
}

// Unsubscribe drops all handlers and bindings. Idempotent.
func (c *Channel) Unsubscribe() {
	c.mu.Lock()
	c.handlers = nil
	clear(c.bound)
	c.mu.Unlock()
	c.reg.unbind(c)
}

// BoundTables returns the tables the channel is bound to, sorted.
func (c *Channel) BoundTables() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.bound))
	for t := range c.bound {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

func (c *Channel) emit(p types.ChangePayload) {
	c.mu.Lock()
	handlers := slices.Clone(c.handlers)
	c.mu.Unlock()
	for _, h := range handlers {
		if h.matches(p) {
			h.cb(p)
		}
	}
}
