// Package realtime fans table inserts out to the channels bound to each
// table. It is an in-process registry; there is no network handshake.
package realtime

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/nexus/pkg/types"
)

// Registry tracks which channels are bound to which tables, and the most
// recently bound channel for each name.
type Registry struct {
	mu     sync.Mutex
	tables map[string][]*Channel
	names  map[string]*Channel
	log    *zap.Logger
}

// NewRegistry returns an empty Registry.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		tables: make(map[string][]*Channel),
		names:  make(map[string]*Channel),
		log:    log,
	}
}

// Channel creates a new, unbound channel.
func (r *Registry) Channel(name string) *Channel {
	return &Channel{name: name, reg: r, bound: make(map[string]struct{})}
}

// Lookup returns the channel most recently bound under name.
func (r *Registry) Lookup(name string) (*Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.names[name]
	return ch, ok
}

// Subscribers returns the number of channels bound to table.
func (r *Registry) Subscribers(table string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tables[table])
}

// Remove unsubscribes ch. Removing an already removed channel is a no-op.
func (r *Registry) Remove(ch *Channel) {
	ch.Unsubscribe()
}

// NotifyInsert delivers one INSERT payload for rec to every channel bound
// to table, in binding order. Handlers run on the caller's goroutine with
// no registry lock held, so they may create channels or issue queries.
func (r *Registry) NotifyInsert(table types.TableName, rec types.Record) {
	r.mu.Lock()
	channels := slices.Clone(r.tables[string(table)])
	r.mu.Unlock()
	if len(channels) == 0 {
		return
	}

	payload := types.ChangePayload{
		EventType: types.EventInsert,
		Schema:    types.SchemaPublic,
		Table:     string(table),
		New:       rec,
		Old:       nil,
	}
	r.log.Debug("realtime insert", zap.String("table", string(table)), zap.String("id", rec.ID()), zap.Int("channels", len(channels)))
	for _, ch := range channels {
		ch.emit(payload)
	}
}

func (r *Registry) bind(table string, ch *Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.tables[table], ch) {
		r.tables[table] = append(r.tables[table], ch)
	}
	r.names[ch.name] = ch
}

func (r *Registry) unbind(ch *Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for table, channels := range r.tables {
		channels = slices.DeleteFunc(channels, func(c *Channel) bool { return c == ch })
		if len(channels) == 0 {
			delete(r.tables, table)
			continue
		}
		r.tables[table] = channels
	}
	if r.names[ch.name] == ch {
		delete(r.names, ch.name)
	}
}
