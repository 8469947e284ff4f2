package auth

import (
	"slices"
	"sync"

	"github.com/mesh-intelligence/nexus/pkg/types"
)

// SubscriberList holds auth state callbacks in registration order. The
// same callback may be registered more than once; each registration has
// its own handle.
type SubscriberList struct {
	mu   sync.Mutex
	next uint64
	subs []subscriber
}

type subscriber struct {
	id uint64
	cb types.AuthStateFunc
}

// Add registers cb and returns the handle that removes it.
func (l *SubscriberList) Add(cb types.AuthStateFunc) types.Subscription {
	l.mu.Lock()
	l.next++
	id := l.next
	l.subs = append(l.subs, subscriber{id: id, cb: cb})
	l.mu.Unlock()

	return types.SubscriptionFunc(func() { l.remove(id) })
}

// Len returns the number of registered callbacks.
func (l *SubscriberList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

// Notify calls every callback registered at the time of the call.
func (l *SubscriberList) Notify(event types.AuthEvent, sess *types.Session) {
	l.mu.Lock()
	subs := slices.Clone(l.subs)
	l.mu.Unlock()
	for _, s := range subs {
		s.cb(event, sess)
	}
}

func (l *SubscriberList) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = slices.DeleteFunc(l.subs, func(s subscriber) bool { return s.id == id })
}
