package types

// Realtime event names.
const (
	// EventPostgresChanges is the handler kind that observes table changes.
	EventPostgresChanges = "postgres_changes"

	EventAll    = "*"
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// SchemaPublic is the schema reported in change payloads.
const SchemaPublic = "public"

// SubscribeStatus is reported to a subscribe callback.
type SubscribeStatus string

// Subscribe statuses.
const (
	StatusSubscribed   SubscribeStatus = "SUBSCRIBED"
	StatusClosed       SubscribeStatus = "CLOSED"
	StatusChannelError SubscribeStatus = "CHANNEL_ERROR"
	StatusTimedOut     SubscribeStatus = "TIMED_OUT"
)

// ChangeFilter selects the changes a handler observes. Only Table and Event
// are consulted; Schema and Filter are accepted and ignored.
type ChangeFilter struct {
	Event  string `json:"event,omitempty"`
	Schema string `json:"schema,omitempty"`
	Table  string `json:"table,omitempty"`
	Filter string `json:"filter,omitempty"`
}

// ChangePayload describes one table change.
type ChangePayload struct {
	EventType string `json:"eventType"`
	Schema    string `json:"schema"`
	Table     string `json:"table"`
	New       Record `json:"new"`
	Old       Record `json:"old"`
}

// ChangeFunc receives change payloads.
type ChangeFunc func(ChangePayload)

// StatusFunc receives subscribe status updates.
type StatusFunc func(SubscribeStatus)

// Channel is a named realtime subscription object.
type Channel interface {
	// Name returns the name the channel was created with.
	Name() string

	// On registers a handler. For EventPostgresChanges handlers the
	// filter's Table binds the channel to that table.
	On(event string, filter ChangeFilter, cb ChangeFunc) Channel

	// Subscribe reports the subscription status and returns a handle that
	// unsubscribes the channel.
	Subscribe(status StatusFunc) Subscription

	// Unsubscribe drops every handler and table binding. Idempotent.
	Unsubscribe()
}
