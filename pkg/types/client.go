package types

import "context"

// Client is the single entry point callers use. It is bound once, at
// construction, to either the hosted backend or the local store.
type Client interface {
	// From starts a query against table.
	From(table TableName) Query

	// Channel creates a realtime channel. Names need not be unique.
	Channel(name string) Channel

	// RemoveChannel unsubscribes ch. It never fails for a valid channel.
	RemoveChannel(ch Channel) error

	// Auth returns the authentication surface.
	Auth() Auth

	// Close releases the client's resources. Idempotent.
	Close() error
}

// Subscription is a handle returned by subscribe calls.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a function to Subscription.
type SubscriptionFunc func()

// Unsubscribe calls f.
func (f SubscriptionFunc) Unsubscribe() { f() }

// Auth is the session and account surface of a Client.
type Auth interface {
	// SignUp creates an account. It does not sign the user in.
	SignUp(ctx context.Context, params SignUpParams) (*User, error)

	// SignInWithPassword verifies credentials and stores a new session.
	SignInWithPassword(ctx context.Context, creds Credentials) (*Session, error)

	// SignOut clears the session. It succeeds when already signed out.
	SignOut(ctx context.Context) error

	// GetSession returns the stored session or nil.
	GetSession() *Session

	// GetUser returns the signed-in user or nil.
	GetUser() *User

	// OnAuthStateChange registers cb for sign-in and sign-out events.
	OnAuthStateChange(cb AuthStateFunc) Subscription

	// Admin returns the privileged user-management surface.
	Admin() AdminAuth
}

// AdminAuth is the privileged part of Auth.
type AdminAuth interface {
	// UpdateUserByID merges attrs onto the user with id.
	UpdateUserByID(ctx context.Context, id string, attrs AdminUserAttributes) (*User, error)
}
