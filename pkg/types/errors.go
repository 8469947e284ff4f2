package types

// ErrorKind classifies an Error.
type ErrorKind string

// Error kinds.
const (
	KindNoRows             ErrorKind = "no_rows"
	KindDuplicateEmail     ErrorKind = "duplicate_email"
	KindInvalidEmail       ErrorKind = "invalid_email"
	KindWeakPassword       ErrorKind = "weak_password"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindUserNotFound       ErrorKind = "user_not_found"
	KindUnknownTable       ErrorKind = "unknown_table"
	KindHandlerPanic       ErrorKind = "handler_panic"
	KindRemote             ErrorKind = "remote"
	KindClientClosed       ErrorKind = "client_closed"
)

// Error is a structured failure carrying the message the hosted backend
// would report. Two Errors match under errors.Is when their kinds agree, so
// callers compare against the sentinels below regardless of message.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Status  int       `json:"status,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinel errors.
var (
	ErrNoRows             = &Error{Kind: KindNoRows, Message: "No rows found"}
	ErrDuplicateEmail     = &Error{Kind: KindDuplicateEmail, Message: "User already registered"}
	ErrInvalidEmail       = &Error{Kind: KindInvalidEmail, Message: "Invalid email address"}
	ErrWeakPassword       = &Error{Kind: KindWeakPassword, Message: "Password must be at least 8 characters and include letters and numbers"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "Invalid login credentials"}
	ErrUserNotFound       = &Error{Kind: KindUserNotFound, Message: "User not found"}
	ErrUnknownTable       = &Error{Kind: KindUnknownTable, Message: "Unknown table"}
	ErrHandlerPanic       = &Error{Kind: KindHandlerPanic, Message: "Realtime handler panicked"}
	ErrRemote             = &Error{Kind: KindRemote, Message: "Hosted backend request failed"}
	ErrClientClosed       = &Error{Kind: KindClientClosed, Message: "Client is closed"}
)

// Errorf returns a new Error of kind with a custom message.
func Errorf(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}
