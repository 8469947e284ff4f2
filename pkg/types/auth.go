package types

import (
	"net/url"
	"regexp"
	"strings"
)

// AuthEvent names an auth state transition.
type AuthEvent string

// Auth events.
const (
	AuthSignedIn  AuthEvent = "SIGNED_IN"
	AuthSignedOut AuthEvent = "SIGNED_OUT"
)

// AuthStateFunc receives auth events. session is nil on sign-out.
type AuthStateFunc func(event AuthEvent, session *Session)

// Staff roles and access rights.
const (
	RoleSalesAgent  = "Sales Agent"
	RoleSeniorAgent = "Senior Agent"
	RoleManager     = "Manager"
	RoleSupport     = "Support"
	RoleOwner       = "Owner"

	DefaultStaffRole = RoleSalesAgent
)

// StaffRoles is the set of roles sign-up accepts as given.
var StaffRoles = []string{RoleSalesAgent, RoleSeniorAgent, RoleManager, RoleSupport, RoleOwner}

// FullAccess grants every module.
var FullAccess = []string{"*"}

// DefaultStaffAccessRights are granted when sign-up supplies none.
var DefaultStaffAccessRights = []string{
	"home",
	"sales-pipeline-board",
	"sales-database-customer-database",
	"sales-transaction-sales-inquiry",
	"sales-transaction-sales-order",
	"sales-transaction-order-slip",
	"sales-transaction-invoice",
	"communication-messaging-inbox",
	"communication-text-menu-text-messages",
	"communication-text-menu-inbox",
	"communication-productivity-calendar",
	"communication-productivity-daily-call-monitoring",
	"communication-productivity-tasks",
}

// IsStaffRole reports whether role is in StaffRoles.
func IsStaffRole(role string) bool {
	for _, r := range StaffRoles {
		if r == role {
			return true
		}
	}
	return false
}

var whitespace = regexp.MustCompile(`\s+`)

// AvatarURL returns the generated initials avatar for a user.
func AvatarURL(fullName, email string) string {
	seed := strings.TrimSpace(fullName)
	if seed == "" {
		seed = strings.TrimSpace(email)
	}
	if seed == "" {
		seed = "Agent"
	}
	seed = whitespace.ReplaceAllString(strings.ToLower(seed), "-")
	return "https://api.dicebear.com/7.x/initials/svg?seed=" + url.QueryEscape(seed) + "&backgroundColor=f0f4f8&fontSize=36"
}

// Metadata keys.
const (
	MetaFullName     = "full_name"
	MetaAvatarURL    = "avatar_url"
	MetaRole         = "role"
	MetaAccessRights = "access_rights"
	MetaBirthday     = "birthday"
	MetaMobile       = "mobile"
)

// UserMetadata holds profile fields. Unknown keys are preserved.
type UserMetadata map[string]any

// String returns the string value at key, or "".
func (m UserMetadata) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// FullName returns the full_name field.
func (m UserMetadata) FullName() string { return m.String(MetaFullName) }

// Role returns the role field.
func (m UserMetadata) Role() string { return m.String(MetaRole) }

// AccessRights returns the access_rights field.
func (m UserMetadata) AccessRights() []string {
	switch v := m[MetaAccessRights].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// User is an account as returned to callers. The password never leaves the
// users table.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	UserMetadata UserMetadata `json:"user_metadata"`
}

// Session is the single active sign-in.
type Session struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

// SignUpParams are the inputs to Auth.SignUp. Data becomes user metadata.
type SignUpParams struct {
	Email    string       `json:"email"`
	Password string       `json:"password"`
	Data     UserMetadata `json:"data,omitempty"`
}

// Credentials are the inputs to Auth.SignInWithPassword.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminUserAttributes are merged onto a user by UpdateUserByID. Empty
// strings leave the stored value unchanged; UserMetadata keys are merged
// one level deep.
type AdminUserAttributes struct {
	Email        string       `json:"email,omitempty"`
	Password     string       `json:"password,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata,omitempty"`
}
