package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/nexus/pkg/types"
)

// Fields of a users table record.
const (
	FieldEmail        = "email"
	FieldPasswordHash = "password_hash"
	FieldUserMetadata = "user_metadata"
)

// HashPassword returns the bcrypt hash of password. A cost outside
// bcrypt's range falls back to bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// UserRecord returns the users table row for u.
func UserRecord(u *types.User, passwordHash string) types.Record {
	meta := map[string]any(u.UserMetadata)
	if meta == nil {
		meta = map[string]any{}
	}
	return types.Record{
		types.FieldID:     u.ID,
		FieldEmail:        u.Email,
		FieldPasswordHash: passwordHash,
		FieldUserMetadata: meta,
	}
}

// ProfileRecord returns the profiles table row projected from u. Optional
// fields are omitted when the metadata lacks them.
func ProfileRecord(u *types.User) types.Record {
	m := u.UserMetadata
	p := types.Record{
		types.FieldID:          u.ID,
		FieldEmail:             u.Email,
		types.MetaAvatarURL:    m[types.MetaAvatarURL],
		types.MetaRole:         m[types.MetaRole],
		types.MetaAccessRights: m[types.MetaAccessRights],
	}
	for _, key := range []string{types.MetaFullName, types.MetaBirthday, types.MetaMobile} {
		if v, ok := m[key]; ok && v != nil {
			p[key] = v
		}
	}
	return p
}

// userFromRecord converts a users row into the caller-facing User.
func userFromRecord(r types.Record) *types.User {
	u := &types.User{ID: r.ID(), UserMetadata: types.UserMetadata{}}
	u.Email, _ = r[FieldEmail].(string)
	if meta, ok := r[FieldUserMetadata].(map[string]any); ok {
		u.UserMetadata = types.UserMetadata(meta)
	}
	return u
}

func checkPassword(r types.Record, password string) bool {
	hash, _ := r[FieldPasswordHash].(string)
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func findByEmail(users []types.Record, email string) int {
	for i, u := range users {
		if e, _ := u[FieldEmail].(string); e == email {
			return i
		}
	}
	return -1
}

// findCredentials returns the index of the first user whose email and
// password both match creds, or -1. Emails are unique only at sign-up, so
// every row with the email is tried.
func findCredentials(users []types.Record, creds types.Credentials) int {
	for i, u := range users {
		if e, _ := u[FieldEmail].(string); e == creds.Email && checkPassword(u, creds.Password) {
			return i
		}
	}
	return -1
}

func findByID(users []types.Record, id string) int {
	for i, u := range users {
		if u.ID() == id {
			return i
		}
	}
	return -1
}
