package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/nexus/internal/kv"
	"github.com/mesh-intelligence/nexus/internal/realtime"
	"github.com/mesh-intelligence/nexus/internal/tablestore"
	"github.com/mesh-intelligence/nexus/pkg/ids"
	"github.com/mesh-intelligence/nexus/pkg/types"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	store *tablestore.Store
	rt    *realtime.Registry
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := tablestore.New(kv.NewMemory(), "test_", nil)
	rt := realtime.NewRegistry(nil)
	svc, err := New(Options{
		Store:        store,
		Realtime:     rt,
		IDs:          ids.NewSequential("u"),
		Secret:       []byte("test-secret"),
		PasswordCost: bcrypt.MinCost,
		Clock:        func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return fixture{svc: svc, store: store, rt: rt}
}

func (f fixture) signUp(t *testing.T, email, password string, data types.UserMetadata) *types.User {
	t.Helper()
	u, err := f.svc.SignUp(context.Background(), types.SignUpParams{Email: email, Password: password, Data: data})
	require.NoError(t, err)
	return u
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name  string
		email string
		ok    bool
	}{
		{"plain", "a@b.co", true},
		{"subdomain", "first.last@mail.example.org", true},
		{"no at", "ab.co", false},
		{"no dot", "a@bco", false},
		{"space", "a b@c.co", false},
		{"two ats", "a@b@c.co", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, ValidEmail(tt.email))
		})
	}

	assert.True(t, ValidPassword("abcdefg1"))
	assert.False(t, ValidPassword("abcdef1"), "too short")
	assert.False(t, ValidPassword("abcdefgh"), "no digit")
	assert.False(t, ValidPassword("12345678"), "no letter")
	assert.True(t, ValidPassword("ab1😀😀😀😀"), "astral runes count as two code units")
	assert.False(t, ValidPassword("ab1😀😀"), "seven code units")
}

func TestSignUpDefaults(t *testing.T) {
	f := newFixture(t)
	var profiles []types.ChangePayload
	f.rt.Channel("profiles").On(types.EventPostgresChanges, types.ChangeFilter{Event: types.EventInsert, Table: "profiles"}, func(p types.ChangePayload) {
		profiles = append(profiles, p)
	})

	u := f.signUp(t, "ann@example.com", "secret123", types.UserMetadata{"full_name": "Ann Lee", "role": "Pirate", "nickname": "al"})

	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, types.DefaultStaffRole, u.UserMetadata.Role())
	assert.Equal(t, types.DefaultStaffAccessRights, u.UserMetadata.AccessRights())
	assert.Equal(t, types.AvatarURL("Ann Lee", "ann@example.com"), u.UserMetadata.String(types.MetaAvatarURL))
	assert.Equal(t, "al", u.UserMetadata.String("nickname"))

	users := f.store.GetTable(types.TableUsers)
	require.Len(t, users, 1)
	assert.NotContains(t, users[0], "password")
	hash, _ := users[0][FieldPasswordHash].(string)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret123")))

	stored := f.store.GetTable(types.TableProfiles)
	require.Len(t, stored, 1)
	assert.Equal(t, "u1", stored[0].ID())
	assert.Equal(t, "Ann Lee", stored[0][types.MetaFullName])
	assert.Equal(t, types.DefaultStaffRole, stored[0][types.MetaRole])
	assert.NotContains(t, stored[0], types.MetaBirthday)

	require.Len(t, profiles, 1)
	assert.Equal(t, stored[0], profiles[0].New)

	assert.Nil(t, f.svc.GetSession(), "sign-up does not sign in")
}

func TestSignUpKeepsStaffRoleAndRights(t *testing.T) {
	f := newFixture(t)
	u := f.signUp(t, "mgr@example.com", "secret123", types.UserMetadata{
		"role":          types.RoleManager,
		"access_rights": []string{"home"},
		"avatar_url":    "https://example.com/me.png",
	})
	assert.Equal(t, types.RoleManager, u.UserMetadata.Role())
	assert.Equal(t, []string{"home"}, u.UserMetadata.AccessRights())
	assert.Equal(t, "https://example.com/me.png", u.UserMetadata.String(types.MetaAvatarURL))
}

func TestSignUpValidationOrder(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "taken@example.com", "secret123", nil)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"duplicate wins over weak password", "taken@example.com", "x", types.ErrDuplicateEmail},
		{"invalid email wins over weak password", "not-an-email", "x", types.ErrInvalidEmail},
		{"weak password", "new@example.com", "password", types.ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SignUp(context.Background(), types.SignUpParams{Email: tt.email, Password: tt.password})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.want.Error(), err.Error())
		})
	}
	assert.Len(t, f.store.GetTable(types.TableUsers), 1)
}

func TestSignUpDuplicateAddsOneUser(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "dup@example.com", "secret123", nil)
	_, err := f.svc.SignUp(context.Background(), types.SignUpParams{Email: "dup@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, types.ErrDuplicateEmail)
	assert.Equal(t, "User already registered", err.Error())
	assert.Len(t, f.store.GetTable(types.TableUsers), 1)
	assert.Len(t, f.store.GetTable(types.TableProfiles), 1)
}

func TestSignInAndOut(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "ann@example.com", "secret123", nil)

	var events []types.AuthEvent
	sub := f.svc.OnAuthStateChange(func(e types.AuthEvent, _ *types.Session) { events = append(events, e) })

	_, err := f.svc.SignInWithPassword(context.Background(), types.Credentials{Email: "ann@example.com", Password: "wrong123"})
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)
	assert.Equal(t, "Invalid login credentials", err.Error())
	_, err = f.svc.SignInWithPassword(context.Background(), types.Credentials{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)

	sess, err := f.svc.SignInWithPassword(context.Background(), types.Credentials{Email: "ann@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NotNil(t, sess.User)
	assert.Equal(t, "u1", sess.User.ID)

	subject, err := f.svc.verifyToken(sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", subject)

	got := f.svc.GetSession()
	require.NotNil(t, got)
	assert.Equal(t, sess.AccessToken, got.AccessToken)
	assert.Equal(t, "ann@example.com", f.svc.GetUser().Email)

	require.NoError(t, f.svc.SignOut(context.Background()))
	assert.Nil(t, f.svc.GetSession())
	assert.Nil(t, f.svc.GetUser())
	require.NoError(t, f.svc.SignOut(context.Background()), "signing out twice succeeds")

	assert.Equal(t, []types.AuthEvent{types.AuthSignedIn, types.AuthSignedOut, types.AuthSignedOut}, events)

	sub.Unsubscribe()
	_, err = f.svc.SignInWithPassword(context.Background(), types.Credentials{Email: "ann@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestSignInTriesEveryAccountWithTheEmail(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "a@x.co", "alpha1234", nil)
	b := f.signUp(t, "b@x.co", "bravo1234", nil)

	_, err := f.svc.Admin().UpdateUserByID(context.Background(), b.ID, types.AdminUserAttributes{Email: "a@x.co"})
	require.NoError(t, err)

	sess, err := f.svc.SignInWithPassword(context.Background(), types.Credentials{Email: "a@x.co", Password: "bravo1234"})
	require.NoError(t, err)
	assert.Equal(t, b.ID, sess.User.ID)

	sess, err = f.svc.SignInWithPassword(context.Background(), types.Credentials{Email: "a@x.co", Password: "alpha1234"})
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.User.ID)

	_, err = f.svc.SignInWithPassword(context.Background(), types.Credentials{Email: "a@x.co", Password: "charlie123"})
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)
}

func TestTokenVerificationRejectsExpiredAndForeign(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "ann@example.com", "secret123", nil)
	sess, err := f.svc.SignInWithPassword(context.Background(), types.Credentials{Email: "ann@example.com", Password: "secret123"})
	require.NoError(t, err)

	later := f.svc
	later.now = func() time.Time { return fixedNow.Add(2 * types.DefaultTokenTTL) }
	_, err = later.verifyToken(sess.AccessToken)
	assert.Error(t, err)

	other, err := New(Options{Store: f.store, Secret: []byte("other"), Clock: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	_, err = other.verifyToken(sess.AccessToken)
	assert.Error(t, err)
}

func TestAdminUpdateUserByID(t *testing.T) {
	f := newFixture(t)
	u := f.signUp(t, "ann@example.com", "secret123", types.UserMetadata{"full_name": "Ann", "mobile": "555"})

	_, err := f.svc.Admin().UpdateUserByID(context.Background(), "missing", types.AdminUserAttributes{Email: "x@y.z"})
	assert.ErrorIs(t, err, types.ErrUserNotFound)
	assert.Equal(t, "User not found", err.Error())

	updated, err := f.svc.Admin().UpdateUserByID(context.Background(), u.ID, types.AdminUserAttributes{
		Password:     "newpass99",
		UserMetadata: types.UserMetadata{"role": types.RoleOwner, "access_rights": types.FullAccess},
	})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", updated.Email)
	assert.Equal(t, types.RoleOwner, updated.UserMetadata.Role())
	assert.Equal(t, types.FullAccess, updated.UserMetadata.AccessRights())
	assert.Equal(t, "Ann", updated.UserMetadata.FullName(), "untouched keys survive the merge")
	assert.Equal(t, "555", updated.UserMetadata.String(types.MetaMobile))

	_, err = f.svc.SignInWithPassword(context.Background(), types.Credentials{Email: "ann@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)
	_, err = f.svc.SignInWithPassword(context.Background(), types.Credentials{Email: "ann@example.com", Password: "newpass99"})
	assert.NoError(t, err)

	profiles := f.store.GetTable(types.TableProfiles)
	require.Len(t, profiles, 1)
	assert.Equal(t, types.DefaultStaffRole, profiles[0][types.MetaRole], "profiles are not synced")
}

func TestSubscriberListHandles(t *testing.T) {
	var l SubscriberList
	var calls int
	cb := func(types.AuthEvent, *types.Session) { calls++ }

	first := l.Add(cb)
	l.Add(cb)
	assert.Equal(t, 2, l.Len())

	l.Notify(types.AuthSignedIn, nil)
	assert.Equal(t, 2, calls)

	first.Unsubscribe()
	first.Unsubscribe()
	assert.Equal(t, 1, l.Len())

	l.Notify(types.AuthSignedOut, nil)
	assert.Equal(t, 3, calls)
}

func TestSubscriberPanicIsRecovered(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "ann@example.com", "secret123", nil)
	f.svc.OnAuthStateChange(func(types.AuthEvent, *types.Session) { panic("boom") })

	_, err := f.svc.SignInWithPassword(context.Background(), types.Credentials{Email: "ann@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, types.ErrHandlerPanic)
	assert.NotNil(t, f.svc.GetSession(), "the session is stored before subscribers run")
}
