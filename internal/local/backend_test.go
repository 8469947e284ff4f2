package local

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/nexus/internal/kv"
	"github.com/mesh-intelligence/nexus/pkg/ids"
	"github.com/mesh-intelligence/nexus/pkg/types"
)

func openBackend(t *testing.T, store types.KeyValueStore, extra ...string) *Backend {
	t.Helper()
	b, err := Open(context.Background(), Options{
		Config: types.Config{
			Store: types.StoreConfig{ExtraTables: extra},
			Auth:  types.AuthConfig{PasswordCost: bcrypt.MinCost, JWTSecret: "s"},
		},
		KV:  store,
		IDs: ids.NewSequential("r"),
	})
	require.NoError(t, err)
	return b
}

func TestOpenSeeds(t *testing.T) {
	b := openBackend(t, kv.NewMemory())
	defer b.Close()

	res, err := b.From(types.TableProducts).Select().Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, res.Len())
	assert.Equal(t, types.DefaultSchemaVersion, b.Tables().Version())
}

func TestStateSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := kv.OpenSQLite(dir)
	require.NoError(t, err)
	b := openBackend(t, store)
	_, err = b.From(types.TableTasks).Insert(types.Record{"title": "persist me"}).Execute(context.Background())
	require.NoError(t, err)
	require.NoError(t, b.Close())

	store, err = kv.OpenSQLite(dir)
	require.NoError(t, err)
	b = openBackend(t, store)
	defer b.Close()
	res, err := b.From(types.TableTasks).Select().Eq("title", "persist me").Single().Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "persist me", res.First()["title"])

	tasks, err := b.From(types.TableTasks).Select().Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, tasks.Len(), "a second open does not reseed")
}

func TestSignUpNotifiesProfileChannel(t *testing.T) {
	b := openBackend(t, kv.NewMemory())
	defer b.Close()

	var got []string
	ch := b.Channel("profiles-feed").On(types.EventPostgresChanges, types.ChangeFilter{Event: types.EventAll, Table: "profiles"}, func(p types.ChangePayload) {
		got = append(got, p.New.ID())
	})
	ch.Subscribe(nil)

	u, err := b.Auth().SignUp(context.Background(), types.SignUpParams{Email: "new@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, []string{u.ID}, got)

	require.NoError(t, b.RemoveChannel(ch))
	_, err = b.Auth().SignUp(context.Background(), types.SignUpParams{Email: "other@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 0, b.Realtime().Subscribers("profiles"))
}

func TestSeededOwnerCanSignIn(t *testing.T) {
	b := openBackend(t, kv.NewMemory())
	defer b.Close()

	sess, err := b.Auth().SignInWithPassword(context.Background(), types.Credentials{Email: "main@tnd-opc.com", Password: "12345678"})
	require.NoError(t, err)
	assert.Equal(t, types.RoleOwner, sess.User.UserMetadata.Role())
	assert.Equal(t, sess.User, b.Auth().GetUser())
}

func TestExtraTables(t *testing.T) {
	b := openBackend(t, kv.NewMemory(), "vendors")
	defer b.Close()

	_, err := b.From("vendors").Insert(types.Record{"name": "v"}).Execute(context.Background())
	require.NoError(t, err)
	_, err = b.From("widgets").Select().Execute(context.Background())
	assert.ErrorIs(t, err, types.ErrUnknownTable)
}

func TestCloseIsIdempotent(t *testing.T) {
	b := openBackend(t, kv.NewMemory())
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err := b.From(types.TableTasks).Select().Execute(context.Background())
	assert.ErrorIs(t, err, types.ErrClientClosed)
}
