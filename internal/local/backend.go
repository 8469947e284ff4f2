// Package local is the in-process backend: tables in a key-value store,
// an in-memory realtime registry, and the local auth shim.
package local

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/nexus/internal/auth"
	"github.com/mesh-intelligence/nexus/internal/query"
	"github.com/mesh-intelligence/nexus/internal/realtime"
	"github.com/mesh-intelligence/nexus/internal/seed"
	"github.com/mesh-intelligence/nexus/internal/tablestore"
	"github.com/mesh-intelligence/nexus/pkg/types"
)

// Options configures a Backend.
type Options struct {
	// Config supplies the store and auth settings. Hosted settings are
	// ignored.
	Config types.Config

	// KV is the key-value store tables live in. The Backend owns it and
	// closes it on Close.
	KV types.KeyValueStore

	IDs    types.IDGenerator
	Clock  func() time.Time
	Logger *zap.Logger
}

// Backend implements types.Client over a local key-value store.
type Backend struct {
	kv     types.KeyValueStore
	store  *tablestore.Store
	rt     *realtime.Registry
	engine *query.Engine
	auth   *auth.Service
	seeder *seed.Loader
	log    *zap.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

var _ types.Client = (*Backend)(nil)

// Open builds a Backend and seeds its store.
func Open(ctx context.Context, opts Options) (*Backend, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := opts.Config.WithDefaults()
	mu := &sync.Mutex{}
	store := tablestore.New(opts.KV, cfg.Store.Prefix, log.Named("tablestore"))
	rt := realtime.NewRegistry(log.Named("realtime"))

	authSvc, err := auth.New(auth.Options{
		Store:        store,
		Realtime:     rt,
		IDs:          opts.IDs,
		Mutex:        mu,
		Secret:       []byte(cfg.Auth.JWTSecret),
		TokenTTL:     cfg.Auth.TokenTTL,
		PasswordCost: cfg.Auth.PasswordCost,
		Clock:        opts.Clock,
		Logger:       log.Named("auth"),
	})
	if err != nil {
		return nil, err
	}

	b := &Backend{
		kv:    opts.KV,
		store: store,
		rt:    rt,
		engine: query.NewEngine(query.Options{
			Store:    store,
			Realtime: rt,
			IDs:      opts.IDs,
			Tables:   cfg.Tables(),
			Mutex:    mu,
			Logger:   log.Named("query"),
		}),
		auth: authSvc,
		seeder: seed.New(seed.Options{
			Store:        store,
			Mutex:        mu,
			Version:      cfg.Store.SchemaVersion,
			PasswordCost: cfg.Auth.PasswordCost,
			Clock:        opts.Clock,
			Logger:       log.Named("seed"),
		}),
		log: log,
	}
	if err := b.seeder.Run(ctx); err != nil {
		return nil, err
	}
	log.Debug("local backend ready", zap.String("prefix", cfg.Store.Prefix), zap.String("version", cfg.Store.SchemaVersion))
	return b, nil
}

// From starts a query against table.
func (b *Backend) From(table types.TableName) types.Query {
	if b.closed.Load() {
		return query.Failed(types.ErrClientClosed)
	}
	return b.engine.From(table)
}

// Channel creates a realtime channel.
func (b *Backend) Channel(name string) types.Channel {
	return b.rt.Channel(name)
}

// RemoveChannel unsubscribes ch.
func (b *Backend) RemoveChannel(ch types.Channel) error {
	if ch != nil {
		ch.Unsubscribe()
	}
	return nil
}

// Auth returns the local auth shim.
func (b *Backend) Auth() types.Auth {
	return b.auth
}

// Realtime returns the channel registry.
func (b *Backend) Realtime() *realtime.Registry {
	return b.rt
}

// Seeder returns the loader that seeded the store.
func (b *Backend) Seeder() *seed.Loader {
	return b.seeder
}

// Tables returns the table store.
func (b *Backend) Tables() *tablestore.Store {
	return b.store
}

// Close closes the key-value store. Idempotent.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		b.closeErr = b.kv.Close()
	})
	return b.closeErr
}
