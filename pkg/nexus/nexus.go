// Package nexus provides the public entry point. New binds a Client to the
// hosted backend when both hosted credentials are configured and to the
// local store otherwise; the choice is made once per client.
//
// Example:
//
//	client, err := nexus.New(types.Config{
//	    Store: types.StoreConfig{Backend: types.StoreSQLite, DataDir: ".nexus"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	res, err := client.From(types.TableContacts).Select().Order("company").Execute(ctx)
package nexus

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/nexus/internal/hosted"
	"github.com/mesh-intelligence/nexus/internal/kv"
	"github.com/mesh-intelligence/nexus/internal/local"
	"github.com/mesh-intelligence/nexus/pkg/ids"
	"github.com/mesh-intelligence/nexus/pkg/types"
)

type options struct {
	ctx        context.Context
	logger     *zap.Logger
	ids        types.IDGenerator
	clock      func() time.Time
	store      types.KeyValueStore
	httpClient *http.Client
}

// Option customizes New.
type Option func(*options)

// WithLogger routes the client's logs to log. The default discards them.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithIDGenerator overrides the generator configured by store.id_format.
func WithIDGenerator(gen types.IDGenerator) Option {
	return func(o *options) { o.ids = gen }
}

// WithClock overrides time.Now for timestamps and token expiry.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithStore supplies the local key-value store instead of opening the one
// store.backend names. The client takes ownership and closes it.
func WithStore(store types.KeyValueStore) Option {
	return func(o *options) { o.store = store }
}

// WithHTTPClient sets the HTTP client used in hosted mode.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithContext bounds the initial seeding of a local client.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// New returns a Client for cfg.
func New(cfg types.Config, opts ...Option) (types.Client, error) {
	o := options{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	cfg = cfg.WithDefaults()

	if cfg.UseHosted() {
		o.logger.Info("binding to hosted backend", zap.String("url", cfg.Hosted.URL))
		return hosted.New(hosted.Options{
			Config:     cfg.Hosted,
			Tables:     cfg.Tables(),
			HTTPClient: o.httpClient,
			Logger:     o.logger.Named("hosted"),
		})
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	gen := o.ids
	if gen == nil {
		var err error
		if gen, err = ids.ForFormat(cfg.Store.IDFormat); err != nil {
			return nil, err
		}
	}
	store := o.store
	if store == nil {
		var err error
		if store, err = kv.Open(cfg.Store); err != nil {
			return nil, err
		}
	}

	o.logger.Info("binding to local store",
		zap.String("backend", cfg.Store.Backend),
		zap.String("data_dir", cfg.Store.DataDir))
	backend, err := local.Open(o.ctx, local.Options{
		Config: cfg,
		KV:     store,
		IDs:    gen,
		Clock:  o.clock,
		Logger: o.logger.Named("local"),
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	return backend, nil
}
