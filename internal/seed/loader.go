// Package seed guarantees the local backend's baseline data: fixture rows
// for the well-known tables, generated call-monitoring history, and the
// owner account. Seeding never overwrites a table that already has rows.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/nexus/internal/auth"
	"github.com/mesh-intelligence/nexus/internal/tablestore"
	"github.com/mesh-intelligence/nexus/pkg/types"
)

// Owner account created on first run.
const (
	AdminID       = "user_admin_001"
	AdminEmail    = "main@tnd-opc.com"
	AdminPassword = "12345678"
	AdminFullName = "James Quek"
)

// Options configures a Loader.
type Options struct {
	Store *tablestore.Store

	// Mutex is held for the whole run. Share it with the query engine.
	Mutex *sync.Mutex

	// Version is the schema-version marker. A stored marker that differs
	// clears the mock data tables before seeding.
	Version string

	// Days of call-monitoring history to generate.
	Days int

	PasswordCost int
	Clock        func() time.Time
	Rand         *rand.Rand
	Logger       *zap.Logger
}

// Loader seeds a table store.
type Loader struct {
	store   *tablestore.Store
	mu      *sync.Mutex
	version string
	days    int
	cost    int
	now     func() time.Time
	rng     *rand.Rand
	log     *zap.Logger
}

// New returns a Loader for opts.
func New(opts Options) *Loader {
	l := &Loader{
		store:   opts.Store,
		mu:      opts.Mutex,
		version: opts.Version,
		days:    opts.Days,
		cost:    opts.PasswordCost,
		now:     opts.Clock,
		rng:     opts.Rand,
		log:     opts.Logger,
	}
	if l.mu == nil {
		l.mu = &sync.Mutex{}
	}
	if l.version == "" {
		l.version = types.DefaultSchemaVersion
	}
	if l.days <= 0 {
		l.days = DefaultCallMonitoringDays
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.rng == nil {
		l.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	return l
}

// Run brings the store up to the baseline. It is idempotent while the
// version marker is unchanged.
func (l *Loader) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if stored := l.store.Version(); stored != l.version {
		l.log.Info("schema version changed; clearing mock data",
			zap.String("stored", stored), zap.String("version", l.version))
		if err := l.reset(); err != nil {
			return err
		}
	}

	for _, table := range fixtureTables {
		if err := l.seedIfEmpty(table, func() ([]types.Record, error) { return Fixture(table) }); err != nil {
			return err
		}
	}
	if err := l.seedIfEmpty(types.TableNotifications, func() ([]types.Record, error) {
		return Notifications(l.now())
	}); err != nil {
		return err
	}
	if err := l.seedCallMonitoring(); err != nil {
		return err
	}
	return l.ensureAdmin()
}

// Reset clears the mock data tables and rewrites the version marker.
// Accounts in users and profiles survive. Call Run afterwards to reseed.
func (l *Loader) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reset()
}

func (l *Loader) reset() error {
	for _, table := range types.MockDataTables {
		if err := l.store.RemoveTable(table); err != nil {
			return err
		}
	}
	return l.store.SetVersion(l.version)
}

func (l *Loader) seedIfEmpty(table types.TableName, rows func() ([]types.Record, error)) error {
	if len(l.store.GetTable(table)) > 0 {
		return nil
	}
	data, err := rows()
	if err != nil {
		return err
	}
	if err := l.store.SetTable(table, data); err != nil {
		return err
	}
	l.log.Debug("seeded table", zap.String("table", string(table)), zap.Int("rows", len(data)))
	return nil
}

func (l *Loader) seedCallMonitoring() error {
	empty := map[types.TableName]bool{}
	for _, t := range []types.TableName{types.TableCallLogs, types.TableInquiries, types.TablePurchases} {
		empty[t] = len(l.store.GetTable(t)) == 0
	}
	if !empty[types.TableCallLogs] && !empty[types.TableInquiries] && !empty[types.TablePurchases] {
		return nil
	}

	contactRows, err := Fixture(types.TableContacts)
	if err != nil {
		return err
	}
	contacts, err := types.DecodeRows[types.Contact](contactRows)
	if err != nil {
		return fmt.Errorf("decoding contacts fixture: %w", err)
	}
	roster, err := agents()
	if err != nil {
		return err
	}
	names := make([]string, len(roster))
	for i, a := range roster {
		names[i] = a.Name
	}

	gen := GenerateCallMonitoring(contacts, names, l.days, l.now(), l.rng)
	generated := map[types.TableName]func() ([]types.Record, error){
		types.TableCallLogs:  func() ([]types.Record, error) { return encodeRows(gen.CallLogs) },
		types.TableInquiries: func() ([]types.Record, error) { return encodeRows(gen.Inquiries) },
		types.TablePurchases: func() ([]types.Record, error) { return encodeRows(gen.Purchases) },
	}
	for _, t := range []types.TableName{types.TableCallLogs, types.TableInquiries, types.TablePurchases} {
		if !empty[t] {
			continue
		}
		if err := l.seedIfEmpty(t, generated[t]); err != nil {
			return err
		}
	}
	return nil
}

// ensureAdmin creates the owner account, or restores its profile's role
// and access rights when the account already exists.
func (l *Loader) ensureAdmin() error {
	users := l.store.GetTable(types.TableUsers)
	profiles := l.store.GetTable(types.TableProfiles)

	for _, u := range users {
		if u.ID() != AdminID {
			continue
		}
		for i, p := range profiles {
			if p.ID() == AdminID {
				profiles[i] = p.Merge(types.Record{
					types.MetaRole:         types.RoleOwner,
					types.MetaAccessRights: []any{"*"},
				})
			}
		}
		return l.store.SetTable(types.TableProfiles, profiles)
	}

	hash, err := auth.HashPassword(AdminPassword, l.cost)
	if err != nil {
		return err
	}
	admin := &types.User{
		ID:    AdminID,
		Email: AdminEmail,
		UserMetadata: types.UserMetadata{
			types.MetaFullName:     AdminFullName,
			types.MetaRole:         types.RoleOwner,
			types.MetaAvatarURL:    types.AvatarURL(AdminFullName, AdminEmail),
			types.MetaAccessRights: []any{"*"},
		},
	}
	userRec, err := tablestore.Normalize(auth.UserRecord(admin, hash))
	if err != nil {
		return err
	}
	profile, err := tablestore.Normalize(auth.ProfileRecord(admin))
	if err != nil {
		return err
	}
	if err := l.store.SetTable(types.TableUsers, append(users, userRec)); err != nil {
		return err
	}
	if err := l.store.SetTable(types.TableProfiles, append(profiles, profile)); err != nil {
		return err
	}
	l.log.Info("created owner account", zap.String("email", AdminEmail))
	return nil
}
