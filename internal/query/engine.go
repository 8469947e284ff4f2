// Package query implements the chainable table query builder of the local
// backend. A builder stages one operation against one table and runs it on
// Execute as a single read-modify-write of the whole table.
package query

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/nexus/internal/realtime"
	"github.com/mesh-intelligence/nexus/internal/tablestore"
	"github.com/mesh-intelligence/nexus/pkg/ids"
	"github.com/mesh-intelligence/nexus/pkg/types"
)

// Options configures an Engine.
type Options struct {
	Store    *tablestore.Store
	Realtime *realtime.Registry

	// IDs generates ids for inserted rows without one. Defaults to
	// ids.Token.
	IDs types.IDGenerator

	// Tables lists the table names From accepts. Defaults to the
	// well-known tables.
	Tables map[types.TableName]bool

	// Mutex serializes each Execute's read-modify-write. Share it with
	// other writers of the same store.
	Mutex *sync.Mutex

	Logger *zap.Logger
}

// Engine creates builders that share one store, registry, and lock.
type Engine struct {
	store  *tablestore.Store
	rt     *realtime.Registry
	ids    types.IDGenerator
	tables map[types.TableName]bool
	mu     *sync.Mutex
	log    *zap.Logger
}

// NewEngine returns an Engine for opts.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		store:  opts.Store,
		rt:     opts.Realtime,
		ids:    opts.IDs,
		tables: opts.Tables,
		mu:     opts.Mutex,
		log:    opts.Logger,
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.ids == nil {
		e.ids = ids.Token{}
	}
	if e.tables == nil {
		e.tables = make(map[types.TableName]bool, len(types.WellKnownTables))
		for _, t := range types.WellKnownTables {
			e.tables[t] = true
		}
	}
	if e.mu == nil {
		e.mu = &sync.Mutex{}
	}
	if e.rt == nil {
		e.rt = realtime.NewRegistry(e.log)
	}
	return e
}

// From starts a query against table.
func (e *Engine) From(table types.TableName) types.Query {
	return &Builder{e: e, table: table, op: opSelect}
}
