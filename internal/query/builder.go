package query

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/nexus/internal/tablestore"
	"github.com/mesh-intelligence/nexus/pkg/types"
)

type operation int

const (
	opNone operation = iota
	opSelect
	opInsert
	opUpdate
	opDelete
)

func (o operation) String() string {
	switch o {
	case opSelect:
		return "select"
	case opInsert:
		return "insert"
	case opUpdate:
		return "update"
	case opDelete:
		return "delete"
	default:
		return "none"
	}
}

type singleMode int

const (
	modeMany singleMode = iota
	modeSingle
	modeMaybeSingle
)

// Builder is one pending operation. It is not safe for concurrent use
// until Execute, which may be called from any goroutine.
type Builder struct {
	e     *Engine
	table types.TableName

	op        operation
	selection bool
	columns   []string
	rows      []types.Record
	patch     types.Record
	filters   []filter
	order     *types.OrderSpec
	mode      singleMode

	once sync.Once
	res  *types.Result
	err  error
}

var _ types.Query = (*Builder)(nil)

// Select marks a read, or asks an insert or update to return its rows.
// Columns may be given separately or comma separated; "*" or none
// returns every field.
func (b *Builder) Select(columns ...string) types.Query {
	b.columns = parseColumns(columns)
	if b.op == opInsert || b.op == opUpdate {
		b.selection = true
		return b
	}
	b.op = opSelect
	return b
}

// Insert stages rows for insertion.
func (b *Builder) Insert(rows ...types.Record) types.Query {
	b.op = opInsert
	b.rows = rows
	return b
}

// Update stages a shallow merge of patch onto every matched row.
func (b *Builder) Update(patch types.Record) types.Query {
	b.op = opUpdate
	b.patch = patch
	return b
}

// Delete stages removal of every matched row.
func (b *Builder) Delete() types.Query {
	b.op = opDelete
	return b
}

// Eq adds an equality filter.
func (b *Builder) Eq(field string, value any) types.Query {
	b.filters = append(b.filters, newFilter(field, value))
	return b
}

// Order sets the sort key, replacing any earlier one.
func (b *Builder) Order(field string, opts ...types.OrderOption) types.Query {
	spec := types.NewOrderSpec(field, opts...)
	b.order = &spec
	return b
}

// Single expects exactly one row.
func (b *Builder) Single() types.Query {
	b.mode = modeSingle
	return b
}

// MaybeSingle expects zero or one row.
func (b *Builder) MaybeSingle() types.Query {
	b.mode = modeMaybeSingle
	return b
}

// Execute runs the staged operation once and caches its outcome.
func (b *Builder) Execute(ctx context.Context) (*types.Result, error) {
	b.once.Do(func() {
		b.res, b.err = b.run(ctx)
	})
	return b.res, b.err
}

func (b *Builder) run(ctx context.Context) (*types.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !b.e.tables[b.table] {
		return nil, types.Errorf(types.KindUnknownTable, fmt.Sprintf("Unknown table: %s", b.table))
	}

	b.e.log.Debug("executing query",
		zap.String("table", string(b.table)),
		zap.Stringer("op", b.op),
		zap.Int("filters", len(b.filters)))

	switch b.op {
	case opSelect:
		return b.runSelect()
	case opInsert:
		return b.runInsert()
	case opUpdate:
		return b.runUpdate()
	case opDelete:
		return b.runDelete()
	default:
		return &types.Result{}, nil
	}
}

func (b *Builder) runSelect() (*types.Result, error) {
	b.e.mu.Lock()
	table := b.e.store.GetTable(b.table)
	b.e.mu.Unlock()

	rows := b.applyFilters(table)
	if b.order != nil {
		sortRows(rows, *b.order)
	}
	return b.shapeRows(rows)
}

func (b *Builder) runInsert() (*types.Result, error) {
	inserted := make([]types.Record, 0, len(b.rows))
	for _, row := range b.rows {
		rec, err := tablestore.Normalize(row)
		if err != nil {
			return nil, err
		}
		if missingID(rec) {
			rec[types.FieldID] = b.e.ids.NewID()
		}
		inserted = append(inserted, rec)
	}

	b.e.mu.Lock()
	table := b.e.store.GetTable(b.table)
	err := b.e.store.SetTable(b.table, append(table, inserted...))
	b.e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if err := b.emitInserts(inserted); err != nil {
		return nil, err
	}
	return b.shapeRows(inserted)
}

func (b *Builder) runUpdate() (*types.Result, error) {
	patch, err := tablestore.Normalize(b.patch)
	if err != nil {
		return nil, err
	}

	b.e.mu.Lock()
	table := b.e.store.GetTable(b.table)
	updated := []types.Record{}
	ids := []string{}
	for i, row := range table {
		if !b.matches(row) {
			continue
		}
		table[i] = row.Merge(patch)
		updated = append(updated, table[i])
		ids = append(ids, idString(row[types.FieldID]))
	}
	err = b.e.store.SetTable(b.table, table)
	b.e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if b.selection || b.mode != modeMany {
		return b.shapeRows(updated)
	}
	return b.shapeIDs(ids)
}

func (b *Builder) runDelete() (*types.Result, error) {
	b.e.mu.Lock()
	table := b.e.store.GetTable(b.table)
	ids := []string{}
	remaining := make([]types.Record, 0, len(table))
	for _, row := range table {
		if b.matches(row) {
			ids = append(ids, idString(row[types.FieldID]))
			continue
		}
		remaining = append(remaining, row)
	}
	err := b.e.store.SetTable(b.table, remaining)
	b.e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return b.shapeIDs(ids)
}

// emitInserts notifies the registry once per row in order. A panicking
// handler stops delivery; the rows stay persisted.
func (b *Builder) emitInserts(rows []types.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.e.log.Warn("realtime handler panicked", zap.String("table", string(b.table)), zap.Any("panic", r))
			err = types.Errorf(types.KindHandlerPanic, fmt.Sprintf("realtime handler panicked: %v", r))
		}
	}()
	for _, row := range rows {
		b.e.rt.NotifyInsert(b.table, row)
	}
	return nil
}

func (b *Builder) applyFilters(rows []types.Record) []types.Record {
	out := make([]types.Record, 0, len(rows))
	for _, row := range rows {
		if b.matches(row) {
			out = append(out, row)
		}
	}
	return out
}

func (b *Builder) matches(row types.Record) bool {
	for _, f := range b.filters {
		if !f.match(row) {
			return false
		}
	}
	return true
}

func (b *Builder) shapeRows(rows []types.Record) (*types.Result, error) {
	rows = project(rows, b.columns)
	switch b.mode {
	case modeSingle:
		if len(rows) == 0 {
			return nil, types.ErrNoRows
		}
		return &types.Result{Rows: rows[:1]}, nil
	case modeMaybeSingle:
		if len(rows) == 0 {
			return &types.Result{}, nil
		}
		return &types.Result{Rows: rows[:1]}, nil
	default:
		return &types.Result{Rows: rows}, nil
	}
}

func (b *Builder) shapeIDs(ids []string) (*types.Result, error) {
	switch b.mode {
	case modeSingle:
		if len(ids) == 0 {
			return nil, types.ErrNoRows
		}
		return &types.Result{IDs: ids[:1]}, nil
	case modeMaybeSingle:
		if len(ids) == 0 {
			return &types.Result{}, nil
		}
		return &types.Result{IDs: ids[:1]}, nil
	default:
		return &types.Result{IDs: ids}, nil
	}
}

// missingID reports whether r needs a generated id: absent, null, empty,
// zero, or false.
func missingID(r types.Record) bool {
	switch v := r[types.FieldID].(type) {
	case nil:
		return true
	case string:
		return v == ""
	case float64:
		return v == 0 || math.IsNaN(v)
	case bool:
		return !v
	default:
		return false
	}
}

// idString renders an id for Result.IDs. Composite ids are rendered as
// JSON.
func idString(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64, bool:
		return fmt.Sprint(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

func parseColumns(columns []string) []string {
	var out []string
	for _, c := range columns {
		for _, part := range strings.Split(c, ",") {
			part = strings.TrimSpace(part)
			if part == "*" {
				return nil
			}
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func project(rows []types.Record, columns []string) []types.Record {
	if len(columns) == 0 {
		return rows
	}
	out := make([]types.Record, len(rows))
	for i, row := range rows {
		p := make(types.Record, len(columns))
		for _, c := range columns {
			if v, ok := row[c]; ok {
				p[c] = v
			}
		}
		out[i] = p
	}
	return out
}
