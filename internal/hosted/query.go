package hosted

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/nexus/pkg/types"
)

type operation int

const (
	opSelect operation = iota + 1
	opInsert
	opUpdate
	opDelete
)

type singleMode int

const (
	modeMany singleMode = iota
	modeSingle
	modeMaybeSingle
)

const (
	preferRepresentation = "return=representation"
	acceptObject         = "application/vnd.pgrst.object+json"
)

type eqFilter struct {
	field string
	value any
}

// remoteQuery translates builder calls into one PostgREST request.
type remoteQuery struct {
	c     *Client
	table types.TableName

	op        operation
	selection bool
	columns   []string
	rows      []types.Record
	patch     types.Record
	filters   []eqFilter
	order     *types.OrderSpec
	mode      singleMode

	once sync.Once
	res  *types.Result
	err  error
}

var _ types.Query = (*remoteQuery)(nil)

func (q *remoteQuery) Select(columns ...string) types.Query {
	q.columns = columns
	if q.op == opInsert || q.op == opUpdate {
		q.selection = true
		return q
	}
	q.op = opSelect
	return q
}

func (q *remoteQuery) Insert(rows ...types.Record) types.Query {
	q.op = opInsert
	q.rows = rows
	return q
}

func (q *remoteQuery) Update(patch types.Record) types.Query {
	q.op = opUpdate
	q.patch = patch
	return q
}

func (q *remoteQuery) Delete() types.Query {
	q.op = opDelete
	return q
}

func (q *remoteQuery) Eq(field string, value any) types.Query {
	q.filters = append(q.filters, eqFilter{field: field, value: value})
	return q
}

func (q *remoteQuery) Order(field string, opts ...types.OrderOption) types.Query {
	spec := types.NewOrderSpec(field, opts...)
	q.order = &spec
	return q
}

func (q *remoteQuery) Single() types.Query {
	q.mode = modeSingle
	return q
}

func (q *remoteQuery) MaybeSingle() types.Query {
	q.mode = modeMaybeSingle
	return q
}

func (q *remoteQuery) Execute(ctx context.Context) (*types.Result, error) {
	q.once.Do(func() {
		q.res, q.err = q.run(ctx)
	})
	return q.res, q.err
}

func (q *remoteQuery) run(ctx context.Context) (*types.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !q.c.tables[q.table] {
		return nil, types.Errorf(types.KindUnknownTable, fmt.Sprintf("Unknown table: %s", q.table))
	}

	req := request{
		path:    restPath + url.PathEscape(string(q.table)),
		query:   q.params(),
		headers: map[string]string{},
	}
	if sess := q.c.auth.GetSession(); sess != nil {
		req.bearer = sess.AccessToken
	}

	switch q.op {
	case opSelect:
		req.method = http.MethodGet
		if q.mode == modeSingle {
			req.headers["Accept"] = acceptObject
			data, err := q.c.do(ctx, req)
			if err != nil {
				return nil, err
			}
			var row types.Record
			if err := json.Unmarshal(data, &row); err != nil {
				return nil, fmt.Errorf("decoding %s row: %w", q.table, err)
			}
			return &types.Result{Rows: []types.Record{row}}, nil
		}
		rows, err := q.fetchRows(ctx, req)
		if err != nil {
			return nil, err
		}
		return shapeRows(rows, q.mode)

	case opInsert:
		req.method = http.MethodPost
		req.body = q.rows
		req.headers["Prefer"] = preferRepresentation
		rows, err := q.fetchRows(ctx, req)
		if err != nil {
			return nil, err
		}
		if err := q.emitInserts(rows); err != nil {
			return nil, err
		}
		return shapeRows(rows, q.mode)

	case opUpdate:
		req.method = http.MethodPatch
		req.body = q.patch
		req.headers["Prefer"] = preferRepresentation
		rows, err := q.fetchRows(ctx, req)
		if err != nil {
			return nil, err
		}
		if q.selection || q.mode != modeMany {
			return shapeRows(rows, q.mode)
		}
		return shapeIDs(rowIDs(rows), q.mode)

	case opDelete:
		req.method = http.MethodDelete
		req.headers["Prefer"] = preferRepresentation
		rows, err := q.fetchRows(ctx, req)
		if err != nil {
			return nil, err
		}
		return shapeIDs(rowIDs(rows), q.mode)

	default:
		return &types.Result{}, nil
	}
}

// params encodes the filters, ordering, and column selection.
func (q *remoteQuery) params() url.Values {
	v := url.Values{}
	cols := strings.Join(q.columns, ",")
	if cols == "" {
		cols = "*"
	}
	if q.op == opSelect || q.selection || q.op == opInsert || q.op == opUpdate {
		v.Set("select", cols)
	}
	for _, f := range q.filters {
		v.Add(f.field, eqParam(f.value))
	}
	if q.order != nil && q.op == opSelect {
		dir := "asc.nullslast"
		if !q.order.Ascending {
			dir = "desc.nullsfirst"
		}
		v.Set("order", q.order.Field+"."+dir)
	}
	return v
}

func eqParam(value any) string {
	switch v := value.(type) {
	case nil:
		return "is.null"
	case string:
		return "eq." + v
	default:
		return "eq." + fmt.Sprint(v)
	}
}

func (q *remoteQuery) fetchRows(ctx context.Context, req request) ([]types.Record, error) {
	data, err := q.c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	rows := []types.Record{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding %s rows: %w", q.table, err)
	}
	return rows, nil
}

func (q *remoteQuery) emitInserts(rows []types.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			q.c.log.Warn("realtime handler panicked", zap.String("table", string(q.table)), zap.Any("panic", r))
			err = types.Errorf(types.KindHandlerPanic, fmt.Sprintf("realtime handler panicked: %v", r))
		}
	}()
	for _, row := range rows {
		q.c.rt.NotifyInsert(q.table, row)
	}
	return nil
}

func rowIDs(rows []types.Record) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if v, ok := r[types.FieldID]; ok && v != nil {
			ids = append(ids, fmt.Sprint(v))
		}
	}
	return ids
}

func shapeRows(rows []types.Record, mode singleMode) (*types.Result, error) {
	switch {
	case mode == modeSingle && len(rows) == 0:
		return nil, types.ErrNoRows
	case mode != modeMany && len(rows) == 0:
		return &types.Result{}, nil
	case mode != modeMany:
		return &types.Result{Rows: rows[:1]}, nil
	default:
		return &types.Result{Rows: rows}, nil
	}
}

func shapeIDs(ids []string, mode singleMode) (*types.Result, error) {
	switch {
	case mode == modeSingle && len(ids) == 0:
		return nil, types.ErrNoRows
	case mode != modeMany && len(ids) == 0:
		return &types.Result{}, nil
	case mode != modeMany:
		return &types.Result{IDs: ids[:1]}, nil
	default:
		return &types.Result{IDs: ids}, nil
	}
}
