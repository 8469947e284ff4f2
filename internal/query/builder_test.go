package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/nexus/internal/kv"
	"github.com/mesh-intelligence/nexus/internal/realtime"
	"github.com/mesh-intelligence/nexus/internal/tablestore"
	"github.com/mesh-intelligence/nexus/pkg/ids"
	"github.com/mesh-intelligence/nexus/pkg/types"
)

type fixture struct {
	engine *Engine
	store  *tablestore.Store
	rt     *realtime.Registry
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := tablestore.New(kv.NewMemory(), "test_", nil)
	rt := realtime.NewRegistry(nil)
	e := NewEngine(Options{
		Store:    store,
		Realtime: rt,
		IDs:      ids.NewSequential("id"),
	})
	return fixture{engine: e, store: store, rt: rt}
}

func (f fixture) seed(t *testing.T, table types.TableName, rows ...types.Record) {
	t.Helper()
	normalized := make([]types.Record, 0, len(rows))
	for _, r := range rows {
		n, err := tablestore.Normalize(r)
		require.NoError(t, err)
		normalized = append(normalized, n)
	}
	require.NoError(t, f.store.SetTable(table, normalized))
}

func exec(t *testing.T, q types.Query) *types.Result {
	t.Helper()
	res, err := q.Execute(context.Background())
	require.NoError(t, err)
	return res
}

func TestInsertRoundTrip(t *testing.T) {
	f := newFixture(t)

	res := exec(t, f.engine.From(types.TableContacts).Insert(types.Record{"name": "Acme", "score": 3}))
	require.Len(t, res.Rows, 1)
	id := res.First().ID()
	assert.Equal(t, "id1", id)

	got := exec(t, f.engine.From(types.TableContacts).Select().Eq("id", id).Single())
	assert.Equal(t, types.Record{"id": id, "name": "Acme", "score": 3.0}, got.First())
}

func TestInsertKeepsCallerID(t *testing.T) {
	f := newFixture(t)
	res := exec(t, f.engine.From(types.TableTasks).Insert(
		types.Record{"id": "mine", "title": "a"},
		types.Record{"id": "", "title": "b"},
		types.Record{"title": "c"},
	))
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "mine", res.Rows[0].ID())
	assert.Equal(t, "id1", res.Rows[1].ID())
	assert.Equal(t, "id2", res.Rows[2].ID())
	assert.Len(t, f.store.GetTable(types.TableTasks), 3)
}

func TestInsertReplacesFalsyIDs(t *testing.T) {
	f := newFixture(t)
	res := exec(t, f.engine.From(types.TableTasks).Insert(
		types.Record{"id": 0, "title": "zero"},
		types.Record{"id": false, "title": "false"},
		types.Record{"id": nil, "title": "null"},
		types.Record{"id": 7, "title": "seven"},
	))
	require.Len(t, res.Rows, 4)
	assert.Equal(t, "id1", res.Rows[0][types.FieldID])
	assert.Equal(t, "id2", res.Rows[1][types.FieldID])
	assert.Equal(t, "id3", res.Rows[2][types.FieldID])
	assert.Equal(t, 7.0, res.Rows[3][types.FieldID])
}

func TestUpdateAndDeleteReachCompositeIDs(t *testing.T) {
	f := newFixture(t)
	exec(t, f.engine.From(types.TableTasks).Insert(
		types.Record{"id": map[string]any{"k": 1}, "title": "x"},
		types.Record{"id": []any{"a"}, "title": "x"},
		types.Record{"id": "plain", "title": "y"},
	))

	res := exec(t, f.engine.From(types.TableTasks).Update(types.Record{"status": "done"}).Eq("title", "x").Select())
	require.Len(t, res.Rows, 2)
	for _, row := range res.Rows {
		assert.Equal(t, "done", row["status"])
	}

	res = exec(t, f.engine.From(types.TableTasks).Delete().Eq("title", "x"))
	assert.Equal(t, []string{`{"k":1}`, `["a"]`}, res.IDs)

	left := exec(t, f.engine.From(types.TableTasks).Select().Eq("title", "x"))
	assert.Empty(t, left.Rows)
	all := exec(t, f.engine.From(types.TableTasks).Select())
	require.Len(t, all.Rows, 1)
	assert.Equal(t, "plain", all.First().ID())
}

func TestInsertSingleReturnsFirstRow(t *testing.T) {
	f := newFixture(t)
	res := exec(t, f.engine.From(types.TableTasks).Insert(types.Record{"title": "a"}).Select().Single())
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "a", res.First()["title"])
}

func TestFilterSemantics(t *testing.T) {
	f := newFixture(t)
	f.seed(t, types.TableDeals,
		types.Record{"id": "1", "stage": "won", "value": 100, "owner": "ann"},
		types.Record{"id": "2", "stage": "won", "value": 200, "owner": "bob"},
		types.Record{"id": "3", "stage": "lost", "value": 100, "owner": "ann"},
		types.Record{"id": "4", "stage": nil, "value": "100"},
	)

	tests := []struct {
		name    string
		filters [][2]any
		want    []string
	}{
		{"no filters", nil, []string{"1", "2", "3", "4"}},
		{"string", [][2]any{{"stage", "won"}}, []string{"1", "2"}},
		{"int matches stored number", [][2]any{{"value", 100}}, []string{"1", "3"}},
		{"float matches stored number", [][2]any{{"value", 100.0}}, []string{"1", "3"}},
		{"string does not match number", [][2]any{{"value", "100"}}, []string{"4"}},
		{"null matches present null only", [][2]any{{"stage", nil}}, []string{"4"}},
		{"and", [][2]any{{"stage", "won"}, {"owner", "ann"}}, []string{"1"}},
		{"and is order independent", [][2]any{{"owner", "ann"}, {"stage", "won"}}, []string{"1"}},
		{"missing field", [][2]any{{"nope", "x"}}, nil},
		{"composite never matches", [][2]any{{"stage", []string{"won"}}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := f.engine.From(types.TableDeals).Select()
			for _, pair := range tt.filters {
				q = q.Eq(pair[0].(string), pair[1])
			}
			res := exec(t, q)
			var got []string
			for _, r := range res.Rows {
				got = append(got, r.ID())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrdering(t *testing.T) {
	f := newFixture(t)
	f.seed(t, types.TableProducts,
		types.Record{"id": "a", "name": "banana", "price": 10},
		types.Record{"id": "b", "name": "Apple", "price": 2},
		types.Record{"id": "c", "name": "cherry"},
		types.Record{"id": "d", "name": "apricot", "price": 30},
		types.Record{"id": "e", "name": "date", "price": nil},
	)

	order := func(q types.Query) []string {
		var out []string
		for _, r := range exec(t, q).Rows {
			out = append(out, r.ID())
		}
		return out
	}

	t.Run("numeric ascending nulls last", func(t *testing.T) {
		got := order(f.engine.From(types.TableProducts).Select().Order("price"))
		assert.Equal(t, []string{"b", "a", "d", "c", "e"}, got)
	})
	t.Run("numeric descending nulls first", func(t *testing.T) {
		got := order(f.engine.From(types.TableProducts).Select().Order("price", types.Descending()))
		assert.Equal(t, []string{"c", "e", "d", "a", "b"}, got)
	})
	t.Run("strings use collation", func(t *testing.T) {
		got := order(f.engine.From(types.TableProducts).Select().Order("name", types.Ascending(true)))
		assert.Equal(t, []string{"b", "d", "a", "c", "e"}, got)
	})
	t.Run("descending reverses ascending", func(t *testing.T) {
		asc := order(f.engine.From(types.TableProducts).Select().Order("name"))
		desc := order(f.engine.From(types.TableProducts).Select().Order("name", types.Descending()))
		for i, j := 0, len(desc)-1; i < j; i, j = i+1, j-1 {
			desc[i], desc[j] = desc[j], desc[i]
		}
		assert.Equal(t, asc, desc)
	})
	t.Run("last order call wins", func(t *testing.T) {
		got := order(f.engine.From(types.TableProducts).Select().Order("price").Order("name"))
		assert.Equal(t, []string{"b", "d", "a", "c", "e"}, got)
	})
	t.Run("stable for equal keys", func(t *testing.T) {
		f.seed(t, types.TableTasks,
			types.Record{"id": "1", "p": 1}, types.Record{"id": "2", "p": 0},
			types.Record{"id": "3", "p": 1}, types.Record{"id": "4", "p": 0},
		)
		got := order(f.engine.From(types.TableTasks).Select().Order("p"))
		assert.Equal(t, []string{"2", "4", "1", "3"}, got)
	})
}

func TestSingleModes(t *testing.T) {
	f := newFixture(t)
	f.seed(t, types.TableTasks, types.Record{"id": "1"}, types.Record{"id": "2"})

	_, err := f.engine.From(types.TableTasks).Select().Eq("id", "x").Single().Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNoRows)
	assert.Equal(t, "No rows found", err.Error())

	res := exec(t, f.engine.From(types.TableTasks).Select().Eq("id", "x").MaybeSingle())
	assert.Nil(t, res.First())
	assert.Equal(t, 0, res.Len())

	res = exec(t, f.engine.From(types.TableTasks).Select().Single())
	assert.Equal(t, 1, res.Len())
	assert.Equal(t, "1", res.First().ID())

	res = exec(t, f.engine.From(types.TableTasks).Select().Eq("id", "x"))
	assert.NotNil(t, res.Rows)
	assert.Empty(t, res.Rows)
}

func TestUpdateScoping(t *testing.T) {
	f := newFixture(t)
	f.seed(t, types.TableTasks,
		types.Record{"id": "1", "status": "open", "title": "a"},
		types.Record{"id": "2", "status": "open", "title": "b"},
		types.Record{"id": "3", "status": "done", "title": "c"},
	)
	before := f.store.GetTable(types.TableTasks)

	res := exec(t, f.engine.From(types.TableTasks).Update(types.Record{"status": "done", "extra": true}).Eq("status", "open"))
	assert.Nil(t, res.Rows)
	assert.Equal(t, []string{"1", "2"}, res.IDs)

	after := f.store.GetTable(types.TableTasks)
	require.Len(t, after, 3)
	assert.Equal(t, types.Record{"id": "1", "status": "done", "title": "a", "extra": true}, after[0])
	assert.Equal(t, types.Record{"id": "2", "status": "done", "title": "b", "extra": true}, after[1])
	assert.Equal(t, before[2], after[2])
}

func TestUpdateReturnsRowsWhenSelected(t *testing.T) {
	f := newFixture(t)
	f.seed(t, types.TableTasks, types.Record{"id": "1", "title": "a"}, types.Record{"id": "2", "title": "b"})

	res := exec(t, f.engine.From(types.TableTasks).Update(types.Record{"title": "z"}).Eq("id", "2").Select())
	assert.Equal(t, []types.Record{{"id": "2", "title": "z"}}, res.Rows)

	res = exec(t, f.engine.From(types.TableTasks).Update(types.Record{"title": "y"}).Eq("id", "1").Single())
	assert.Equal(t, types.Record{"id": "1", "title": "y"}, res.First())

	_, err := f.engine.From(types.TableTasks).Update(types.Record{"title": "y"}).Eq("id", "x").Single().Execute(context.Background())
	assert.ErrorIs(t, err, types.ErrNoRows)
}

func TestDeleteCompleteness(t *testing.T) {
	f := newFixture(t)
	f.seed(t, types.TableNotifications,
		types.Record{"id": "1", "read": true},
		types.Record{"id": "2", "read": false},
		types.Record{"id": "3", "read": true},
	)

	res := exec(t, f.engine.From(types.TableNotifications).Delete().Eq("read", true))
	assert.Equal(t, []string{"1", "3"}, res.IDs)

	remaining := exec(t, f.engine.From(types.TableNotifications).Select())
	require.Len(t, remaining.Rows, 1)
	assert.Equal(t, "2", remaining.First().ID())

	left := exec(t, f.engine.From(types.TableNotifications).Select().Eq("read", true))
	assert.Empty(t, left.Rows)

	res = exec(t, f.engine.From(types.TableNotifications).Delete().Eq("id", "missing"))
	assert.Empty(t, res.IDs)
}

func TestSelectColumns(t *testing.T) {
	f := newFixture(t)
	f.seed(t, types.TableContacts, types.Record{"id": "1", "name": "Acme", "email": "a@b.co"})

	res := exec(t, f.engine.From(types.TableContacts).Select("id, name"))
	assert.Equal(t, []types.Record{{"id": "1", "name": "Acme"}}, res.Rows)

	res = exec(t, f.engine.From(types.TableContacts).Select("*"))
	assert.Len(t, res.First(), 3)
}

func TestInsertEmitsRealtime(t *testing.T) {
	f := newFixture(t)
	var got []string
	f.rt.Channel("c").On(types.EventPostgresChanges, types.ChangeFilter{Event: types.EventAll, Table: "tasks"}, func(p types.ChangePayload) {
		got = append(got, p.New["title"].(string))
	})

	exec(t, f.engine.From(types.TableTasks).Insert(types.Record{"title": "a"}, types.Record{"title": "b"}))
	exec(t, f.engine.From(types.TableDeals).Insert(types.Record{"title": "other"}))
	exec(t, f.engine.From(types.TableTasks).Update(types.Record{"title": "c"}))
	exec(t, f.engine.From(types.TableTasks).Delete())

	assert.Equal(t, []string{"a", "b"}, got)
}

func TestHandlerMayQueryDuringEmission(t *testing.T) {
	f := newFixture(t)
	var seen int
	f.rt.Channel("c").On(types.EventPostgresChanges, types.ChangeFilter{Table: "tasks"}, func(types.ChangePayload) {
		res, err := f.engine.From(types.TableTasks).Select().Execute(context.Background())
		require.NoError(t, err)
		seen = res.Len()
	})
	exec(t, f.engine.From(types.TableTasks).Insert(types.Record{"title": "a"}))
	assert.Equal(t, 1, seen)
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	f := newFixture(t)
	f.rt.Channel("c").On(types.EventPostgresChanges, types.ChangeFilter{Table: "tasks"}, func(types.ChangePayload) {
		panic("boom")
	})

	_, err := f.engine.From(types.TableTasks).Insert(types.Record{"title": "a"}).Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrHandlerPanic)
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, f.store.GetTable(types.TableTasks), 1)
}

func TestUnknownTable(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.From("widgets").Select().Execute(context.Background())
	assert.ErrorIs(t, err, types.ErrUnknownTable)

	extra := NewEngine(Options{
		Store:  f.store,
		Tables: map[types.TableName]bool{"widgets": true},
	})
	res, err := extra.From("widgets").Insert(types.Record{"id": "w1"}).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "w1", res.First().ID())
}

func TestExecuteRunsOnce(t *testing.T) {
	f := newFixture(t)
	q := f.engine.From(types.TableTasks).Insert(types.Record{"title": "a"})
	first := exec(t, q)
	second := exec(t, q)
	assert.Same(t, first, second)
	assert.Len(t, f.store.GetTable(types.TableTasks), 1)
}

func TestExecuteHonorsCanceledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.engine.From(types.TableTasks).Insert(types.Record{"title": "a"}).Execute(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, f.store.GetTable(types.TableTasks))
}

func TestContactLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.engine.From(types.TableContacts).Insert(types.Record{"name": "Acme"}).Execute(ctx)
	require.NoError(t, err)
	id := res.First().ID()
	require.NotEmpty(t, id)

	got := exec(t, f.engine.From(types.TableContacts).Select().Eq("name", "Acme").Single())
	assert.Equal(t, types.Record{"id": id, "name": "Acme"}, got.First())

	exec(t, f.engine.From(types.TableContacts).Update(types.Record{"name": "Acme Corp"}).Eq("id", id))
	got = exec(t, f.engine.From(types.TableContacts).Select().Eq("id", id).MaybeSingle())
	assert.Equal(t, types.Record{"id": id, "name": "Acme Corp"}, got.First())

	exec(t, f.engine.From(types.TableContacts).Delete().Eq("id", id))
	got = exec(t, f.engine.From(types.TableContacts).Select().Eq("id", id).MaybeSingle())
	assert.Nil(t, got.First())
}
