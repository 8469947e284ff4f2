package types

import "context"

// Query is one pending operation against one table. Builder methods return
// the same Query so calls chain; nothing runs until Execute.
type Query interface {
	// Select marks the query as a read. When an insert or update is already
	// staged it instead asks for the affected rows in the result.
	Select(columns ...string) Query

	// Insert stages an insert of one or more rows. Rows without an id get a
	// generated one.
	Insert(rows ...Record) Query

	// Update stages a shallow merge of patch onto every matched row.
	Update(patch Record) Query

	// Delete stages removal of every matched row.
	Delete() Query

	// Eq adds an equality filter. Filters combine with AND.
	Eq(field string, value any) Query

	// Order sets the single sort key. The last call wins.
	Order(field string, opts ...OrderOption) Query

	// Single expects exactly one row; zero rows yields ErrNoRows.
	Single() Query

	// MaybeSingle expects zero or one row; zero rows yields an empty result.
	MaybeSingle() Query

	// Execute runs the query. It runs at most once; later calls return the
	// first outcome.
	Execute(ctx context.Context) (*Result, error)
}

// OrderOption adjusts an Order call.
type OrderOption func(*OrderSpec)

// OrderSpec is the resolved sort key of a query.
type OrderSpec struct {
	Field     string
	Ascending bool
}

// Ascending sets the sort direction. Order defaults to ascending.
func Ascending(asc bool) OrderOption {
	return func(s *OrderSpec) { s.Ascending = asc }
}

// Descending is shorthand for Ascending(false).
func Descending() OrderOption {
	return Ascending(false)
}

// NewOrderSpec applies opts to an ascending spec for field.
func NewOrderSpec(field string, opts ...OrderOption) OrderSpec {
	s := OrderSpec{Field: field, Ascending: true}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Result is the outcome of a successful Execute. Reads, inserts, and
// updates with a selection fill Rows; updates without a selection and
// deletes fill IDs.
type Result struct {
	Rows []Record `json:"rows,omitempty"`
	IDs  []string `json:"ids,omitempty"`
}

// First returns the first row, or nil when there is none.
func (r *Result) First() Record {
	if r == nil || len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0]
}

// Len returns the number of rows or ids in the result.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	if r.Rows != nil {
		return len(r.Rows)
	}
	return len(r.IDs)
}

// IDGenerator produces ids for inserted rows that do not carry one.
type IDGenerator interface {
	NewID() string
}

// KeyValueStore is the persistent string-keyed store tables are kept in.
// Values are opaque bytes; the table store writes JSON.
type KeyValueStore interface {
	// Get returns the value for key and whether it was present.
	Get(key string) ([]byte, bool, error)

	// Set overwrites the value for key.
	Set(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases backend resources. Idempotent.
	Close() error
}
