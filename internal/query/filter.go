package query

import (
	"encoding/json"

	"github.com/mesh-intelligence/nexus/pkg/types"
)

// filter is one equality predicate. Values are compared in their stored
// JSON form, so 5, int64(5), and 5.0 are equal and composite values never
// match.
type filter struct {
	field string
	value any
	ok    bool
}

func newFilter(field string, value any) filter {
	v, ok := normalizeScalar(value)
	return filter{field: field, value: v, ok: ok}
}

func (f filter) match(row types.Record) bool {
	if !f.ok {
		return false
	}
	v, present := row[f.field]
	if !present {
		return false
	}
	switch v.(type) {
	case nil, string, float64, bool:
		return v == f.value
	default:
		return false
	}
}

// normalizeScalar returns value as it reads back from storage. It reports
// false for values that cannot equal any stored value.
func normalizeScalar(value any) (any, bool) {
	switch v := value.(type) {
	case nil, string, float64, bool:
		return v, true
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, false
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	switch out.(type) {
	case nil, string, float64, bool:
		return out, true
	default:
		return nil, false
	}
}
