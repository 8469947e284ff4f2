package query

import (
	"fmt"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/nexus/pkg/types"
)

// sortRows stable-sorts rows by spec. Missing and null values sort last
// ascending and first descending; two numbers compare numerically;
// anything else compares by its string form under English collation.
func sortRows(rows []types.Record, spec types.OrderSpec) {
	col := collate.New(language.English)
	slices.SortStableFunc(rows, func(a, b types.Record) int {
		c := compareValues(col, a[spec.Field], b[spec.Field])
		if !spec.Ascending {
			c = -c
		}
		return c
	})
}

func compareValues(col *collate.Collator, a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return 1
	}
	if b == nil {
		return -1
	}
	if an, ok := a.(float64); ok {
		if bn, ok := b.(float64); ok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}
	as, bs := stringForm(a), stringForm(b)
	if as == bs {
		return 0
	}
	return col.CompareString(as, bs)
}

func stringForm(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
