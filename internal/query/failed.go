package query

import (
	"context"

	"github.com/mesh-intelligence/nexus/pkg/types"
)

// failed is a query that can never run.
type failed struct{ err error }

// Failed returns a Query whose Execute always returns err. Builder calls
// are accepted and ignored.
func Failed(err error) types.Query {
	return failed{err: err}
}

func (f failed) Select(...string) types.Query                   { return f }
func (f failed) Insert(...types.Record) types.Query             { return f }
func (f failed) Update(types.Record) types.Query                { return f }
func (f failed) Delete() types.Query                            { return f }
func (f failed) Eq(string, any) types.Query                     { return f }
func (f failed) Order(string, ...types.OrderOption) types.Query { return f }
func (f failed) Single() types.Query                            { return f }
func (f failed) MaybeSingle() types.Query                       { return f }

func (f failed) Execute(context.Context) (*types.Result, error) {
	return nil, f.err
}
