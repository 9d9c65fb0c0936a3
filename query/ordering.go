package query

import (
	"fmt"

	"github.com/oarkflow/orm/model"
	"github.com/oarkflow/orm/sqlbuilder"
)

// Ordering is one ORDER BY term, grounded on the original's `ordering`
// class, e.g. `"users"."name" ASC`.
type Ordering struct {
	rendered string
}

func (o Ordering) String() string { return o.rendered }

func newOrdering[M model.Record](column string, ascending bool) Ordering {
	dir := "ASC"
	if !ascending {
		dir = "DESC"
	}
	return Ordering{rendered: fmt.Sprintf("%s.%s %s", sqlbuilder.Quote(tableNameOf[M]()), sqlbuilder.Quote(column), dir)}
}

// Asc orders by column ascending for record type M.
func Asc[M model.Record](column string) Ordering { return newOrdering[M](column, true) }

// Desc orders by column descending for record type M.
func Desc[M model.Record](column string) Ordering { return newOrdering[M](column, false) }
