package query

import (
	"fmt"

	"github.com/oarkflow/orm/model"
	"github.com/oarkflow/orm/sqlbuilder"
)

// Aggregate is a rendered SQL aggregate expression used as a SELECT
// column, e.g. `COUNT(*)` or `SUM("orders"."total")`. Min/Max/Sum/Avg
// table-qualify their column argument themselves (like Asc/Desc),
// since sqlbuilder.SelectRaw takes its column expression verbatim;
// query.Select itself has no aggregate column input.
type Aggregate struct {
	rendered string
	alias    string
}

func (a Aggregate) String() string { return a.rendered }

// Alias is the column name the aggregate's value is reported under
// when materialising rows (e.g. "count", "total_sum").
func (a Aggregate) Alias() string { return a.alias }

// Count renders COUNT(*).
func Count() Aggregate { return Aggregate{rendered: "COUNT(*)", alias: "count"} }

func newAggregate[M model.Record](fn, column string) Aggregate {
	rendered := fmt.Sprintf("%s(%s.%s)", fn, sqlbuilder.Quote(tableNameOf[M]()), sqlbuilder.Quote(column))
	return Aggregate{rendered: rendered, alias: fmt.Sprintf("%s_%s", toLowerAlias(fn), column)}
}

func toLowerAlias(fn string) string {
	switch fn {
	case "MIN":
		return "min"
	case "MAX":
		return "max"
	case "SUM":
		return "sum"
	case "AVG":
		return "avg"
	default:
		return fn
	}
}

// Min renders MIN("table"."column") for record type M.
func Min[M model.Record](column string) Aggregate { return newAggregate[M]("MIN", column) }

// Max renders MAX("table"."column") for record type M.
func Max[M model.Record](column string) Aggregate { return newAggregate[M]("MAX", column) }

// Sum renders SUM("table"."column") for record type M.
func Sum[M model.Record](column string) Aggregate { return newAggregate[M]("SUM", column) }

// Avg renders AVG("table"."column") for record type M.
func Avg[M model.Record](column string) Aggregate { return newAggregate[M]("AVG", column) }
