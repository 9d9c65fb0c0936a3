// Package query is the typed query DSL: column references, predicate
// algebra, joins, ordering, aggregates, and the four SQL statement
// builders (Insert/Select/Update/Delete). It is grounded throughout on
// original_source/src/queries/{conditions,select}.h — the C++
// template/operator-overload design is rendered here as generic Go
// methods and free functions, since Go has neither.
package query

import (
	"fmt"
	"strconv"
	"strings"

	ormerrors "github.com/oarkflow/orm/errors"
	"github.com/oarkflow/orm/model"
	"github.com/oarkflow/orm/sqlbuilder"
)

// Condition is a fully-rendered SQL boolean expression fragment, e.g.
// `"users"."id" = 1`. It corresponds to the original's condition_t:
// a raw string wrapper, combined with And/Or/Not instead of C++'s
// overloaded &, | and ~ operators.
type Condition struct {
	raw string
}

// String returns the rendered fragment; the zero Condition renders as
// the empty string, meaning "no condition".
func (c Condition) String() string { return c.raw }

// IsZero reports whether c carries no condition at all.
func (c Condition) IsZero() bool { return c.raw == "" }

func rawCondition(s string) Condition { return Condition{raw: s} }

// And renders "(left AND right)".
func And(left, right Condition) Condition {
	return rawCondition(fmt.Sprintf("(%s AND %s)", left.raw, right.raw))
}

// Or renders "(left OR right)".
func Or(left, right Condition) Condition {
	return rawCondition(fmt.Sprintf("(%s OR %s)", left.raw, right.raw))
}

// Not renders "NOT (cond)".
func Not(cond Condition) Condition {
	return rawCondition(fmt.Sprintf("NOT (%s)", cond.raw))
}

// renderLiteral renders v as the unescaped SQL literal the comparison
// operators use: numeric/bool values via their Go formatting, strings
// single-quoted with no escaping — the caller's contract, matching
// comparison_op_t's own unescaped string concatenation.
func renderLiteral(v any) string {
	switch t := v.(type) {
	case string:
		return "'" + t + "'"
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", t)
	case float32, float64:
		return fmt.Sprintf("%v", t)
	case fmt.Stringer:
		return "'" + t.String() + "'"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func columnCondition(table, column, op string) Condition {
	return rawCondition(fmt.Sprintf("%s.%s %s", sqlbuilder.Quote(table), sqlbuilder.Quote(column), op))
}

// Col is a typed reference to one column of record type M, built via
// C[M]. Its comparison methods stand in for the original's c<ModelT>
// operator overloads.
type Col[M model.Record] struct {
	table  string
	column string
}

// C builds a typed column reference for record type M. M's TableName
// method must be callable on a zero value (the registered record
// types return a literal, ignoring their receiver, exactly like this
// module's generated descriptors).
func C[M model.Record](column string) Col[M] {
	return Col[M]{table: tableNameOf[M](), column: column}
}

func tableNameOf[M model.Record]() string {
	var zero M
	return zero.TableName()
}

func pkNameOf[M model.Record]() string {
	var zero M
	return zero.PKColumn().Name
}

func (c Col[M]) Eq(v any) Condition  { return columnCondition(c.table, c.column, "= "+renderLiteral(v)) }
func (c Col[M]) Ne(v any) Condition  { return columnCondition(c.table, c.column, "!= "+renderLiteral(v)) }
func (c Col[M]) Lt(v any) Condition  { return columnCondition(c.table, c.column, "< "+renderLiteral(v)) }
func (c Col[M]) Gt(v any) Condition  { return columnCondition(c.table, c.column, "> "+renderLiteral(v)) }
func (c Col[M]) Lte(v any) Condition { return columnCondition(c.table, c.column, "<= "+renderLiteral(v)) }
func (c Col[M]) Gte(v any) Condition { return columnCondition(c.table, c.column, ">= "+renderLiteral(v)) }

// IsNull renders "table"."column" IS NULL for record type M.
func IsNull[M model.Record](column string) Condition {
	return columnCondition(tableNameOf[M](), column, "IS NULL")
}

// IsNotNull renders "table"."column" IS NOT NULL for record type M.
func IsNotNull[M model.Record](column string) Condition {
	return columnCondition(tableNameOf[M](), column, "IS NOT NULL")
}

// Between renders "table"."column" BETWEEN lower AND upper.
func Between[M model.Record](column string, lower, upper any) Condition {
	return columnCondition(tableNameOf[M](), column, fmt.Sprintf("BETWEEN %s AND %s", renderLiteral(lower), renderLiteral(upper)))
}

// Like renders "table"."column" LIKE 'pattern' [ESCAPE 'escape'].
func Like[M model.Record](column, pattern string, escape ...string) Condition {
	op := fmt.Sprintf("LIKE '%s'", pattern)
	if len(escape) > 0 && escape[0] != "" {
		op += fmt.Sprintf(" ESCAPE '%s'", escape[0])
	}
	return columnCondition(tableNameOf[M](), column, op)
}

// In renders "table"."column" IN (v1, v2, ...). It is a build-time
// QueryError for values to be empty, matching the original's in()
// throwing on an empty range.
func In[M model.Record](column string, values ...any) (Condition, error) {
	if len(values) == 0 {
		return Condition{}, ormerrors.NewQueryError("query.In", "values must not be empty")
	}
	rendered := make([]string, len(values))
	for i, v := range values {
		rendered[i] = renderLiteral(v)
	}
	return columnCondition(tableNameOf[M](), column, fmt.Sprintf("IN (%s)", strings.Join(rendered, ", "))), nil
}
