package query

import (
	"context"

	"github.com/oarkflow/orm/driver"
	ormerrors "github.com/oarkflow/orm/errors"
	"github.com/oarkflow/orm/model"
	"github.com/oarkflow/orm/sqlbuilder"
)

// pair mirrors the original's settable-once `pair<T>` helper: a value
// plus whether it has been explicitly set, so a second call to the
// same fluent method is caught as a QueryError instead of silently
// overwriting the first.
type pair[T any] struct {
	value T
	isSet bool
}

func (p *pair[T]) set(v T) bool {
	if p.isSet {
		return false
	}
	p.value = v
	p.isSet = true
	return true
}

// Select builds and runs a SELECT statement for record type M,
// grounded on original_source/src/queries/select.h.
type Select[M model.Record] struct {
	conn driver.Connection
	err  error

	distinct_ pair[bool]
	where_    pair[Condition]
	orderBy_  pair[[]Ordering]
	limit_    pair[int64]
	offset_   pair[int64]
	groupBy_  pair[[]string]
	having_   pair[Condition]
	joins     []Join

	postHooks []func(ctx context.Context, m M) error
}

// NewSelect constructs a Select bound to conn. conn may be nil; ToSlice
// and First then fail with a QueryError, matching the original's
// "database client not set" check, while Query still renders the SQL.
func NewSelect[M model.Record](conn driver.Connection) *Select[M] {
	s := &Select[M]{conn: conn}
	s.limit_.value, s.offset_.value = -1, -1
	return s
}

func (s *Select[M]) fail(method string) *Select[M] {
	if s.err == nil {
		s.err = ormerrors.NewQueryError("query.Select."+method, "already set, check method call sequence")
	}
	return s
}

// Distinct sets SELECT DISTINCT. Calling it twice is a QueryError.
func (s *Select[M]) Distinct() *Select[M] {
	if !s.distinct_.set(true) {
		return s.fail("Distinct")
	}
	return s
}

// Where sets the WHERE condition. Calling it twice is a QueryError.
func (s *Select[M]) Where(cond Condition) *Select[M] {
	if !s.where_.set(cond) {
		return s.fail("Where")
	}
	return s
}

// OrderBy sets the ORDER BY terms. Calling it twice is a QueryError.
func (s *Select[M]) OrderBy(terms ...Ordering) *Select[M] {
	if len(terms) == 0 {
		return s
	}
	if !s.orderBy_.set(terms) {
		return s.fail("OrderBy")
	}
	return s
}

// Limit sets LIMIT. Calling it twice is a QueryError.
func (s *Select[M]) Limit(n int64) *Select[M] {
	if !s.limit_.set(n) {
		return s.fail("Limit")
	}
	return s
}

// Offset sets OFFSET when n > 0. Calling it twice with a positive
// value is a QueryError.
func (s *Select[M]) Offset(n int64) *Select[M] {
	if n <= 0 {
		return s
	}
	if !s.offset_.set(n) {
		return s.fail("Offset")
	}
	return s
}

// GroupBy sets GROUP BY columns. Calling it twice is a QueryError.
func (s *Select[M]) GroupBy(columns ...string) *Select[M] {
	if len(columns) == 0 {
		return s
	}
	if !s.groupBy_.set(columns) {
		return s.fail("GroupBy")
	}
	return s
}

// Having sets the HAVING condition. Calling it twice is a QueryError.
func (s *Select[M]) Having(cond Condition) *Select[M] {
	if !s.having_.set(cond) {
		return s.fail("Having")
	}
	return s
}

// Join appends one join clause.
func (s *Select[M]) Join(j Join) *Select[M] {
	s.joins = append(s.joins, j)
	return s
}

// Using rebinds the connection this statement runs against.
func (s *Select[M]) Using(conn driver.Connection) *Select[M] {
	if conn != nil {
		s.conn = conn
	}
	return s
}

// Query renders this statement's SQL without running it.
func (s *Select[M]) Query() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	var zero M
	cols := zero.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	joinStrs := make([]string, len(s.joins))
	for i, j := range s.joins {
		joinStrs[i] = j.String()
	}
	orderStrs := make([]string, len(s.orderBy_.value))
	for i, o := range s.orderBy_.value {
		orderStrs[i] = o.String()
	}

	spec := sqlbuilder.SelectSpec{
		Table:    tableNameOf[M](),
		Columns:  names,
		Distinct: s.distinct_.value,
		Joins:    joinStrs,
		Where:    s.where_.value.String(),
		OrderBy:  orderStrs,
		Limit:    s.limit_.value,
		Offset:   s.offset_.value,
		GroupBy:  s.groupBy_.value,
		Having:   s.having_.value.String(),
	}
	return sqlbuilder.Select(spec)
}

// ToSlice runs the statement and materialises every row into a new M,
// via M.New() + the descriptor Set closures — zero reflection.
func (s *Select[M]) ToSlice(ctx context.Context) ([]M, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.conn == nil {
		return nil, ormerrors.NewQueryError("query.Select.ToSlice", "database connection is not set")
	}
	sql, err := s.Query()
	if err != nil {
		return nil, err
	}

	var results []M
	err = s.conn.RunQuery(ctx, sql, func(row map[string]string) error {
		inst, ok := newRecord[M]()
		if !ok {
			return ormerrors.NewQueryError("query.Select.ToSlice", "M.New() did not return the expected concrete type")
		}
		for _, d := range inst.Columns() {
			raw, present := row[d.Name]
			if !present {
				continue
			}
			d.Set(inst, raw)
		}
		results = append(results, inst)
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}
	for i, hooks := 0, s.postHooks; i < len(results); i++ {
		for _, hook := range hooks {
			if err := hook(ctx, results[i]); err != nil {
				return nil, err
			}
		}
	}
	return results, nil
}

// First sets LIMIT 1 (if not already set) and returns the first
// result, or a null-marked M (IsNull() == true) if there were none.
func (s *Select[M]) First(ctx context.Context) (M, error) {
	if !s.limit_.isSet {
		s.Limit(1)
	}
	rows, err := s.ToSlice(ctx)
	if err != nil {
		var zero M
		return zero, err
	}
	if len(rows) == 0 {
		inst, _ := newRecord[M]()
		inst.MarkNull()
		return inst, nil
	}
	return rows[0], nil
}

// newRecord allocates a new M via M.New(), the reflection-free
// factory every Record implementation provides.
func newRecord[M model.Record]() (M, bool) {
	var zero M
	inst, ok := zero.New().(M)
	return inst, ok
}
