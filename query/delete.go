package query

import (
	"context"
	"strings"

	"github.com/oarkflow/orm/driver"
	ormerrors "github.com/oarkflow/orm/errors"
	"github.com/oarkflow/orm/model"
	"github.com/oarkflow/orm/sqlbuilder"
)

// Delete builds and runs a DELETE statement for record type M. By
// default the WHERE clause is built from the primary keys of any
// accumulated Rows; an explicit Where overrides that default rather
// than being ANDed with it, matching the original's delete_ taking
// either a model or a condition but building a single where_ clause
// either way.
type Delete[M model.Record] struct {
	conn   driver.Connection
	err    error
	rows   []M
	where_ pair[Condition]
}

// NewDelete constructs a Delete bound to conn.
func NewDelete[M model.Record](conn driver.Connection) *Delete[M] {
	return &Delete[M]{conn: conn}
}

// Using rebinds the connection this statement runs against.
func (d *Delete[M]) Using(conn driver.Connection) *Delete[M] {
	if conn != nil {
		d.conn = conn
	}
	return d
}

// Rows appends rows whose primary keys default the WHERE clause when
// no explicit Where condition is supplied.
func (d *Delete[M]) Rows(rows ...M) *Delete[M] {
	d.rows = append(d.rows, rows...)
	return d
}

// Where sets the WHERE condition, overriding the rows-derived default.
// Calling it twice is a QueryError.
func (d *Delete[M]) Where(cond Condition) *Delete[M] {
	if !d.where_.set(cond) {
		if d.err == nil {
			d.err = ormerrors.NewQueryError("query.Delete.Where", "already set, check method call sequence")
		}
		return d
	}
	return d
}

// Query renders this statement's SQL without running it. It is a
// QueryError for neither Rows nor Where to have been called - an
// unconditioned DELETE is never rendered, matching the original's
// delete_::query() refusing to run without a model or condition set.
func (d *Delete[M]) Query() (string, error) {
	if d.err != nil {
		return "", d.err
	}
	where := d.where_.value
	if where.IsZero() {
		if len(d.rows) == 0 {
			return "", ormerrors.NewQueryError("query.Delete.Query", "Rows(...) or Where(...) must be called before Query")
		}
		var zero M
		pkCol := zero.PKColumn()
		literals := make([]string, len(d.rows))
		for i, row := range d.rows {
			_, lit := pkCol.Get(row)
			literals[i] = lit
		}
		where = columnCondition(tableNameOf[M](), pkCol.Name, "IN ("+strings.Join(literals, ", ")+")")
	}
	return sqlbuilder.Delete(tableNameOf[M](), where.String())
}

// Exec runs the rendered DELETE statement.
func (d *Delete[M]) Exec(ctx context.Context) error {
	if d.conn == nil {
		return ormerrors.NewQueryError("query.Delete.Exec", "database connection is not set")
	}
	sql, err := d.Query()
	if err != nil {
		return err
	}
	return d.conn.Exec(ctx, sql)
}
