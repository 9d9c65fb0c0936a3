package query

import (
	"context"
	"strings"

	"github.com/oarkflow/orm/driver"
	ormerrors "github.com/oarkflow/orm/errors"
	"github.com/oarkflow/orm/model"
	"github.com/oarkflow/orm/sqlbuilder"
)

// Update builds and runs an UPDATE statement for record type M.
type Update[M model.Record] struct {
	conn    driver.Connection
	err     error
	set     []model.ColumnDescriptor
	setRow  M
	setted  bool
	where_  pair[Condition]
}

// NewUpdate constructs an Update bound to conn.
func NewUpdate[M model.Record](conn driver.Connection) *Update[M] {
	return &Update[M]{conn: conn}
}

// Using rebinds the connection this statement runs against.
func (u *Update[M]) Using(conn driver.Connection) *Update[M] {
	if conn != nil {
		u.conn = conn
	}
	return u
}

// Set records row as the source of new column values: every column
// Get returns for row is written into the SET clause, except the
// primary key when M's OmitPK is true (it always goes into the WHERE
// clause). Calling it
// twice is a QueryError, matching the fluent "set once" discipline
// the rest of this package follows.
func (u *Update[M]) Set(row M) *Update[M] {
	if u.setted {
		if u.err == nil {
			u.err = ormerrors.NewQueryError("query.Update.Set", "already set, check method call sequence")
		}
		return u
	}
	u.setRow = row
	u.setted = true
	return u
}

// Where sets the WHERE condition. Calling it twice is a QueryError.
func (u *Update[M]) Where(cond Condition) *Update[M] {
	if !u.where_.set(cond) {
		if u.err == nil {
			u.err = ormerrors.NewQueryError("query.Update.Where", "already set, check method call sequence")
		}
		return u
	}
	return u
}

// Query renders this statement's SQL without running it. The WHERE
// clause always includes the set row's primary key, ANDed with any
// caller-supplied Where condition - an UPDATE can never be rendered
// wide open just because the caller forgot to call Where, matching
// the original's append_model capturing pk_name/pk_val unconditionally.
func (u *Update[M]) Query() (string, error) {
	if u.err != nil {
		return "", u.err
	}
	if !u.setted {
		return "", ormerrors.NewQueryError("query.Update.Query", "Set(row) must be called before Query")
	}
	var zero M
	cols := zero.Columns()
	assignments := make([]string, 0, len(cols))
	for _, c := range cols {
		if c.PrimaryKey && zero.OmitPK() {
			continue
		}
		name, lit := c.Get(u.setRow)
		assignments = append(assignments, sqlbuilder.Quote(name)+" = "+lit)
	}
	pk := zero.PKColumn()
	pkName, pkLit := pk.Get(u.setRow)
	where := columnCondition(tableNameOf[M](), pkName, "= "+pkLit)
	if !u.where_.value.IsZero() {
		where = And(where, u.where_.value)
	}
	return sqlbuilder.Update(tableNameOf[M](), strings.Join(assignments, ", "), where.String())
}

// Exec runs the rendered UPDATE statement.
func (u *Update[M]) Exec(ctx context.Context) error {
	if u.conn == nil {
		return ormerrors.NewQueryError("query.Update.Exec", "database connection is not set")
	}
	sql, err := u.Query()
	if err != nil {
		return err
	}
	return u.conn.Exec(ctx, sql)
}
