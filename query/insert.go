package query

import (
	"context"
	"strings"

	"github.com/oarkflow/orm/driver"
	ormerrors "github.com/oarkflow/orm/errors"
	"github.com/oarkflow/orm/model"
	"github.com/oarkflow/orm/sqlbuilder"
)

// Insert builds and runs an INSERT statement for one or more rows of
// record type M, honoring each type's OmitPK default (spec.md §9
// open question (c)): the primary key column is left out of the
// rendered column/value lists unless OmitPK() is false, letting an
// autoincrement/serial column default at the database.
type Insert[M model.Record] struct {
	conn driver.Connection
	rows []M
}

// NewInsert constructs an Insert bound to conn.
func NewInsert[M model.Record](conn driver.Connection) *Insert[M] {
	return &Insert[M]{conn: conn}
}

// Using rebinds the connection this statement runs against.
func (ins *Insert[M]) Using(conn driver.Connection) *Insert[M] {
	if conn != nil {
		ins.conn = conn
	}
	return ins
}

// Rows appends rows to be inserted.
func (ins *Insert[M]) Rows(rows ...M) *Insert[M] {
	ins.rows = append(ins.rows, rows...)
	return ins
}

func (ins *Insert[M]) insertColumns() []model.ColumnDescriptor {
	var zero M
	cols := zero.Columns()
	if !zero.OmitPK() {
		return cols
	}
	out := make([]model.ColumnDescriptor, 0, len(cols))
	for _, c := range cols {
		if !c.PrimaryKey {
			out = append(out, c)
		}
	}
	return out
}

// Query renders this statement's SQL without running it.
func (ins *Insert[M]) Query() (string, error) {
	if len(ins.rows) == 0 {
		return "", ormerrors.NewQueryError("query.Insert.Query", "rows must not be empty")
	}
	cols := ins.insertColumns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = sqlbuilder.Quote(c.Name)
	}
	columnsStr := strings.Join(names, ", ")

	rowLiterals := make([]string, len(ins.rows))
	for i, row := range ins.rows {
		literals := make([]string, len(cols))
		for j, c := range cols {
			_, lit := c.Get(row)
			literals[j] = lit
		}
		rowLiterals[i] = strings.Join(literals, ", ")
	}

	return sqlbuilder.Insert(tableNameOf[M](), columnsStr, rowLiterals)
}

// One inserts exactly one row and returns its generated primary key.
func (ins *Insert[M]) One(ctx context.Context) (string, error) {
	if ins.conn == nil {
		return "", ormerrors.NewQueryError("query.Insert.One", "database connection is not set")
	}
	if len(ins.rows) != 1 {
		return "", ormerrors.NewQueryError("query.Insert.One", "One() requires exactly one row; use Bulk() for more")
	}
	sql, err := ins.Query()
	if err != nil {
		return "", err
	}
	return ins.conn.RunQueryReturningID(ctx, sql)
}

// Bulk inserts every accumulated row in a single statement. It does
// not report generated ids, matching the original's list-insert
// semantics.
func (ins *Insert[M]) Bulk(ctx context.Context) error {
	if ins.conn == nil {
		return ormerrors.NewQueryError("query.Insert.Bulk", "database connection is not set")
	}
	sql, err := ins.Query()
	if err != nil {
		return err
	}
	return ins.conn.Exec(ctx, sql)
}
