// Package dialect renders schema and DML operations into the SQL
// text of a specific DBMS family. Exactly two families are supported,
// sqlite3 and postgresql, matching the values spec.md §6 allows for a
// configuration's dbms key.
package dialect

import (
	"fmt"

	ormerrors "github.com/oarkflow/orm/errors"
	"github.com/oarkflow/orm/state"
)

// Name identifies a registered dialect.
type Name string

const (
	SQLite   Name = "sqlite3"
	Postgres Name = "postgresql"
)

// View, Function, Procedure and Trigger describe the supplemental
// schema objects folded in from the teacher's dialect surface
// (SUPPLEMENTED FEATURES §10.1). Definition is the dialect-specific
// body text the caller supplies verbatim; this package does not
// parse it.
type View struct {
	Name       string
	Definition string
	OrReplace  bool
}

type DropView struct {
	Name     string
	IfExists bool
	Cascade  bool
}

type Function struct {
	Name       string
	Definition string
	OrReplace  bool
}

type DropFunction struct {
	Name     string
	IfExists bool
	Cascade  bool
}

type Procedure struct {
	Name       string
	Definition string
	OrReplace  bool
}

type DropProcedure struct {
	Name     string
	IfExists bool
	Cascade  bool
}

type Trigger struct {
	Name       string
	Definition string
	OrReplace  bool
}

type DropTrigger struct {
	Name     string
	IfExists bool
}

// Dialect is the narrow adapter contract each DBMS family implements.
// The schema editor drives it exclusively through state.Table /
// state.Column / state.ForeignKey values; no dialect implementation
// ever sees driver.Connection.
type Dialect interface {
	Name() Name
	QuoteIdentifier(id string) string

	CreateTableSQL(t *state.Table) (string, error)
	DropTableSQL(name string, cascade bool) (string, error)
	RenameTableSQL(from, to string) (string, error)

	AddColumnSQL(table string, col state.Column) ([]string, error)
	DropColumnSQL(table, column string) (string, error)
	RenameColumnSQL(table, from, to string) (string, error)
	MapDataType(col state.Column) string

	// SupportsInPlaceAlterColumn reports whether AlterColumnSQL can be
	// used directly. When false (SQLite), the schema editor must drive
	// RecreateTableForAlter instead.
	SupportsInPlaceAlterColumn() bool

	// AlterColumnSQL renders the ordered statements needed to morph old
	// into new in place: rename, then type change, then the "add
	// default / backfill / set not null / drop default" four-step dance
	// when a column moves from nullable to not-null with a new default,
	// then a plain null/not-null flip otherwise, then a dropped primary
	// key constraint, then an added unique constraint. Only meaningful
	// when SupportsInPlaceAlterColumn is true.
	AlterColumnSQL(table string, old, new state.Column) ([]string, error)

	// RecreateTableForAlter rebuilds table under a new schema the way
	// SQLite must for column drops/renames/type changes it cannot
	// express as an in-place ALTER. Dialects that support in-place
	// ALTER (Postgres) return a QueryError: callers should not need
	// this path for them.
	RecreateTableForAlter(newSchema *state.Table, renameMap map[string]string) ([]string, error)

	CreateViewSQL(v View) (string, error)
	DropViewSQL(d DropView) (string, error)
	RenameViewSQL(from, to string) (string, error)

	CreateFunctionSQL(f Function) (string, error)
	DropFunctionSQL(d DropFunction) (string, error)
	RenameFunctionSQL(from, to string) (string, error)

	CreateProcedureSQL(p Procedure) (string, error)
	DropProcedureSQL(d DropProcedure) (string, error)
	RenameProcedureSQL(from, to string) (string, error)

	CreateTriggerSQL(t Trigger) (string, error)
	DropTriggerSQL(d DropTrigger) (string, error)
	RenameTriggerSQL(from, to string) (string, error)

	WrapInTransaction(queries []string) []string
	WrapInTransactionWithIsolation(queries []string, isolationLevel string) []string
}

var registry = map[Name]Dialect{
	SQLite:   &sqliteDialect{},
	Postgres: &postgresDialect{},
}

// Get returns the dialect registered under name.
func Get(name Name) (Dialect, error) {
	d, ok := registry[name]
	if !ok {
		return nil, ormerrors.NewQueryError("dialect.Get", fmt.Sprintf("unknown dialect %q", name))
	}
	return d, nil
}

func quoteLiteralIfText(col state.Column, literal string) string {
	if col.Type == state.VarChar || col.Type == state.Text {
		if len(literal) >= 2 && literal[0] == '\'' && literal[len(literal)-1] == '\'' {
			return literal
		}
		return fmt.Sprintf("'%s'", literal)
	}
	return literal
}
