package dialect

import (
	"fmt"
	"strings"

	ormerrors "github.com/oarkflow/orm/errors"
	"github.com/oarkflow/orm/state"
)

type sqliteDialect struct{}

func (s *sqliteDialect) Name() Name { return SQLite }

func (s *sqliteDialect) QuoteIdentifier(id string) string {
	return fmt.Sprintf("%q", id)
}

func (s *sqliteDialect) CreateTableSQL(t *state.Table) (string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("CREATE TABLE %s (", s.QuoteIdentifier(t.Name)))
	var defs []string
	var pkCols []string
	for _, col := range t.OrderedColumns() {
		defs = append(defs, s.columnDefinition(col))
		if col.Constraints.PrimaryKey {
			pkCols = append(pkCols, col.Name)
		}
	}
	if len(pkCols) > 1 {
		quoted := make([]string, len(pkCols))
		for i, c := range pkCols {
			quoted[i] = s.QuoteIdentifier(c)
		}
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}
	for col, fk := range t.ForeignKeys {
		def := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s)",
			s.QuoteIdentifier(col), s.QuoteIdentifier(fk.ReferencedTable), s.QuoteIdentifier(fk.ReferencedColumn))
		if fk.OnDelete != state.NoAction {
			def += " ON DELETE " + fk.OnDelete.String()
		}
		if fk.OnUpdate != state.NoAction {
			def += " ON UPDATE " + fk.OnUpdate.String()
		}
		defs = append(defs, def)
	}
	sb.WriteString(strings.Join(defs, ", "))
	sb.WriteString(");")
	return sb.String(), nil
}

// columnDefinition renders a single-column PRIMARY KEY inline (SQLite
// idiom, required to make AUTOINCREMENT legal), matching
// `INTEGER PRIMARY KEY AUTOINCREMENT`.
func (s *sqliteDialect) columnDefinition(col state.Column) string {
	def := fmt.Sprintf("%s %s", s.QuoteIdentifier(col.Name), s.MapDataType(col))
	if col.Constraints.PrimaryKey {
		def += " PRIMARY KEY"
		if col.Constraints.Autoincrement {
			def += " AUTOINCREMENT"
		}
	}
	if col.Constraints.Nullable != nil && !*col.Constraints.Nullable {
		def += " NOT NULL"
	}
	if col.Constraints.Unique && !col.Constraints.PrimaryKey {
		def += " UNIQUE"
	}
	if col.DefaultLiteral != "" {
		def += " DEFAULT " + quoteLiteralIfText(col, col.DefaultLiteral)
	}
	if col.Constraints.Check != "" {
		def += fmt.Sprintf(" CHECK (%s)", col.Constraints.Check)
	}
	return def
}

func (s *sqliteDialect) DropTableSQL(name string, cascade bool) (string, error) {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", s.QuoteIdentifier(name)), nil
}

func (s *sqliteDialect) RenameTableSQL(from, to string) (string, error) {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", s.QuoteIdentifier(from), s.QuoteIdentifier(to)), nil
}

func (s *sqliteDialect) AddColumnSQL(table string, col state.Column) ([]string, error) {
	if col.Constraints.PrimaryKey {
		return nil, ormerrors.NewQueryError("sqlite.AddColumnSQL", "SQLite cannot add a primary key column after table creation")
	}
	def := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", s.QuoteIdentifier(table), s.columnDefinition(col))
	queries := []string{def + ";"}
	if col.Constraints.Unique {
		queries = append(queries, fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s);",
			s.QuoteIdentifier(fmt.Sprintf("uniq_%s_%s", table, col.Name)), s.QuoteIdentifier(table), s.QuoteIdentifier(col.Name)))
	}
	return queries, nil
}

func (s *sqliteDialect) DropColumnSQL(table, column string) (string, error) {
	return "", ormerrors.NewQueryError("sqlite.DropColumnSQL", "SQLite DROP COLUMN requires table recreation; use RecreateTableForAlter")
}

func (s *sqliteDialect) RenameColumnSQL(table, from, to string) (string, error) {
	return "", ormerrors.NewQueryError("sqlite.RenameColumnSQL", "SQLite RENAME COLUMN requires table recreation; use RecreateTableForAlter")
}

func (s *sqliteDialect) SupportsInPlaceAlterColumn() bool { return false }

func (s *sqliteDialect) AlterColumnSQL(table string, old, new state.Column) ([]string, error) {
	return nil, ormerrors.NewQueryError("sqlite.AlterColumnSQL", "SQLite has no in-place ALTER COLUMN; use RecreateTableForAlter")
}

func (s *sqliteDialect) MapDataType(col state.Column) string {
	switch col.Type {
	case state.VarChar:
		if col.Constraints.MaxLen != nil && *col.Constraints.MaxLen > 0 {
			return fmt.Sprintf("VARCHAR(%d)", *col.Constraints.MaxLen)
		}
		return "TEXT"
	case state.Text:
		return "TEXT"
	case state.SmallInt, state.Int, state.BigInt, state.SmallSerial, state.Serial, state.BigSerial:
		return "INTEGER"
	case state.Real:
		return "REAL"
	case state.Double:
		return "REAL"
	case state.Bool:
		return "BOOLEAN"
	case state.Date:
		return "DATE"
	case state.Time:
		return "TIME"
	case state.DateTime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

// RecreateTableForAlter rebuilds table under newSchema by renaming the
// live table aside, creating the new shape, copying rows across
// (renameMap maps new column name -> old column name for columns that
// were renamed rather than added/dropped), and dropping the backup —
// the only way SQLite can alter a column's type, nullability,
// uniqueness or drop/rename it. Ported from the teacher's
// handleSQLiteAlterTable/recreateTableForSQLite.
func (s *sqliteDialect) RecreateTableForAlter(newSchema *state.Table, renameMap map[string]string) ([]string, error) {
	table := newSchema.Name
	backup := table + "_backup"

	var newCols, selectCols []string
	for _, col := range newSchema.OrderedColumns() {
		newCols = append(newCols, s.QuoteIdentifier(col.Name))
		orig := col.Name
		if from, ok := renameMap[col.Name]; ok {
			orig = from
		}
		selectCols = append(selectCols, s.QuoteIdentifier(orig))
	}

	createSQL, err := s.CreateTableSQL(newSchema)
	if err != nil {
		return nil, ormerrors.WrapQueryError("sqlite.RecreateTableForAlter", fmt.Sprintf("rendering new schema for table %q", table), err)
	}

	queries := []string{
		"PRAGMA foreign_keys=off;",
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", s.QuoteIdentifier(table), s.QuoteIdentifier(backup)),
		createSQL,
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s;",
			s.QuoteIdentifier(table), strings.Join(newCols, ", "), strings.Join(selectCols, ", "), s.QuoteIdentifier(backup)),
		fmt.Sprintf("DROP TABLE %s;", s.QuoteIdentifier(backup)),
		"PRAGMA foreign_keys=on;",
	}
	return queries, nil
}

func (s *sqliteDialect) CreateViewSQL(v View) (string, error) {
	if v.OrReplace {
		return fmt.Sprintf("CREATE VIEW IF NOT EXISTS %s AS %s;", s.QuoteIdentifier(v.Name), v.Definition), nil
	}
	return fmt.Sprintf("CREATE VIEW %s AS %s;", s.QuoteIdentifier(v.Name), v.Definition), nil
}

func (s *sqliteDialect) DropViewSQL(d DropView) (string, error) {
	if d.IfExists {
		return fmt.Sprintf("DROP VIEW IF EXISTS %s;", s.QuoteIdentifier(d.Name)), nil
	}
	return fmt.Sprintf("DROP VIEW %s;", s.QuoteIdentifier(d.Name)), nil
}

func (s *sqliteDialect) RenameViewSQL(from, to string) (string, error) {
	return "", ormerrors.NewQueryError("sqlite.RenameViewSQL", "RENAME VIEW is not supported in SQLite")
}

func (s *sqliteDialect) CreateFunctionSQL(f Function) (string, error) {
	return "", ormerrors.NewQueryError("sqlite.CreateFunctionSQL", "CREATE FUNCTION is not supported in SQLite")
}

func (s *sqliteDialect) DropFunctionSQL(d DropFunction) (string, error) {
	return "", ormerrors.NewQueryError("sqlite.DropFunctionSQL", "DROP FUNCTION is not supported in SQLite")
}

func (s *sqliteDialect) RenameFunctionSQL(from, to string) (string, error) {
	return "", ormerrors.NewQueryError("sqlite.RenameFunctionSQL", "RENAME FUNCTION is not supported in SQLite")
}

func (s *sqliteDialect) CreateProcedureSQL(p Procedure) (string, error) {
	return "", ormerrors.NewQueryError("sqlite.CreateProcedureSQL", "CREATE PROCEDURE is not supported in SQLite")
}

func (s *sqliteDialect) DropProcedureSQL(d DropProcedure) (string, error) {
	return "", ormerrors.NewQueryError("sqlite.DropProcedureSQL", "DROP PROCEDURE is not supported in SQLite")
}

func (s *sqliteDialect) RenameProcedureSQL(from, to string) (string, error) {
	return "", ormerrors.NewQueryError("sqlite.RenameProcedureSQL", "RENAME PROCEDURE is not supported in SQLite")
}

func (s *sqliteDialect) CreateTriggerSQL(t Trigger) (string, error) {
	if t.OrReplace {
		return fmt.Sprintf("DROP TRIGGER IF EXISTS %s; CREATE TRIGGER %s %s;",
			s.QuoteIdentifier(t.Name), s.QuoteIdentifier(t.Name), t.Definition), nil
	}
	return fmt.Sprintf("CREATE TRIGGER %s %s;", s.QuoteIdentifier(t.Name), t.Definition), nil
}

func (s *sqliteDialect) DropTriggerSQL(d DropTrigger) (string, error) {
	if d.IfExists {
		return fmt.Sprintf("DROP TRIGGER IF EXISTS %s;", s.QuoteIdentifier(d.Name)), nil
	}
	return fmt.Sprintf("DROP TRIGGER %s;", s.QuoteIdentifier(d.Name)), nil
}

func (s *sqliteDialect) RenameTriggerSQL(from, to string) (string, error) {
	return "", ormerrors.NewQueryError("sqlite.RenameTriggerSQL", "RENAME TRIGGER is not supported in SQLite")
}

func (s *sqliteDialect) WrapInTransaction(queries []string) []string {
	tx := []string{"BEGIN;"}
	tx = append(tx, queries...)
	return append(tx, "COMMIT;")
}

// WrapInTransactionWithIsolation degrades to a plain BEGIN: SQLite is
// single-writer and has no transaction isolation levels to select.
func (s *sqliteDialect) WrapInTransactionWithIsolation(queries []string, isolationLevel string) []string {
	return s.WrapInTransaction(queries)
}
