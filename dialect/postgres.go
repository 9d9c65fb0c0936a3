package dialect

import (
	"fmt"
	"strings"

	ormerrors "github.com/oarkflow/orm/errors"
	"github.com/oarkflow/orm/state"
)

type postgresDialect struct{}

func (p *postgresDialect) Name() Name { return Postgres }

func (p *postgresDialect) QuoteIdentifier(id string) string {
	return fmt.Sprintf("%q", id)
}

func (p *postgresDialect) CreateTableSQL(t *state.Table) (string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("CREATE TABLE %s (", p.QuoteIdentifier(t.Name)))
	var defs []string
	var pkCols []string
	for _, col := range t.OrderedColumns() {
		defs = append(defs, p.columnDefinition(col))
		if col.Constraints.PrimaryKey {
			pkCols = append(pkCols, col.Name)
		}
	}
	if len(pkCols) > 0 {
		quoted := make([]string, len(pkCols))
		for i, c := range pkCols {
			quoted[i] = p.QuoteIdentifier(c)
		}
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}
	for col, fk := range t.ForeignKeys {
		def := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s)",
			p.QuoteIdentifier(col), p.QuoteIdentifier(fk.ReferencedTable), p.QuoteIdentifier(fk.ReferencedColumn))
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

func (p *postgresDialect) columnDefinition(col state.Column) string {
	def := fmt.Sprintf("%s %s", p.QuoteIdentifier(col.Name), p.MapDataType(col))
	if col.Constraints.Nullable != nil && !*col.Constraints.Nullable {
		def += " NOT NULL"
	}
	if col.Constraints.Unique {
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

func (p *postgresDialect) DropTableSQL(name string, cascade bool) (string, error) {
	suffix := ""
	if cascade {
		suffix = " CASCADE"
	}
	return fmt.Sprintf("DROP TABLE IF EXISTS %s%s;", p.QuoteIdentifier(name), suffix), nil
}

func (p *postgresDialect) RenameTableSQL(from, to string) (string, error) {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", p.QuoteIdentifier(from), p.QuoteIdentifier(to)), nil
}

func (p *postgresDialect) AddColumnSQL(table string, col state.Column) ([]string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", p.QuoteIdentifier(table), p.columnDefinition(col)))
	sb.WriteString(";")
	queries := []string{sb.String()}
	if col.Constraints.Unique {
		queries = append(queries, fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s);",
			p.QuoteIdentifier(fmt.Sprintf("uniq_%s_%s", table, col.Name)), p.QuoteIdentifier(table), p.QuoteIdentifier(col.Name)))
	}
	return queries, nil
}

func (p *postgresDialect) DropColumnSQL(table, column string) (string, error) {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", p.QuoteIdentifier(table), p.QuoteIdentifier(column)), nil
}

func (p *postgresDialect) RenameColumnSQL(table, from, to string) (string, error) {
	return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s;", p.QuoteIdentifier(table), p.QuoteIdentifier(from), p.QuoteIdentifier(to)), nil
}

func (p *postgresDialect) MapDataType(col state.Column) string {
	switch col.Type {
	case state.VarChar:
		if col.Constraints.MaxLen != nil && *col.Constraints.MaxLen > 0 {
			return fmt.Sprintf("VARCHAR(%d)", *col.Constraints.MaxLen)
		}
		return "TEXT"
	case state.Text:
		return "TEXT"
	case state.SmallInt:
		return "SMALLINT"
	case state.Int:
		return "INTEGER"
	case state.BigInt:
		return "BIGINT"
	case state.SmallSerial:
		return "SMALLSERIAL"
	case state.Serial:
		return "SERIAL"
	case state.BigSerial:
		return "BIGSERIAL"
	case state.Real:
		return "REAL"
	case state.Double:
		return "DOUBLE PRECISION"
	case state.Bool:
		return "BOOLEAN"
	case state.Date:
		return "DATE"
	case state.Time:
		return "TIME"
	case state.DateTime:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func (p *postgresDialect) SupportsInPlaceAlterColumn() bool { return true }

// AlterColumnSQL ports the original's alter_column plan: rename, type
// change, the four-step nullable-to-not-null-with-default dance (set
// default, backfill, set not null, drop the default again), a plain
// null/not-null flip otherwise, a dropped primary key
// constraint, and an added unique constraint, in that order.
func (p *postgresDialect) AlterColumnSQL(table string, old, new state.Column) ([]string, error) {
	var stmts []string
	if old.Name != new.Name {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s;",
			p.QuoteIdentifier(table), p.QuoteIdentifier(old.Name), p.QuoteIdentifier(new.Name)))
	}

	var actions, nullActions []string
	if old.Type != new.Type {
		actions = append(actions, fmt.Sprintf("ALTER COLUMN %s TYPE %s", p.QuoteIdentifier(new.Name), p.MapDataType(new)))
	}

	oldNullable := old.Constraints.Nullable != nil && *old.Constraints.Nullable
	newNotNull := new.Constraints.Nullable != nil && !*new.Constraints.Nullable
	changingToNotNull := oldNullable && newNotNull

	needsFourStep := changingToNotNull && new.DefaultLiteral != "" && old.DefaultLiteral != new.DefaultLiteral
	if needsFourStep {
		actions = append(actions, fmt.Sprintf("ALTER COLUMN %s SET DEFAULT %s",
			p.QuoteIdentifier(new.Name), quoteLiteralIfText(new, new.DefaultLiteral)))
	}

	nullableChanged := (old.Constraints.Nullable == nil) != (new.Constraints.Nullable == nil) ||
		(old.Constraints.Nullable != nil && new.Constraints.Nullable != nil && *old.Constraints.Nullable != *new.Constraints.Nullable)
	if nullableChanged {
		if new.Constraints.Nullable != nil && *new.Constraints.Nullable {
			nullActions = append(nullActions, fmt.Sprintf("ALTER COLUMN %s DROP NOT NULL", p.QuoteIdentifier(new.Name)))
		} else {
			nullActions = append(nullActions, fmt.Sprintf("ALTER COLUMN %s SET NOT NULL", p.QuoteIdentifier(new.Name)))
		}
	}

	if len(actions) > 0 || len(nullActions) > 0 {
		if !needsFourStep {
			actions = append(actions, nullActions...)
		}
		for _, a := range actions {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s %s;", p.QuoteIdentifier(table), a))
		}
		if needsFourStep {
			stmts = append(stmts, fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s IS NULL;",
				p.QuoteIdentifier(table), p.QuoteIdentifier(new.Name),
				quoteLiteralIfText(new, new.DefaultLiteral), p.QuoteIdentifier(new.Name)))
			for _, a := range nullActions {
				stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s %s;", p.QuoteIdentifier(table), a))
			}
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;",
				p.QuoteIdentifier(table), p.QuoteIdentifier(new.Name)))
		}
	}

	if old.Constraints.PrimaryKey && !new.Constraints.PrimaryKey {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;",
			p.QuoteIdentifier(table), p.QuoteIdentifier(fmt.Sprintf("%s_pkey", table))))
	}

	uniqueAdded := (!old.Constraints.Unique && new.Constraints.Unique) ||
		(old.Constraints.PrimaryKey && !new.Constraints.PrimaryKey && new.Constraints.Unique)
	if uniqueAdded {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s);",
			p.QuoteIdentifier(table), p.QuoteIdentifier(fmt.Sprintf("%s_%s_unique", table, new.Name)), p.QuoteIdentifier(new.Name)))
	}

	return stmts, nil
}

func (p *postgresDialect) RecreateTableForAlter(newSchema *state.Table, renameMap map[string]string) ([]string, error) {
	return nil, ormerrors.NewQueryError("postgres.RecreateTableForAlter", "postgres supports in-place ALTER; table recreation is not needed")
}

func (p *postgresDialect) CreateViewSQL(v View) (string, error) {
	if v.OrReplace {
		return fmt.Sprintf("CREATE OR REPLACE VIEW %s AS %s;", p.QuoteIdentifier(v.Name), v.Definition), nil
	}
	return fmt.Sprintf("CREATE VIEW %s AS %s;", p.QuoteIdentifier(v.Name), v.Definition), nil
}

func (p *postgresDialect) DropViewSQL(d DropView) (string, error) {
	exists, cascade := "", ""
	if d.IfExists {
		exists = " IF EXISTS"
	}
	if d.Cascade {
		cascade = " CASCADE"
	}
	return fmt.Sprintf("DROP VIEW%s %s%s;", exists, p.QuoteIdentifier(d.Name), cascade), nil
}

func (p *postgresDialect) RenameViewSQL(from, to string) (string, error) {
	return fmt.Sprintf("ALTER VIEW %s RENAME TO %s;", p.QuoteIdentifier(from), p.QuoteIdentifier(to)), nil
}

func (p *postgresDialect) CreateFunctionSQL(f Function) (string, error) {
	if f.OrReplace {
		return fmt.Sprintf("CREATE OR REPLACE FUNCTION %s %s;", p.QuoteIdentifier(f.Name), f.Definition), nil
	}
	return fmt.Sprintf("CREATE FUNCTION %s %s;", p.QuoteIdentifier(f.Name), f.Definition), nil
}

func (p *postgresDialect) DropFunctionSQL(d DropFunction) (string, error) {
	exists, cascade := "", ""
	if d.IfExists {
		exists = " IF EXISTS"
	}
	if d.Cascade {
		cascade = " CASCADE"
	}
	return fmt.Sprintf("DROP FUNCTION%s %s%s;", exists, p.QuoteIdentifier(d.Name), cascade), nil
}

func (p *postgresDialect) RenameFunctionSQL(from, to string) (string, error) {
	return fmt.Sprintf("ALTER FUNCTION %s RENAME TO %s;", p.QuoteIdentifier(from), p.QuoteIdentifier(to)), nil
}

func (p *postgresDialect) CreateProcedureSQL(pr Procedure) (string, error) {
	if pr.OrReplace {
		return fmt.Sprintf("CREATE OR REPLACE PROCEDURE %s %s;", p.QuoteIdentifier(pr.Name), pr.Definition), nil
	}
	return fmt.Sprintf("CREATE PROCEDURE %s %s;", p.QuoteIdentifier(pr.Name), pr.Definition), nil
}

func (p *postgresDialect) DropProcedureSQL(d DropProcedure) (string, error) {
	exists, cascade := "", ""
	if d.IfExists {
		exists = " IF EXISTS"
	}
	if d.Cascade {
		cascade = " CASCADE"
	}
	return fmt.Sprintf("DROP PROCEDURE%s %s%s;", exists, p.QuoteIdentifier(d.Name), cascade), nil
}

func (p *postgresDialect) RenameProcedureSQL(from, to string) (string, error) {
	return fmt.Sprintf("ALTER PROCEDURE %s RENAME TO %s;", p.QuoteIdentifier(from), p.QuoteIdentifier(to)), nil
}

func (p *postgresDialect) CreateTriggerSQL(t Trigger) (string, error) {
	if t.OrReplace {
		return fmt.Sprintf("DROP TRIGGER IF EXISTS %s; CREATE TRIGGER %s %s;",
			p.QuoteIdentifier(t.Name), p.QuoteIdentifier(t.Name), t.Definition), nil
	}
	return fmt.Sprintf("CREATE TRIGGER %s %s;", p.QuoteIdentifier(t.Name), t.Definition), nil
}

func (p *postgresDialect) DropTriggerSQL(d DropTrigger) (string, error) {
	if d.IfExists {
		return fmt.Sprintf("DROP TRIGGER IF EXISTS %s;", p.QuoteIdentifier(d.Name)), nil
	}
	return fmt.Sprintf("DROP TRIGGER %s;", p.QuoteIdentifier(d.Name)), nil
}

func (p *postgresDialect) RenameTriggerSQL(from, to string) (string, error) {
	return fmt.Sprintf("ALTER TRIGGER %s RENAME TO %s;", p.QuoteIdentifier(from), p.QuoteIdentifier(to)), nil
}

func (p *postgresDialect) WrapInTransaction(queries []string) []string {
	tx := []string{"BEGIN;"}
	tx = append(tx, queries...)
	return append(tx, "COMMIT;")
}

func (p *postgresDialect) WrapInTransactionWithIsolation(queries []string, isolationLevel string) []string {
	begin := "BEGIN;"
	if isolationLevel != "" {
		begin = fmt.Sprintf("BEGIN TRANSACTION ISOLATION LEVEL %s;", isolationLevel)
	}
	tx := []string{begin}
	tx = append(tx, queries...)
	return append(tx, "COMMIT;")
}
