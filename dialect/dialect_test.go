package dialect

import (
	"strings"
	"testing"

	"github.com/oarkflow/orm/state"
)

func boolPtr(b bool) *bool { return &b }
func uintPtr(n uint) *uint { return &n }

func usersTable() *state.Table {
	t := state.NewTable("users")
	t.AddColumn(state.Column{Name: "id", Type: state.Serial, Constraints: state.Constraints{PrimaryKey: true, Autoincrement: true}})
	t.AddColumn(state.Column{Name: "email", Type: state.VarChar, Constraints: state.Constraints{Nullable: boolPtr(false), MaxLen: uintPtr(255)}})
	return t
}

func TestGetReturnsBothRegisteredDialects(t *testing.T) {
	if _, err := Get(SQLite); err != nil {
		t.Fatalf("Get(SQLite): %v", err)
	}
	if _, err := Get(Postgres); err != nil {
		t.Fatalf("Get(Postgres): %v", err)
	}
	if _, err := Get("mysql"); err == nil {
		t.Fatalf("expected error for unregistered dialect")
	}
}

func TestPostgresCreateTableIncludesCompositePrimaryKeyClause(t *testing.T) {
	d, _ := Get(Postgres)
	sql, err := d.CreateTableSQL(usersTable())
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	if !strings.Contains(sql, `PRIMARY KEY ("id")`) {
		t.Fatalf("expected explicit PRIMARY KEY clause, got %q", sql)
	}
	if !strings.Contains(sql, "NOT NULL") {
		t.Fatalf("expected NOT NULL on email, got %q", sql)
	}
}

func TestSQLiteCreateTableInlinesSinglePrimaryKey(t *testing.T) {
	d, _ := Get(SQLite)
	sql, err := d.CreateTableSQL(usersTable())
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	if !strings.Contains(sql, "PRIMARY KEY AUTOINCREMENT") {
		t.Fatalf("expected inline PRIMARY KEY AUTOINCREMENT, got %q", sql)
	}
	if strings.Contains(sql, "PRIMARY KEY (") {
		t.Fatalf("expected no trailing composite PRIMARY KEY clause for a single PK column, got %q", sql)
	}
}

func TestSQLiteRejectsAddingPrimaryKeyColumn(t *testing.T) {
	d, _ := Get(SQLite)
	_, err := d.AddColumnSQL("users", state.Column{Name: "id2", Type: state.Int, Constraints: state.Constraints{PrimaryKey: true}})
	if err == nil {
		t.Fatalf("expected error adding a primary key column to an existing SQLite table")
	}
}

func TestSQLiteDropAndRenameColumnRequireRecreation(t *testing.T) {
	d, _ := Get(SQLite)
	if _, err := d.DropColumnSQL("users", "email"); err == nil {
		t.Fatalf("expected DropColumnSQL to fail on SQLite")
	}
	if _, err := d.RenameColumnSQL("users", "email", "email_address"); err == nil {
		t.Fatalf("expected RenameColumnSQL to fail on SQLite")
	}
	if d.SupportsInPlaceAlterColumn() {
		t.Fatalf("expected SQLite to not support in-place ALTER COLUMN")
	}
}

func TestPostgresSupportsInPlaceAlterColumn(t *testing.T) {
	d, _ := Get(Postgres)
	if !d.SupportsInPlaceAlterColumn() {
		t.Fatalf("expected Postgres to support in-place ALTER COLUMN")
	}
}

func TestPostgresAlterColumnRenameOnly(t *testing.T) {
	d, _ := Get(Postgres)
	old := state.Column{Name: "email", Type: state.VarChar, Constraints: state.Constraints{Nullable: boolPtr(false)}}
	new := old
	new.Name = "email_address"
	stmts, err := d.AlterColumnSQL("users", old, new)
	if err != nil {
		t.Fatalf("AlterColumnSQL: %v", err)
	}
	if len(stmts) != 1 || !strings.Contains(stmts[0], "RENAME COLUMN") {
		t.Fatalf("expected a single RENAME COLUMN statement, got %v", stmts)
	}
}

func TestPostgresAlterColumnFourStepBackfillOrder(t *testing.T) {
	d, _ := Get(Postgres)
	old := state.Column{Name: "status", Type: state.VarChar, Constraints: state.Constraints{Nullable: boolPtr(true)}}
	new := state.Column{Name: "status", Type: state.VarChar, Constraints: state.Constraints{Nullable: boolPtr(false)}, DefaultLiteral: "pending"}

	stmts, err := d.AlterColumnSQL("users", old, new)
	if err != nil {
		t.Fatalf("AlterColumnSQL: %v", err)
	}
	joined := strings.Join(stmts, " | ")
	setDefaultIdx := strings.Index(joined, "SET DEFAULT")
	updateIdx := strings.Index(joined, "UPDATE")
	setNotNullIdx := strings.Index(joined, "SET NOT NULL")
	if setDefaultIdx == -1 || updateIdx == -1 || setNotNullIdx == -1 {
		t.Fatalf("expected SET DEFAULT, UPDATE backfill and SET NOT NULL all present, got %v", stmts)
	}
	if !(setDefaultIdx < updateIdx && updateIdx < setNotNullIdx) {
		t.Fatalf("expected four-step order SET DEFAULT -> UPDATE -> SET NOT NULL, got %v", stmts)
	}
}

func TestPostgresAlterColumnDropsPrimaryKeyConstraint(t *testing.T) {
	d, _ := Get(Postgres)
	old := state.Column{Name: "id", Type: state.Serial, Constraints: state.Constraints{PrimaryKey: true}}
	new := state.Column{Name: "id", Type: state.Serial}
	stmts, err := d.AlterColumnSQL("users", old, new)
	if err != nil {
		t.Fatalf("AlterColumnSQL: %v", err)
	}
	found := false
	for _, s := range stmts {
		if strings.Contains(s, "DROP CONSTRAINT") && strings.Contains(s, "users_pkey") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a DROP CONSTRAINT users_pkey statement, got %v", stmts)
	}
}

func TestSQLiteRecreateTableForAlterOrdersStatementsAndCarriesRename(t *testing.T) {
	d, _ := Get(SQLite)
	newSchema := state.NewTable("users")
	newSchema.AddColumn(state.Column{Name: "id", Type: state.Serial, Constraints: state.Constraints{PrimaryKey: true, Autoincrement: true}})
	newSchema.AddColumn(state.Column{Name: "email_address", Type: state.VarChar})

	stmts, err := d.RecreateTableForAlter(newSchema, map[string]string{"email_address": "email"})
	if err != nil {
		t.Fatalf("RecreateTableForAlter: %v", err)
	}
	if len(stmts) != 6 {
		t.Fatalf("expected 6 statements (pragma off, rename, create, insert-select, drop, pragma on), got %d: %v", len(stmts), stmts)
	}
	if stmts[0] != "PRAGMA foreign_keys=off;" || stmts[len(stmts)-1] != "PRAGMA foreign_keys=on;" {
		t.Fatalf("expected foreign_keys pragma bracketing the recreation, got %v", stmts)
	}
	if !strings.Contains(stmts[3], `SELECT "id", "email" FROM "users_backup"`) {
		t.Fatalf("expected the INSERT...SELECT to read from the old column name via the rename map, got %q", stmts[3])
	}
}

func TestMapDataTypeRendersVarCharWithMaxLen(t *testing.T) {
	pg, _ := Get(Postgres)
	col := state.Column{Type: state.VarChar, Constraints: state.Constraints{MaxLen: uintPtr(64)}}
	if got := pg.MapDataType(col); got != "VARCHAR(64)" {
		t.Fatalf("expected VARCHAR(64), got %q", got)
	}

	sl, _ := Get(SQLite)
	if got := sl.MapDataType(col); got != "VARCHAR(64)" {
		t.Fatalf("expected VARCHAR(64), got %q", got)
	}
}

func TestWrapInTransactionWithIsolationDegradesOnSQLite(t *testing.T) {
	sl, _ := Get(SQLite)
	queries := []string{"SELECT 1;"}
	wrapped := sl.WrapInTransactionWithIsolation(queries, "SERIALIZABLE")
	if wrapped[0] != "BEGIN;" {
		t.Fatalf("expected SQLite to ignore isolation level and emit a plain BEGIN, got %q", wrapped[0])
	}

	pg, _ := Get(Postgres)
	wrappedPg := pg.WrapInTransactionWithIsolation(queries, "SERIALIZABLE")
	if !strings.Contains(wrappedPg[0], "ISOLATION LEVEL SERIALIZABLE") {
		t.Fatalf("expected Postgres to honor the isolation level, got %q", wrappedPg[0])
	}
}
