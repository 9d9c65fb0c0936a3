package sqlbuilder

import (
	"strings"
	"testing"
)

func TestQuoteWrapsInDoubleQuotes(t *testing.T) {
	if got := Quote("users"); got != `"users"` {
		t.Fatalf("expected quoted identifier, got %q", got)
	}
}

func TestInsertRendersMultiRowValuesList(t *testing.T) {
	sql, err := Insert("users", `"id", "name"`, []string{"1, 'a'", "2, 'b'"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	want := `INSERT INTO "users" ("id", "name") VALUES (1, 'a'), (2, 'b');`
	if sql != want {
		t.Fatalf("expected %q, got %q", want, sql)
	}
}

func TestInsertRejectsEmptyFields(t *testing.T) {
	if _, err := Insert("", "x", []string{"1"}); err == nil {
		t.Fatalf("expected error for empty table name")
	}
	if _, err := Insert("users", "", []string{"1"}); err == nil {
		t.Fatalf("expected error for empty columns")
	}
	if _, err := Insert("users", "x", nil); err == nil {
		t.Fatalf("expected error for empty rows")
	}
}

func TestSelectQualifiesAndAliasesColumns(t *testing.T) {
	sql, err := Select(SelectSpec{Table: "users", Columns: []string{"id", "email"}, Limit: -1})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !strings.Contains(sql, `"users"."id" AS "id"`) || !strings.Contains(sql, `"users"."email" AS "email"`) {
		t.Fatalf("expected table-qualified, aliased columns, got %q", sql)
	}
}

func TestSelectOffsetWithoutLimitIsError(t *testing.T) {
	_, err := Select(SelectSpec{Table: "users", Columns: []string{"id"}, Limit: -1, Offset: 10})
	if err == nil {
		t.Fatalf("expected error: offset used without limit")
	}
}

func TestSelectHavingWithoutGroupByIsError(t *testing.T) {
	_, err := Select(SelectSpec{Table: "users", Columns: []string{"id"}, Limit: -1, Having: `"id" > 1`})
	if err == nil {
		t.Fatalf("expected error: having used without group by")
	}
}

func TestSelectGroupByQualifiesBareColumnsOnly(t *testing.T) {
	sql, err := Select(SelectSpec{
		Table: "orders", Columns: []string{"id"}, Limit: -1,
		GroupBy: []string{"status", "customers.region"},
	})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !strings.Contains(sql, `"orders"."status"`) {
		t.Fatalf("expected bare group-by column to be table-qualified, got %q", sql)
	}
	if !strings.Contains(sql, "customers.region") {
		t.Fatalf("expected dotted group-by column to pass through unqualified, got %q", sql)
	}
}

func TestSelectRawSkipsColumnAliasing(t *testing.T) {
	sql, err := SelectRaw(`COUNT(*) AS "count"`, SelectSpec{Table: "users", Limit: -1})
	if err != nil {
		t.Fatalf("SelectRaw: %v", err)
	}
	if !strings.Contains(sql, `COUNT(*) AS "count"`) {
		t.Fatalf("expected raw column expression preserved verbatim, got %q", sql)
	}
}

func TestSelectRendersLimitAndOffset(t *testing.T) {
	sql, err := Select(SelectSpec{Table: "users", Columns: []string{"id"}, Limit: 10, Offset: 5})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !strings.Contains(sql, "LIMIT 10") || !strings.Contains(sql, "OFFSET 5") {
		t.Fatalf("expected LIMIT and OFFSET rendered, got %q", sql)
	}
}

func TestUpdateRendersSetAndWhere(t *testing.T) {
	sql, err := Update("users", `"name" = 'bob'`, `"id" = 1`)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := `UPDATE "users" SET "name" = 'bob' WHERE "id" = 1;`
	if sql != want {
		t.Fatalf("expected %q, got %q", want, sql)
	}
}

func TestUpdateRejectsEmptyFields(t *testing.T) {
	if _, err := Update("", "x = 1", ""); err == nil {
		t.Fatalf("expected error for empty table")
	}
	if _, err := Update("users", "", ""); err == nil {
		t.Fatalf("expected error for empty columns_data")
	}
}

func TestDeleteRendersWhereOptionally(t *testing.T) {
	sql, err := Delete("users", `"id" = 1`)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if sql != `DELETE FROM "users" WHERE "id" = 1;` {
		t.Fatalf("unexpected delete SQL: %q", sql)
	}

	sqlAll, err := Delete("users", "")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if sqlAll != `DELETE FROM "users";` {
		t.Fatalf("unexpected unconditional delete SQL: %q", sqlAll)
	}
}

func TestDeleteRejectsEmptyTable(t *testing.T) {
	if _, err := Delete("", ""); err == nil {
		t.Fatalf("expected error for empty table name")
	}
}
