package query

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/oarkflow/orm/driver"
	"github.com/oarkflow/orm/model"
)

// fakeConn is a minimal in-memory driver.Connection stand-in: RunQuery
// replays pre-seeded rows regardless of the SQL text, and Exec/RunQueryReturningID
// just record the last statement they were asked to run.
type fakeConn struct {
	rows      []map[string]string
	lastSQL   string
	returnID  string
	execErr   error
}

var _ driver.Connection = (*fakeConn)(nil)

func (f *fakeConn) DBMSName() string { return "fake" }

func (f *fakeConn) RunQuery(ctx context.Context, sql string, byName func(map[string]string) error, byPosition func([]string) error) error {
	f.lastSQL = sql
	for _, row := range f.rows {
		if byName != nil {
			if err := byName(row); err != nil {
				return err
			}
		}
		if byPosition != nil {
			ordered := make([]string, 0, len(row))
			for _, v := range row {
				ordered = append(ordered, v)
			}
			if err := byPosition(ordered); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *fakeConn) RunQueryReturningID(ctx context.Context, sql string) (string, error) {
	f.lastSQL = sql
	return f.returnID, nil
}

func (f *fakeConn) Exec(ctx context.Context, sql string) error {
	f.lastSQL = sql
	return f.execErr
}

func (f *fakeConn) Begin(ctx context.Context) error    { return nil }
func (f *fakeConn) Commit(ctx context.Context) error   { return nil }
func (f *fakeConn) Rollback(ctx context.Context) error { return nil }
func (f *fakeConn) Ping(ctx context.Context) error     { return nil }
func (f *fakeConn) Close() error                       { return nil }

// widgetRow is a minimal model.Record test fixture with a single
// non-PK column, wired through model.ColumnDescriptor Get/Set closures.
type widgetRow struct {
	model.NullFlag
	ID   int64
	Name string
}

func init() {
	model.RegisterDefault("widgets",
		model.ColumnDescriptor{
			Name: "id", PrimaryKey: true,
			Get: func(row any) (string, string) {
				return "id", strconv.FormatInt(row.(*widgetRow).ID, 10)
			},
			Set: func(row any, raw string) {
				n, _ := strconv.ParseInt(raw, 10, 64)
				row.(*widgetRow).ID = n
			},
		},
		model.ColumnDescriptor{
			Name: "name",
			Get: func(row any) (string, string) {
				return "name", "'" + row.(*widgetRow).Name + "'"
			},
			Set: func(row any, raw string) { row.(*widgetRow).Name = raw },
		},
	)
}

func (w *widgetRow) TableName() string { return "widgets" }
func (w *widgetRow) Columns() []model.ColumnDescriptor {
	d, _ := model.Lookup("widgets")
	return d.Columns
}
func (w *widgetRow) PKColumn() model.ColumnDescriptor {
	d, _ := model.Lookup("widgets")
	return d.PK
}
func (w *widgetRow) New() model.Record { return &widgetRow{} }
func (w *widgetRow) OmitPK() bool {
	d, _ := model.Lookup("widgets")
	return d.OmitPK
}

func TestColEqRendersTableQualifiedComparison(t *testing.T) {
	cond := C[*widgetRow]("name").Eq("bob")
	want := `"widgets"."name" = 'bob'`
	if cond.String() != want {
		t.Fatalf("expected %q, got %q", want, cond.String())
	}
}

func TestConditionAndOrNot(t *testing.T) {
	a := C[*widgetRow]("id").Gt(1)
	b := C[*widgetRow]("id").Lt(10)
	if got := And(a, b).String(); got != `("widgets"."id" > 1 AND "widgets"."id" < 10)` {
		t.Fatalf("unexpected And rendering: %q", got)
	}
	if got := Or(a, b).String(); got != `("widgets"."id" > 1 OR "widgets"."id" < 10)` {
		t.Fatalf("unexpected Or rendering: %q", got)
	}
	if got := Not(a).String(); got != `NOT ("widgets"."id" > 1)` {
		t.Fatalf("unexpected Not rendering: %q", got)
	}
}

func TestInRejectsEmptyValues(t *testing.T) {
	if _, err := In[*widgetRow]("id"); err == nil {
		t.Fatalf("expected error for empty In values")
	}
	cond, err := In[*widgetRow]("id", 1, 2, 3)
	if err != nil {
		t.Fatalf("In: %v", err)
	}
	if cond.String() != `"widgets"."id" IN (1, 2, 3)` {
		t.Fatalf("unexpected In rendering: %q", cond.String())
	}
}

func TestJoinOnDerivesForeignKeyFromSingularizedLeftTable(t *testing.T) {
	j := InnerOn[*widgetRow, *widgetRow]("", Condition{})
	want := `INNER JOIN "widgets" ON "widgets"."id" = "widgets"."widget_id"`
	if j.String() != want {
		t.Fatalf("expected %q, got %q", want, j.String())
	}
}

func TestAscDescRenderDirection(t *testing.T) {
	if got := Asc[*widgetRow]("name").String(); got != `"widgets"."name" ASC` {
		t.Fatalf("unexpected Asc rendering: %q", got)
	}
	if got := Desc[*widgetRow]("name").String(); got != `"widgets"."name" DESC` {
		t.Fatalf("unexpected Desc rendering: %q", got)
	}
}

func TestAggregateRenderingAndAlias(t *testing.T) {
	if got := Count().String(); got != "COUNT(*)" {
		t.Fatalf("unexpected Count rendering: %q", got)
	}
	sum := Sum[*widgetRow]("total")
	if sum.String() != `SUM("widgets"."total")` || sum.Alias() != "sum_total" {
		t.Fatalf("unexpected Sum rendering/alias: %q %q", sum.String(), sum.Alias())
	}
	if got := Min[*widgetRow]("id").String(); got != `MIN("widgets"."id")` {
		t.Fatalf("unexpected Min rendering: %q", got)
	}
	if got := Max[*widgetRow]("id").String(); got != `MAX("widgets"."id")` {
		t.Fatalf("unexpected Max rendering: %q", got)
	}
	if got := Avg[*widgetRow]("id").String(); got != `AVG("widgets"."id")` {
		t.Fatalf("unexpected Avg rendering: %q", got)
	}
}

func TestSelectWhereCalledTwiceIsQueryError(t *testing.T) {
	s := NewSelect[*widgetRow](&fakeConn{})
	s.Where(C[*widgetRow]("id").Eq(1))
	s.Where(C[*widgetRow]("id").Eq(2))
	if _, err := s.Query(); err == nil {
		t.Fatalf("expected error calling Where twice")
	}
}

func TestSelectToSliceMaterializesRows(t *testing.T) {
	conn := &fakeConn{rows: []map[string]string{
		{"id": "1", "name": "a"},
		{"id": "2", "name": "b"},
	}}
	rows, err := NewSelect[*widgetRow](conn).ToSlice(context.Background())
	if err != nil {
		t.Fatalf("ToSlice: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "a" || rows[1].Name != "b" {
		t.Fatalf("unexpected materialized rows: %+v", rows)
	}
}

func TestSelectFirstReturnsNullMarkedRecordWhenEmpty(t *testing.T) {
	conn := &fakeConn{}
	row, err := NewSelect[*widgetRow](conn).First(context.Background())
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if !row.IsNull() {
		t.Fatalf("expected a null-marked record when no rows match")
	}
}

func TestSelectToSliceRequiresConnection(t *testing.T) {
	_, err := NewSelect[*widgetRow](nil).ToSlice(context.Background())
	if err == nil {
		t.Fatalf("expected error: database connection is not set")
	}
}

func TestInsertOneRequiresExactlyOneRow(t *testing.T) {
	conn := &fakeConn{returnID: "7"}
	ins := NewInsert[*widgetRow](conn).Rows(&widgetRow{ID: 1, Name: "a"}, &widgetRow{ID: 2, Name: "b"})
	if _, err := ins.One(context.Background()); err == nil {
		t.Fatalf("expected error: One() requires exactly one row")
	}
}

func TestInsertOneReturnsGeneratedID(t *testing.T) {
	conn := &fakeConn{returnID: "42"}
	id, err := NewInsert[*widgetRow](conn).Rows(&widgetRow{Name: "a"}).One(context.Background())
	if err != nil {
		t.Fatalf("One: %v", err)
	}
	if id != "42" {
		t.Fatalf("expected generated id 42, got %q", id)
	}
}

func TestInsertOmitsPrimaryKeyByDefault(t *testing.T) {
	conn := &fakeConn{}
	ins := NewInsert[*widgetRow](conn).Rows(&widgetRow{ID: 5, Name: "a"})
	sql, err := ins.Query()
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if strings.Contains(sql, `"id"`) {
		t.Fatalf("expected primary key column omitted from insert by default, got %q", sql)
	}
}

func TestUpdateRequiresSetBeforeQuery(t *testing.T) {
	u := NewUpdate[*widgetRow](&fakeConn{})
	if _, err := u.Query(); err == nil {
		t.Fatalf("expected error: Set(row) must be called before Query")
	}
}

func TestUpdateExcludesPrimaryKeyFromSetClause(t *testing.T) {
	u := NewUpdate[*widgetRow](&fakeConn{}).Set(&widgetRow{ID: 1, Name: "renamed"})
	sql, err := u.Query()
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	setClause, whereClause, _ := strings.Cut(sql, "WHERE")
	if strings.Contains(setClause, `"id" =`) {
		t.Fatalf("expected primary key excluded from SET clause, got %q", sql)
	}
	if !strings.Contains(setClause, `"name" = 'renamed'`) {
		t.Fatalf("expected name assignment present, got %q", sql)
	}
	if !strings.Contains(whereClause, `"widgets"."id" = 1`) {
		t.Fatalf("expected WHERE clause derived from the row's primary key, got %q", sql)
	}
}

func TestUpdateWhereIsAndedWithPrimaryKey(t *testing.T) {
	u := NewUpdate[*widgetRow](&fakeConn{}).
		Set(&widgetRow{ID: 1, Name: "renamed"}).
		Where(C[*widgetRow]("name").Eq("old"))
	sql, err := u.Query()
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !strings.Contains(sql, `"widgets"."id" = 1`) || !strings.Contains(sql, `"widgets"."name" = 'old'`) {
		t.Fatalf("expected both the primary key and the caller's condition in the WHERE clause, got %q", sql)
	}
}

func TestUpdateWithoutWhereStillScopesToPrimaryKey(t *testing.T) {
	u := NewUpdate[*widgetRow](&fakeConn{}).Set(&widgetRow{ID: 7, Name: "renamed"})
	sql, err := u.Query()
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !strings.Contains(sql, `WHERE "widgets"."id" = 7`) {
		t.Fatalf("expected Update with no explicit Where to still scope by primary key, got %q", sql)
	}
}

func TestDeleteRendersWhereClause(t *testing.T) {
	d := NewDelete[*widgetRow](&fakeConn{}).Where(C[*widgetRow]("id").Eq(1))
	sql, err := d.Query()
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !strings.Contains(sql, `WHERE "widgets"."id" = 1`) {
		t.Fatalf("expected WHERE clause, got %q", sql)
	}
}

func TestDeleteDefaultsWhereToPrimaryKeysOfRows(t *testing.T) {
	d := NewDelete[*widgetRow](&fakeConn{}).Rows(&widgetRow{ID: 1}, &widgetRow{ID: 2})
	sql, err := d.Query()
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !strings.Contains(sql, `WHERE "widgets"."id" IN (1, 2)`) {
		t.Fatalf("expected WHERE clause built from row primary keys, got %q", sql)
	}
}

func TestDeleteExplicitWhereOverridesRows(t *testing.T) {
	d := NewDelete[*widgetRow](&fakeConn{}).
		Rows(&widgetRow{ID: 1}).
		Where(C[*widgetRow]("name").Eq("old"))
	sql, err := d.Query()
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if strings.Contains(sql, `"id" IN`) {
		t.Fatalf("expected explicit Where to override rows-derived default, got %q", sql)
	}
	if !strings.Contains(sql, `"widgets"."name" = 'old'`) {
		t.Fatalf("expected explicit condition present, got %q", sql)
	}
}

func TestDeleteFailsWithoutRowsOrWhere(t *testing.T) {
	d := NewDelete[*widgetRow](&fakeConn{})
	if _, err := d.Query(); err == nil {
		t.Fatalf("expected error: Rows(...) or Where(...) must be called before Query")
	}
}

func TestOneToManyAssignsChildrenByDerivedForeignKey(t *testing.T) {
	conn := &fakeConn{rows: []map[string]string{{"id": "1", "name": "child"}}}
	parent := &widgetRow{ID: 1, Name: "parent"}
	var children []*widgetRow
	s := NewSelect[*widgetRow](conn)
	OneToMany[*widgetRow, *widgetRow](s, "", func(p *widgetRow, c []*widgetRow) { children = c })

	for _, hook := range s.postHooks {
		if err := hook(context.Background(), parent); err != nil {
			t.Fatalf("hook: %v", err)
		}
	}
	if len(children) != 1 || children[0].Name != "child" {
		t.Fatalf("expected one child assigned, got %+v", children)
	}
}
