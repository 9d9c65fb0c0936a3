package model

import "testing"

type widget struct {
	NullFlag
	ID   int64
	Name string
}

func (w *widget) TableName() string        { return "widgets" }
func (w *widget) Columns() []ColumnDescriptor {
	d, _ := Lookup("widgets")
	return d.Columns
}
func (w *widget) PKColumn() ColumnDescriptor {
	d, _ := Lookup("widgets")
	return d.PK
}
func (w *widget) New() Record { return &widget{} }
func (w *widget) OmitPK() bool {
	d, _ := Lookup("widgets")
	return d.OmitPK
}

func widgetColumns() []ColumnDescriptor {
	return []ColumnDescriptor{
		{Name: "id", PrimaryKey: true,
			Get: func(row any) (string, string) { return "id", "" },
			Set: func(row any, raw string) {}},
		{Name: "name",
			Get: func(row any) (string, string) { return "name", "" },
			Set: func(row any, raw string) {}},
	}
}

func TestRegisterPanicsWithoutPrimaryKey(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic: no primary key column declared")
		}
	}()
	Register("no_pk_table", true, ColumnDescriptor{Name: "x"})
}

func TestRegisterPanicsWithMultiplePrimaryKeys(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic: multiple primary key columns declared")
		}
	}()
	Register("dup_pk_table", true,
		ColumnDescriptor{Name: "a", PrimaryKey: true},
		ColumnDescriptor{Name: "b", PrimaryKey: true},
	)
}

func TestRegisterDefaultOmitsPKByDefault(t *testing.T) {
	d := RegisterDefault("widgets", widgetColumns()...)
	if !d.OmitPK {
		t.Fatalf("expected RegisterDefault to set OmitPK true")
	}
	insertCols := d.InsertColumns()
	if len(insertCols) != 1 || insertCols[0].Name != "name" {
		t.Fatalf("expected InsertColumns to exclude the primary key, got %v", insertCols)
	}
}

func TestRegisterExplicitOmitPKFalseKeepsPrimaryKey(t *testing.T) {
	d := Register("widgets_explicit_pk", false, widgetColumns()...)
	insertCols := d.InsertColumns()
	if len(insertCols) != 2 {
		t.Fatalf("expected InsertColumns to keep the primary key when OmitPK is false, got %v", insertCols)
	}
}

func TestColumnNamedReturnsErrorForUnknownColumn(t *testing.T) {
	d := Register("widgets_lookup", true, widgetColumns()...)
	if _, err := d.ColumnNamed("missing"); err == nil {
		t.Fatalf("expected error for unknown column")
	}
	col, err := d.ColumnNamed("name")
	if err != nil || col.Name != "name" {
		t.Fatalf("expected to find 'name' column, got %v, %v", col, err)
	}
}

func TestLookupReturnsRegisteredDescriptor(t *testing.T) {
	Register("widgets_registered", true, widgetColumns()...)
	d, ok := Lookup("widgets_registered")
	if !ok || d.Table != "widgets_registered" {
		t.Fatalf("expected registered descriptor to be found")
	}
	if _, ok := Lookup("never_registered"); ok {
		t.Fatalf("expected lookup of unregistered table to fail")
	}
}

func TestNullFlagDefaultsFalseUntilMarked(t *testing.T) {
	w := &widget{}
	if w.IsNull() {
		t.Fatalf("expected fresh record to not be null")
	}
	w.MarkNull()
	if !w.IsNull() {
		t.Fatalf("expected MarkNull to set IsNull true")
	}
}

func TestRecordNewReturnsFreshZeroValue(t *testing.T) {
	RegisterDefault("widgets", widgetColumns()...)
	w := &widget{ID: 7, Name: "gizmo"}
	fresh := w.New()
	fw, ok := fresh.(*widget)
	if !ok {
		t.Fatalf("expected New to return a *widget")
	}
	if fw.ID != 0 || fw.Name != "" {
		t.Fatalf("expected New to return a zero-value record, got %+v", fw)
	}
}
