// Package state holds the in-memory description of a database schema
// as the ORM understands it: columns, tables and the whole project.
// Migration operations transform a Project monotonically; the schema
// editor and SQL builder never read the database to discover its
// current shape, they trust this state.
package state

import (
	"fmt"

	ormerrors "github.com/oarkflow/orm/errors"
)

// SQLType is the closed set of logical column types the core knows
// how to map into dialect-specific SQL type names.
type SQLType int

const (
	Bool SQLType = iota
	VarChar
	Text
	SmallInt
	Int
	BigInt
	SmallSerial
	Serial
	BigSerial
	Real
	Double
	Date
	Time
	DateTime
)

func (t SQLType) String() string {
	switch t {
	case Bool:
		return "Bool"
	case VarChar:
		return "VarChar"
	case Text:
		return "Text"
	case SmallInt:
		return "SmallInt"
	case Int:
		return "Int"
	case BigInt:
		return "BigInt"
	case SmallSerial:
		return "SmallSerial"
	case Serial:
		return "Serial"
	case BigSerial:
		return "BigSerial"
	case Real:
		return "Real"
	case Double:
		return "Double"
	case Date:
		return "Date"
	case Time:
		return "Time"
	case DateTime:
		return "DateTime"
	default:
		return "Unknown"
	}
}

// IsIntegerFamily reports whether t is one of the integer-like SQL
// types eligible to carry an autoincrement constraint.
func (t SQLType) IsIntegerFamily() bool {
	switch t {
	case SmallInt, Int, BigInt, SmallSerial, Serial, BigSerial:
		return true
	default:
		return false
	}
}

// Action is a referential action taken on foreign-key violation.
type Action int

const (
	NoAction Action = iota
	SetNull
	SetDefault
	Restrict
	Cascade
)

func (a Action) String() string {
	switch a {
	case SetNull:
		return "SET NULL"
	case SetDefault:
		return "SET DEFAULT"
	case Restrict:
		return "RESTRICT"
	case Cascade:
		return "CASCADE"
	default:
		return "NO ACTION"
	}
}

// Constraints carries every column-level constraint recognised by the
// core. MaxLen, Nullable and Default are pointer/typed-nil so "unset"
// is distinguishable from "set to the zero value".
type Constraints struct {
	MaxLen        *uint
	Nullable      *bool
	PrimaryKey    bool
	Unique        bool
	Autoincrement bool
	Check         string
	Default       any
}

// Column describes one column of a table.
type Column struct {
	Name            string
	Type            SQLType
	Constraints     Constraints
	DefaultLiteral  string
}

// Validate enforces the spec.md §3 column invariants:
//
//	autoincrement ⇒ primary_key ∧ type ∈ integer family
//	max_len set ⇒ logical_type = VarChar
func (c Column) Validate() error {
	if c.Constraints.Autoincrement {
		if !c.Constraints.PrimaryKey {
			return ormerrors.NewValueError(fmt.Sprintf("column %q: autoincrement requires primary_key", c.Name))
		}
		if !c.Type.IsIntegerFamily() {
			return ormerrors.NewValueError(fmt.Sprintf("column %q: autoincrement requires an integer-family type", c.Name))
		}
	}
	if c.Constraints.MaxLen != nil && c.Type != VarChar {
		return ormerrors.NewValueError(fmt.Sprintf("column %q: max_len is only valid for VarChar columns", c.Name))
	}
	return nil
}

// ForeignKey describes a single-column foreign key.
type ForeignKey struct {
	ReferencedTable  string
	ReferencedColumn string
	OnDelete         Action
	OnUpdate         Action
}

// Table is the in-memory description of one table: its columns, in
// declaration order, and any foreign keys keyed by the owning column.
type Table struct {
	Name        string
	order       []string
	Columns     map[string]Column
	ForeignKeys map[string]ForeignKey
}

// NewTable returns an empty table ready to receive columns.
func NewTable(name string) *Table {
	return &Table{
		Name:        name,
		Columns:     map[string]Column{},
		ForeignKeys: map[string]ForeignKey{},
	}
}

// AddColumn appends a column, preserving declaration order for
// CREATE TABLE rendering.
func (t *Table) AddColumn(c Column) {
	if _, exists := t.Columns[c.Name]; !exists {
		t.order = append(t.order, c.Name)
	}
	t.Columns[c.Name] = c
}

// RemoveColumn drops a column and any foreign key on it.
func (t *Table) RemoveColumn(name string) {
	delete(t.Columns, name)
	delete(t.ForeignKeys, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// RenameColumn renames a column in place, preserving its position.
func (t *Table) RenameColumn(from, to string) error {
	col, ok := t.Columns[from]
	if !ok {
		return ormerrors.NewValueError(fmt.Sprintf("table %q: column %q does not exist", t.Name, from))
	}
	col.Name = to
	delete(t.Columns, from)
	t.Columns[to] = col
	for i, n := range t.order {
		if n == from {
			t.order[i] = to
			break
		}
	}
	if fk, ok := t.ForeignKeys[from]; ok {
		delete(t.ForeignKeys, from)
		t.ForeignKeys[to] = fk
	}
	return nil
}

// OrderedColumns returns columns in declaration order.
func (t *Table) OrderedColumns() []Column {
	cols := make([]Column, 0, len(t.order))
	for _, name := range t.order {
		cols = append(cols, t.Columns[name])
	}
	return cols
}

// Clone returns a deep-enough copy of t: the maps and order slice are
// copied so mutating the clone never affects t. Column and ForeignKey
// values are copied by value (they carry no pointers a mutation would
// alias, aside from Constraints.MaxLen/Nullable which are only ever
// replaced wholesale, never mutated in place).
func (t *Table) Clone() *Table {
	clone := NewTable(t.Name)
	clone.order = append([]string(nil), t.order...)
	for k, v := range t.Columns {
		clone.Columns[k] = v
	}
	for k, v := range t.ForeignKeys {
		clone.ForeignKeys[k] = v
	}
	return clone
}

// Validate checks that every foreign key's column exists.
func (t *Table) Validate() error {
	for col := range t.ForeignKeys {
		if _, ok := t.Columns[col]; !ok {
			return ormerrors.NewValueError(fmt.Sprintf("table %q: foreign key column %q is not declared", t.Name, col))
		}
	}
	return nil
}

// Project is the in-memory snapshot of the whole schema, tables kept
// in insertion order so CreateTable migrations replay deterministically.
type Project struct {
	order  []string
	Tables map[string]*Table
}

// NewProject returns an empty project state.
func NewProject() *Project {
	return &Project{Tables: map[string]*Table{}}
}

// AddTable inserts or replaces a table, preserving first-insertion order.
func (p *Project) AddTable(t *Table) {
	if _, exists := p.Tables[t.Name]; !exists {
		p.order = append(p.order, t.Name)
	}
	p.Tables[t.Name] = t
}

// RemoveTable drops a table from the project.
func (p *Project) RemoveTable(name string) {
	delete(p.Tables, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// RenameTable renames a table in place, preserving its position.
func (p *Project) RenameTable(from, to string) error {
	t, ok := p.Tables[from]
	if !ok {
		return ormerrors.NewValueError(fmt.Sprintf("project: table %q does not exist", from))
	}
	t.Name = to
	delete(p.Tables, from)
	p.Tables[to] = t
	for i, n := range p.order {
		if n == from {
			p.order[i] = to
			break
		}
	}
	return nil
}

// GetTable returns the table named name, or an error if it is absent.
func (p *Project) GetTable(name string) (*Table, error) {
	t, ok := p.Tables[name]
	if !ok {
		return nil, ormerrors.NewValueError(fmt.Sprintf("project: table %q does not exist", name))
	}
	return t, nil
}

// OrderedTables returns tables in declaration order.
func (p *Project) OrderedTables() []*Table {
	tables := make([]*Table, 0, len(p.order))
	for _, name := range p.order {
		tables = append(tables, p.Tables[name])
	}
	return tables
}

// Clone deep-copies the project so migration replay can snapshot state
// at each step without aliasing.
func (p *Project) Clone() *Project {
	clone := NewProject()
	clone.order = append([]string(nil), p.order...)
	for name, t := range p.Tables {
		clone.Tables[name] = t.Clone()
	}
	return clone
}

// Equal reports whether p and other describe structurally identical
// schemas (spec.md §8 invariant 5: forward then backward on a state
// yields the pre-forward state).
func (p *Project) Equal(other *Project) bool {
	if len(p.Tables) != len(other.Tables) {
		return false
	}
	for name, t := range p.Tables {
		o, ok := other.Tables[name]
		if !ok || !tablesEqual(t, o) {
			return false
		}
	}
	return true
}

func tablesEqual(a, b *Table) bool {
	if a.Name != b.Name || len(a.Columns) != len(b.Columns) || len(a.ForeignKeys) != len(b.ForeignKeys) {
		return false
	}
	for name, ac := range a.Columns {
		bc, ok := b.Columns[name]
		if !ok || !columnsEqual(ac, bc) {
			return false
		}
	}
	for name, afk := range a.ForeignKeys {
		bfk, ok := b.ForeignKeys[name]
		if !ok || afk != bfk {
			return false
		}
	}
	return true
}

func columnsEqual(a, b Column) bool {
	if a.Name != b.Name || a.Type != b.Type || a.DefaultLiteral != b.DefaultLiteral {
		return false
	}
	ac, bc := a.Constraints, b.Constraints
	if ac.PrimaryKey != bc.PrimaryKey || ac.Unique != bc.Unique ||
		ac.Autoincrement != bc.Autoincrement || ac.Check != bc.Check {
		return false
	}
	if (ac.MaxLen == nil) != (bc.MaxLen == nil) {
		return false
	}
	if ac.MaxLen != nil && *ac.MaxLen != *bc.MaxLen {
		return false
	}
	if (ac.Nullable == nil) != (bc.Nullable == nil) {
		return false
	}
	if ac.Nullable != nil && *ac.Nullable != *bc.Nullable {
		return false
	}
	return true
}
