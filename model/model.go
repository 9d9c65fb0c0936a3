// Package model defines the Record contract and the reflection-free
// column descriptor table every record type registers once, at
// package init time, instead of paying for reflection on every row.
package model

import (
	"fmt"
	"sync"

	ormerrors "github.com/oarkflow/orm/errors"
)

// ColumnDescriptor binds one struct field to its column name and a
// pair of accessor closures. Get renders the field's current value as
// a SQL literal (the column name is echoed back for convenience at
// call sites that iterate a slice of descriptors); Set parses a raw
// value coming back from the driver and assigns it to the field.
//
// Set is never invoked for a column whose raw driver value is null —
// callers (query.Select's row materialiser) skip the call entirely,
// leaving the field at its zero value.
type ColumnDescriptor struct {
	Name       string
	PrimaryKey bool
	Get        func(row any) (string, string)
	Set        func(row any, raw string)
}

// Record is implemented by every mapped type. Implementations are
// expected to be generated (by hand, in this exercise) once per type,
// delegating to a *Descriptor built by Register in an init() function.
type Record interface {
	TableName() string
	Columns() []ColumnDescriptor
	PKColumn() ColumnDescriptor
	IsNull() bool
	MarkNull()
	// New returns a freshly allocated zero instance of the concrete
	// record type, letting the query package materialise rows
	// without reflection (spec.md §9's reflection-free design note
	// extends to row construction, not just field access).
	New() Record
	// OmitPK reports whether bulk inserts should exclude the primary
	// key column by default (spec.md §9 open question (c)).
	OmitPK() bool
}

// NullFlag is an embeddable helper giving a Record its IsNull/MarkNull
// pair without each type re-implementing the same bool field.
type NullFlag struct {
	null bool
}

func (n *NullFlag) IsNull() bool { return n.null }
func (n *NullFlag) MarkNull()    { n.null = true }

// Descriptor is the per-type table built once by Register: table
// name, column list in declaration order, the single primary-key
// column, and whether bulk inserts omit the primary key by default.
type Descriptor struct {
	Table   string
	Columns []ColumnDescriptor
	PK      ColumnDescriptor
	OmitPK  bool
}

var (
	registryMu sync.RWMutex
	registry   = map[string]*Descriptor{}
)

// Register builds and memoizes the descriptor table for a record
// type. It must be called exactly once per type, from that type's
// init() function; calling it twice for the same table name replaces
// the previous registration. Exactly one column in cols must carry
// PrimaryKey: true, or Register panics — this is a programming error
// caught at process start, not a runtime condition callers recover
// from.
//
// omitPK defaults to true when called via RegisterDefault; Register
// takes it explicitly so callers can opt a type out of the default
// (spec.md §9 open question (c)).
func Register(table string, omitPK bool, cols ...ColumnDescriptor) *Descriptor {
	var pk ColumnDescriptor
	pkFound := false
	for _, c := range cols {
		if c.PrimaryKey {
			if pkFound {
				panic(fmt.Sprintf("model: table %q declares more than one primary key column", table))
			}
			pk = c
			pkFound = true
		}
	}
	if !pkFound {
		panic(fmt.Sprintf("model: table %q declares no primary key column", table))
	}
	d := &Descriptor{Table: table, Columns: cols, PK: pk, OmitPK: omitPK}
	registryMu.Lock()
	registry[table] = d
	registryMu.Unlock()
	return d
}

// RegisterDefault calls Register with omitPK defaulted to true, the
// spec's documented default (spec.md §9 open question (c)).
func RegisterDefault(table string, cols ...ColumnDescriptor) *Descriptor {
	return Register(table, true, cols...)
}

// Lookup returns the descriptor registered for table, if any.
func Lookup(table string) (*Descriptor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[table]
	return d, ok
}

// InsertColumns returns d's columns honoring OmitPK: when omitPK is
// true the primary key column is excluded from the slice, letting
// autoincrement/serial columns default at the database rather than
// being written as a literal.
func (d *Descriptor) InsertColumns() []ColumnDescriptor {
	if !d.OmitPK {
		return d.Columns
	}
	cols := make([]ColumnDescriptor, 0, len(d.Columns))
	for _, c := range d.Columns {
		if !c.PrimaryKey {
			cols = append(cols, c)
		}
	}
	return cols
}

// ColumnNamed returns the descriptor for a single column, or a
// QueryError if name is not part of this type.
func (d *Descriptor) ColumnNamed(name string) (ColumnDescriptor, error) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, nil
		}
	}
	return ColumnDescriptor{}, ormerrors.NewQueryError("model.ColumnNamed",
		fmt.Sprintf("table %q has no column %q", d.Table, name))
}
