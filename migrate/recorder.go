package migrate

import (
	"context"
	"strconv"
	"time"

	"github.com/oarkflow/orm/driver"
	"github.com/oarkflow/orm/model"
	"github.com/oarkflow/orm/query"
	"github.com/oarkflow/orm/schema"
	"github.com/oarkflow/orm/state"
)

// bookkeepingTable matches the teacher's own migrations table name.
const bookkeepingTable = "xalwart_migrations"

// AppliedRecord is one row of the bookkeeping table: which migration
// ran, when, and under what checksum. Checksum is additive beyond the
// {id, name, applied_at} shape spec.md §6 names (SUPPLEMENTED FEATURES
// §10 item 5).
type AppliedRecord struct {
	model.NullFlag
	ID        int64
	Name      string
	AppliedAt time.Time
	Checksum  string
}

func quoteStr(s string) string { return "'" + s + "'" }

func init() {
	model.RegisterDefault(bookkeepingTable,
		model.ColumnDescriptor{
			Name: "id", PrimaryKey: true,
			Get: func(row any) (string, string) { return "id", strconv.FormatInt(row.(*AppliedRecord).ID, 10) },
			Set: func(row any, raw string) {
				v, _ := strconv.ParseInt(raw, 10, 64)
				row.(*AppliedRecord).ID = v
			},
		},
		model.ColumnDescriptor{
			Name: "name",
			Get:  func(row any) (string, string) { return "name", quoteStr(row.(*AppliedRecord).Name) },
			Set:  func(row any, raw string) { row.(*AppliedRecord).Name = raw },
		},
		model.ColumnDescriptor{
			Name: "applied_at",
			Get: func(row any) (string, string) {
				return "applied_at", quoteStr(row.(*AppliedRecord).AppliedAt.UTC().Format(time.RFC3339))
			},
			Set: func(row any, raw string) {
				t, err := time.Parse(time.RFC3339, raw)
				if err == nil {
					row.(*AppliedRecord).AppliedAt = t
				}
			},
		},
		model.ColumnDescriptor{
			Name: "checksum",
			Get:  func(row any) (string, string) { return "checksum", quoteStr(row.(*AppliedRecord).Checksum) },
			Set:  func(row any, raw string) { row.(*AppliedRecord).Checksum = raw },
		},
	)
}

func (r *AppliedRecord) TableName() string               { return bookkeepingTable }
func (r *AppliedRecord) Columns() []model.ColumnDescriptor {
	d, _ := model.Lookup(bookkeepingTable)
	return d.Columns
}
func (r *AppliedRecord) PKColumn() model.ColumnDescriptor {
	d, _ := model.Lookup(bookkeepingTable)
	return d.PK
}
func (r *AppliedRecord) New() model.Record { return &AppliedRecord{} }
func (r *AppliedRecord) OmitPK() bool {
	d, _ := model.Lookup(bookkeepingTable)
	return d.OmitPK
}

// Recorder tracks which migrations have run against a database,
// persisting that fact in the bookkeeping table so Executor can
// resume across process restarts. Grounded on the original's
// MigrationRecorder (ensure_schema/applied_migrations/record_applied/
// record_revoked/flush).
type Recorder struct {
	editor *schema.Editor
	conn   driver.Connection
}

// NewRecorder constructs a Recorder driving editor's project/dialect
// and running queries over conn.
func NewRecorder(editor *schema.Editor, conn driver.Connection) *Recorder {
	return &Recorder{editor: editor, conn: conn}
}

// EnsureSchema creates the bookkeeping table if the tracked project
// does not already carry it. Safe to call repeatedly.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.editor.Project.GetTable(bookkeepingTable); err == nil {
		return nil
	}
	t := state.NewTable(bookkeepingTable)
	falseVal := false
	t.AddColumn(state.Column{Name: "id", Type: state.Serial, Constraints: state.Constraints{PrimaryKey: true, Autoincrement: true}})
	t.AddColumn(state.Column{Name: "name", Type: state.VarChar, Constraints: state.Constraints{Nullable: &falseVal, Unique: true, MaxLen: maxLen(255)}})
	t.AddColumn(state.Column{Name: "applied_at", Type: state.DateTime, Constraints: state.Constraints{Nullable: &falseVal}})
	t.AddColumn(state.Column{Name: "checksum", Type: state.VarChar, Constraints: state.Constraints{Nullable: &falseVal, MaxLen: maxLen(64)}})
	return r.editor.CreateTable(ctx, t)
}

func maxLen(n uint) *uint { return &n }

// AppliedMigrations returns every recorded migration name mapped to
// its full AppliedRecord. The map carries no order; sort by
// AppliedRecord.ID for application order.
func (r *Recorder) AppliedMigrations(ctx context.Context) (map[string]AppliedRecord, error) {
	rows, err := query.NewSelect[*AppliedRecord](r.conn).ToSlice(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]AppliedRecord, len(rows))
	for _, row := range rows {
		out[row.Name] = *row
	}
	return out, nil
}

// RecordApplied notes that migration name has run successfully.
func (r *Recorder) RecordApplied(ctx context.Context, name, checksum string) error {
	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}
	row := &AppliedRecord{Name: name, AppliedAt: time.Now().UTC(), Checksum: checksum}
	_, err := query.NewInsert[*AppliedRecord](r.conn).Rows(row).One(ctx)
	return err
}

// RecordRolledBack forgets that migration name was applied.
func (r *Recorder) RecordRolledBack(ctx context.Context, name string) error {
	cond, err := query.In[*AppliedRecord]("name", name)
	if err != nil {
		return err
	}
	return query.NewDelete[*AppliedRecord](r.conn).Where(cond).Exec(ctx)
}

// Flush deletes every recorded migration. Useful for test teardown,
// matching the original's MigrationRecorder::flush.
func (r *Recorder) Flush(ctx context.Context) error {
	rows, err := query.NewSelect[*AppliedRecord](r.conn).ToSlice(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	names := make([]any, len(rows))
	for i, row := range rows {
		names[i] = row.Name
	}
	cond, err := query.In[*AppliedRecord]("name", names...)
	if err != nil {
		return err
	}
	return query.NewDelete[*AppliedRecord](r.conn).Where(cond).Exec(ctx)
}
