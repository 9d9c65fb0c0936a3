// Package migrate turns a sequence of schema edits into a reversible,
// checksum-verified unit (a Migration) and drives a project through
// them via Executor.Apply/Rollback, recording what ran in a dedicated
// bookkeeping table through Recorder.
package migrate

import (
	"context"

	"github.com/oarkflow/orm/dialect"
	"github.com/oarkflow/orm/schema"
	"github.com/oarkflow/orm/state"
)

// Operation is one reversible schema edit. Up applies it forward,
// Down reverses it; both drive the same *schema.Editor so the
// in-memory project state tracked there stays in lockstep with the
// live database either direction is run.
type Operation interface {
	Name() string
	Up(ctx context.Context, ed *schema.Editor) error
	Down(ctx context.Context, ed *schema.Editor) error
}

// CreateTable creates Table on Up and drops it on Down.
type CreateTable struct {
	Table *state.Table
}

func (o *CreateTable) Name() string { return "create_table:" + o.Table.Name }
func (o *CreateTable) Up(ctx context.Context, ed *schema.Editor) error {
	return ed.CreateTable(ctx, o.Table)
}
func (o *CreateTable) Down(ctx context.Context, ed *schema.Editor) error {
	return ed.DropTable(ctx, o.Table.Name, false)
}

// DropTable drops TableName on Up. Snapshot must carry the table's
// full shape as it existed immediately before the drop, so Down can
// recreate it exactly - the original's own backward() reads a
// from_state snapshot for the same reason.
type DropTable struct {
	TableName string
	Cascade   bool
	Snapshot  *state.Table
}

func (o *DropTable) Name() string { return "drop_table:" + o.TableName }
func (o *DropTable) Up(ctx context.Context, ed *schema.Editor) error {
	return ed.DropTable(ctx, o.TableName, o.Cascade)
}
func (o *DropTable) Down(ctx context.Context, ed *schema.Editor) error {
	return ed.CreateTable(ctx, o.Snapshot)
}

// RenameTable renames From to To on Up, and back on Down.
type RenameTable struct {
	From, To string
}

func (o *RenameTable) Name() string { return "rename_table:" + o.From + "->" + o.To }
func (o *RenameTable) Up(ctx context.Context, ed *schema.Editor) error {
	return ed.RenameTable(ctx, o.From, o.To)
}
func (o *RenameTable) Down(ctx context.Context, ed *schema.Editor) error {
	return ed.RenameTable(ctx, o.To, o.From)
}

// AddColumn adds Column to Table on Up, and drops it on Down.
type AddColumn struct {
	Table  string
	Column state.Column
}

func (o *AddColumn) Name() string { return "add_column:" + o.Table + "." + o.Column.Name }
func (o *AddColumn) Up(ctx context.Context, ed *schema.Editor) error {
	return ed.AddColumn(ctx, o.Table, o.Column)
}
func (o *AddColumn) Down(ctx context.Context, ed *schema.Editor) error {
	return ed.DropColumn(ctx, o.Table, o.Column.Name)
}

// DropColumn drops ColumnName from Table on Up. Snapshot carries the
// column's definition immediately before the drop, restored on Down.
type DropColumn struct {
	Table      string
	ColumnName string
	Snapshot   state.Column
}

func (o *DropColumn) Name() string { return "drop_column:" + o.Table + "." + o.ColumnName }
func (o *DropColumn) Up(ctx context.Context, ed *schema.Editor) error {
	return ed.DropColumn(ctx, o.Table, o.ColumnName)
}
func (o *DropColumn) Down(ctx context.Context, ed *schema.Editor) error {
	return ed.AddColumn(ctx, o.Table, o.Snapshot)
}

// RenameColumn renames From to To within Table on Up, and back on Down.
type RenameColumn struct {
	Table, From, To string
}

func (o *RenameColumn) Name() string {
	return "rename_column:" + o.Table + "." + o.From + "->" + o.To
}
func (o *RenameColumn) Up(ctx context.Context, ed *schema.Editor) error {
	return ed.RenameColumn(ctx, o.Table, o.From, o.To)
}
func (o *RenameColumn) Down(ctx context.Context, ed *schema.Editor) error {
	return ed.RenameColumn(ctx, o.Table, o.To, o.From)
}

// AlterColumn morphs Table's column from Old to New on Up, and back
// to Old on Down, driving schema.Editor's 6-phase plan both ways.
type AlterColumn struct {
	Table    string
	Old, New state.Column
}

func (o *AlterColumn) Name() string { return "alter_column:" + o.Table + "." + o.New.Name }
func (o *AlterColumn) Up(ctx context.Context, ed *schema.Editor) error {
	if o.Old.Name != o.New.Name {
		if err := ed.RenameColumn(ctx, o.Table, o.Old.Name, o.New.Name); err != nil {
			return err
		}
	}
	return ed.AlterColumn(ctx, o.Table, o.New)
}
func (o *AlterColumn) Down(ctx context.Context, ed *schema.Editor) error {
	if o.Old.Name != o.New.Name {
		if err := ed.RenameColumn(ctx, o.Table, o.New.Name, o.Old.Name); err != nil {
			return err
		}
	}
	return ed.AlterColumn(ctx, o.Table, o.Old)
}

// CreateView creates View on Up and drops it on Down.
type CreateView struct {
	View dialect.View
}

func (o *CreateView) Name() string { return "create_view:" + o.View.Name }
func (o *CreateView) Up(ctx context.Context, ed *schema.Editor) error {
	return ed.CreateView(ctx, o.View)
}
func (o *CreateView) Down(ctx context.Context, ed *schema.Editor) error {
	return ed.DropView(ctx, dialect.DropView{Name: o.View.Name, IfExists: true})
}

// DropView drops View on Up. Snapshot must carry the original
// definition so Down can recreate it.
type DropView struct {
	ViewName string
	Snapshot dialect.View
}

func (o *DropView) Name() string { return "drop_view:" + o.ViewName }
func (o *DropView) Up(ctx context.Context, ed *schema.Editor) error {
	return ed.DropView(ctx, dialect.DropView{Name: o.ViewName, IfExists: true})
}
func (o *DropView) Down(ctx context.Context, ed *schema.Editor) error {
	return ed.CreateView(ctx, o.Snapshot)
}

// CreateFunction creates Function on Up and drops it on Down.
// Unsupported on SQLite; the dialect surfaces that as errors.QueryError.
type CreateFunction struct {
	Function dialect.Function
}

func (o *CreateFunction) Name() string { return "create_function:" + o.Function.Name }
func (o *CreateFunction) Up(ctx context.Context, ed *schema.Editor) error {
	return ed.CreateFunction(ctx, o.Function)
}
func (o *CreateFunction) Down(ctx context.Context, ed *schema.Editor) error {
	return ed.DropFunction(ctx, dialect.DropFunction{Name: o.Function.Name, IfExists: true})
}

// CreateProcedure creates Procedure on Up and drops it on Down.
// Unsupported on SQLite; the dialect surfaces that as errors.QueryError.
type CreateProcedure struct {
	Procedure dialect.Procedure
}

func (o *CreateProcedure) Name() string { return "create_procedure:" + o.Procedure.Name }
func (o *CreateProcedure) Up(ctx context.Context, ed *schema.Editor) error {
	return ed.CreateProcedure(ctx, o.Procedure)
}
func (o *CreateProcedure) Down(ctx context.Context, ed *schema.Editor) error {
	return ed.DropProcedure(ctx, dialect.DropProcedure{Name: o.Procedure.Name, IfExists: true})
}

// CreateTrigger creates Trigger on Up and drops it on Down.
type CreateTrigger struct {
	Trigger dialect.Trigger
}

func (o *CreateTrigger) Name() string { return "create_trigger:" + o.Trigger.Name }
func (o *CreateTrigger) Up(ctx context.Context, ed *schema.Editor) error {
	return ed.CreateTrigger(ctx, o.Trigger)
}
func (o *CreateTrigger) Down(ctx context.Context, ed *schema.Editor) error {
	return ed.DropTrigger(ctx, dialect.DropTrigger{Name: o.Trigger.Name, IfExists: true})
}
