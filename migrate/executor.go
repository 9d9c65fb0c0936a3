package migrate

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/oarkflow/orm/driver"
	ormerrors "github.com/oarkflow/orm/errors"
	"github.com/oarkflow/orm/schema"
)

// Executor runs a fixed, sorted set of Migrations against a database,
// recording progress via the standard log package the way the
// teacher's own migration package does - no structured logging
// library appears anywhere in that package's imports either (see
// DESIGN.md).
//
// Callers are expected to hold the connection Recorder and the
// migrations' editor run against for the whole Apply/Rollback call,
// typically one connection reserved up front and shared with the
// schema.Editor - Executor itself does not manage pool lifetime. That
// connection must not already be inside a transaction, since Executor
// calls its Begin itself. Each migration's operations
// and its bookkeeping record are wrapped in conn's own Begin/Commit/
// Rollback around exactly that migration, so a failure partway
// through leaves the database exactly as it was before the migration
// started, matching original_source/src/db/migration.cpp's
// run_transaction wrapping of apply/rollback.
type Executor struct {
	Recorder   *Recorder
	Migrations []*Migration
	LockPath   string
	conn       driver.Connection
}

// NewExecutor sorts migrations by ID (the same lexicographic order
// NewMigrationID's timestamp prefix guarantees) and binds an executor
// to conn for bookkeeping reads/writes and per-migration transactions.
func NewExecutor(editor *schema.Editor, conn driver.Connection, migrations []*Migration, lockPath string) *Executor {
	sorted := append([]*Migration(nil), migrations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return &Executor{
		Recorder:   NewRecorder(editor, conn),
		Migrations: sorted,
		LockPath:   lockPath,
		conn:       conn,
	}
}

// runInTransaction begins a transaction on e.conn, runs body, and
// commits on success or rolls back on any error body returns -
// exactly the span a single migration's Up/Down operations plus its
// bookkeeping record must share so the two can never diverge.
func (e *Executor) runInTransaction(ctx context.Context, body func() error) error {
	if err := e.conn.Begin(ctx); err != nil {
		return ormerrors.WrapMigrationsError("beginning migration transaction", err)
	}
	if err := body(); err != nil {
		if rbErr := e.conn.Rollback(ctx); rbErr != nil {
			log.Printf(" rollback also failed: %v", rbErr)
		}
		return err
	}
	if err := e.conn.Commit(ctx); err != nil {
		return ormerrors.WrapMigrationsError("committing migration transaction", err)
	}
	return nil
}

// checkConsistency walks e.Migrations and the applied records (sorted
// by application order, i.e. AppliedRecord.ID) in lockstep, failing on
// the first position whose applied name doesn't match the expected
// migration ID - catching a migration reordered or swapped out for a
// same-length set of differently-named migrations, not just a length
// mismatch.
func (e *Executor) checkConsistency(op string, applied map[string]AppliedRecord) error {
	if len(applied) > len(e.Migrations) {
		return ormerrors.NewMigrationsError(fmt.Sprintf(
			"%s: detected inconsistency - you must roll back migrations before deleting them", op))
	}
	ordered := make([]AppliedRecord, 0, len(applied))
	for _, rec := range applied {
		ordered = append(ordered, rec)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	for i, rec := range ordered {
		if e.Migrations[i].ID != rec.Name {
			return ormerrors.NewMigrationsError(fmt.Sprintf(
				"%s: detected inconsistency - expected migration %q at position %d but found applied migration %q",
				op, e.Migrations[i].ID, i, rec.Name))
		}
	}
	return nil
}

// Apply runs every migration not yet recorded as applied, in order,
// stopping at toMigration if non-empty (inclusive). Each migration's
// checksum is verified against any existing record with the same name
// before anything is skipped, refusing to silently re-trust a
// migration file whose content changed underneath an applied record.
func (e *Executor) Apply(ctx context.Context, editor *schema.Editor, toMigration string) error {
	lock, err := acquireLock(e.LockPath)
	if err != nil {
		return err
	}
	defer releaseLock(lock, e.LockPath)

	if err := e.Recorder.EnsureSchema(ctx); err != nil {
		return err
	}
	applied, err := e.Recorder.AppliedMigrations(ctx)
	if err != nil {
		return err
	}
	if err := e.checkConsistency("apply", applied); err != nil {
		return err
	}

	for _, rec := range applied {
		if m := e.find(rec.Name); m != nil && m.Checksum() != rec.Checksum {
			return ormerrors.NewMigrationsError(fmt.Sprintf(
				"migration %q has already been applied but its checksum changed on disk;"+
					" this usually means an applied migration file was edited after the fact", rec.Name))
		}
	}

	log.Println("Apply migrations:")
	if len(applied) == len(e.Migrations) {
		log.Println(" No migrations to apply.")
		return nil
	}

	for _, m := range e.Migrations {
		if _, done := applied[m.ID]; done {
			if toMigration != "" && m.ID == toMigration {
				break
			}
			continue
		}
		log.Printf(" Applying %q...", m.ID)
		err := e.runInTransaction(ctx, func() error {
			for _, op := range m.Operations {
				if err := op.Up(ctx, editor); err != nil {
					return ormerrors.WrapMigrationsError(fmt.Sprintf("applying migration %q, operation %q", m.ID, op.Name()), err)
				}
			}
			return e.Recorder.RecordApplied(ctx, m.ID, m.Checksum())
		})
		if err != nil {
			log.Printf(" FAILED: %v", err)
			return err
		}
		log.Println(" DONE")
		if toMigration != "" && m.ID == toMigration {
			break
		}
	}
	return nil
}

// Rollback reverses every applied migration back to, but not
// including, toMigration (or all of them, newest first, when empty).
func (e *Executor) Rollback(ctx context.Context, editor *schema.Editor, toMigration string) error {
	lock, err := acquireLock(e.LockPath)
	if err != nil {
		return err
	}
	defer releaseLock(lock, e.LockPath)

	applied, err := e.Recorder.AppliedMigrations(ctx)
	if err != nil {
		return err
	}
	if err := e.checkConsistency("rollback", applied); err != nil {
		return err
	}

	log.Println("Rollback migrations:")
	var toRun []*Migration
	for _, m := range e.Migrations {
		if _, done := applied[m.ID]; done {
			toRun = append(toRun, m)
		}
	}
	if len(toRun) == 0 {
		log.Println(" No migrations to roll back.")
		return nil
	}

	rolledBackAny := false
	for i := len(toRun) - 1; i >= 0; i-- {
		m := toRun[i]
		if toMigration != "" && m.ID == toMigration {
			break
		}
		rolledBackAny = true
		log.Printf(" Rolling back %q...", m.ID)
		err := e.runInTransaction(ctx, func() error {
			for j := len(m.Operations) - 1; j >= 0; j-- {
				if err := m.Operations[j].Down(ctx, editor); err != nil {
					return ormerrors.WrapMigrationsError(fmt.Sprintf("rolling back migration %q, operation %q", m.ID, m.Operations[j].Name()), err)
				}
			}
			return e.Recorder.RecordRolledBack(ctx, m.ID)
		})
		if err != nil {
			log.Printf(" FAILED: %v", err)
			return err
		}
		log.Println(" DONE")
	}
	if !rolledBackAny {
		log.Println(" No migrations to roll back.")
	}
	return nil
}

func (e *Executor) find(id string) *Migration {
	for _, m := range e.Migrations {
		if m.ID == id {
			return m
		}
	}
	return nil
}
