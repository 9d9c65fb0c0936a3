// Package driver defines the narrow contract the rest of this module
// needs from a concrete DBMS binding, and the two implementations
// built on github.com/oarkflow/squealx — the low-level SQLite/Postgres
// binding named as an external collaborator in spec.md §1.
package driver

import "context"

// Driver is implemented by SQLiteDriver and PostgresDriver. Every
// method takes a context so callers can bound how long they are
// willing to wait on the underlying network/file I/O; there is no
// cooperative cancellation inside the driver itself.
//
// Driver doubles as the pool's Connection type (spec.md §3): a Pool
// lends out exactly this interface, and at most one open transaction
// is permitted on a given value between Begin and Commit/Rollback —
// the driver does not guard against misuse from multiple goroutines,
// matching the "not required to be reentrant" contract from spec.md §3.
type Driver interface {
	DBMSName() string

	// RunQuery executes a read query and streams each result row to
	// the caller: byName receives the row as a column-name keyed map,
	// byPosition receives the same row as an ordered slice. Either may
	// be nil; RunQuery calls each non-nil handler for every row.
	RunQuery(ctx context.Context, sql string, byName func(map[string]string) error, byPosition func([]string) error) error

	// RunQueryReturningID executes sql (normally an INSERT) and
	// returns the newly generated primary key as its driver-native
	// string representation.
	RunQueryReturningID(ctx context.Context, sql string) (string, error)

	// Exec runs sql for its side effects only, e.g. DDL statements
	// issued by the schema editor.
	Exec(ctx context.Context, sql string) error

	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	Ping(ctx context.Context) error
	Close() error
}

// Connection is the name spec.md §3 uses for a pool-lent Driver. It is
// the same interface; the alias exists so pool.go can speak in the
// spec's vocabulary without a needless wrapper type.
type Connection = Driver
