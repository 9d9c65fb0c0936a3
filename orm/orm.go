// Package orm is the top-level facade wiring config, pool, dialect
// and driver together into one handle callers open once per named
// database and use for the rest of a process's life - grounded on
// original_source/src/client.h's Client, thinned the way spec.md §1
// asks: load config, open pool, apply/rollback migrations, hand back
// a connection for query.* construction.
package orm

import (
	"context"
	"fmt"

	"github.com/oarkflow/orm/config"
	"github.com/oarkflow/orm/dialect"
	"github.com/oarkflow/orm/driver"
	ormerrors "github.com/oarkflow/orm/errors"
	"github.com/oarkflow/orm/migrate"
	"github.com/oarkflow/orm/pool"
	"github.com/oarkflow/orm/schema"
	"github.com/oarkflow/orm/state"
)

// DB is one configured, pooled connection to a single named database.
// The zero value is not usable; build one with Open.
type DB struct {
	Name    string
	Dialect dialect.Dialect
	Pool    *pool.Pool
	Project *state.Project
	Editor  *schema.Editor

	// editorConn is permanently checked out of Pool for Editor's own
	// use; schema.Editor holds a single fixed connection rather than
	// acquiring one per call, so one slot of Pool's capacity is
	// reserved for it for the DB's whole lifetime.
	editorConn driver.Connection
}

// Open loads configPath, finds the entry named name, builds the
// dialect + a connection pool sized by its "connections" setting, and
// returns a ready-to-use DB. The returned Project starts empty; apply
// migrations describing the schema (through Migrator) before relying
// on Editor's tracked state.
func Open(ctx context.Context, configPath, name string) (*DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	entry, err := cfg.Lookup(name)
	if err != nil {
		return nil, err
	}

	var dialectName dialect.Name
	var factory pool.Factory
	var poolSize int

	switch {
	case entry.SQLite != nil:
		dialectName = dialect.SQLite
		poolSize = entry.SQLite.Connections
		file := entry.SQLite.File
		factory = func() (driver.Connection, error) { return driver.NewSQLiteDriver(file) }
	case entry.Postgres != nil:
		dialectName = dialect.Postgres
		poolSize = entry.Postgres.Connections
		dsn := postgresDSN(entry.Postgres)
		factory = func() (driver.Connection, error) { return driver.NewPostgresDriver(dsn) }
	default:
		return nil, ormerrors.NewValueError(fmt.Sprintf("database %q has no recognized driver configuration", name))
	}

	d, err := dialect.Get(dialectName)
	if err != nil {
		return nil, err
	}
	p, err := pool.New(poolSize, factory)
	if err != nil {
		return nil, err
	}

	project := state.NewProject()
	conn, err := p.Acquire(ctx)
	if err != nil {
		p.Close()
		return nil, err
	}

	editor := schema.New(project, d, conn)
	return &DB{Name: name, Dialect: d, Pool: p, Project: project, Editor: editor, editorConn: conn}, nil
}

func postgresDSN(pc *config.PostgresConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		pc.Host, pc.Port, pc.User, pc.Password, pc.Name)
}

// Close closes every pooled connection, including the one reserved
// for Editor.
func (db *DB) Close() error {
	db.Pool.Release(db.editorConn)
	return db.Pool.Close()
}

// Begin starts a pool.Transaction, acquiring a connection from db's
// pool. Callers must `defer tx.Close(ctx)` immediately.
func (db *DB) Begin(ctx context.Context) (*pool.Transaction, error) {
	return pool.Begin(ctx, db.Pool)
}

// Repository returns a lazily-connecting pool.Repository drawing from
// db's pool.
func (db *DB) Repository() *pool.Repository { return pool.NewRepository(db.Pool) }

// Migrator builds a migrate.Executor over db's editor and its
// reserved connection, bookkeeping against lockPath, ready to
// Apply/Rollback migrations.
func (db *DB) Migrator(migrations []*migrate.Migration, lockPath string) *migrate.Executor {
	return migrate.NewExecutor(db.Editor, db.editorConn, migrations, lockPath)
}
