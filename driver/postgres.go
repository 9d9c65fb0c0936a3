package driver

import (
	"context"
	"database/sql"

	"github.com/oarkflow/squealx"
	"github.com/oarkflow/squealx/drivers/postgres"

	ormerrors "github.com/oarkflow/orm/errors"
)

// PostgresDriver wraps a single squealx connection to a Postgres
// server, grounded on migration/drivers/postgres.go's ApplySQL
// transaction pattern, generalized to the full Driver surface.
type PostgresDriver struct {
	db *squealx.DB
	tx *squealx.Tx
}

// NewPostgresDriver opens dsn and pings it once so construction fails
// fast on bad credentials rather than on first use.
func NewPostgresDriver(dsn string) (*PostgresDriver, error) {
	db, err := postgres.Open(dsn, "postgres")
	if err != nil {
		return nil, ormerrors.NewDatabaseError("opening postgres connection", err)
	}
	if err := db.Ping(); err != nil {
		return nil, ormerrors.NewDatabaseError("pinging postgres database", err)
	}
	return &PostgresDriver{db: db}, nil
}

func (p *PostgresDriver) DBMSName() string { return "postgresql" }

func (p *PostgresDriver) querier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
} {
	if p.tx != nil {
		return p.tx
	}
	return p.db
}

// RunQuery omits a column from byName's map entirely when its value
// is SQL NULL, so callers populating a struct field can skip the
// assignment rather than writing an empty string over it.
func (p *PostgresDriver) RunQuery(ctx context.Context, query string, byName func(map[string]string) error, byPosition func([]string) error) error {
	rows, err := p.querier().Query(query)
	if err != nil {
		return ormerrors.NewSQLError(query, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return ormerrors.NewSQLError(query, err)
	}
	raw := make([]sql.NullString, len(cols))
	scanDest := make([]any, len(cols))
	for i := range raw {
		scanDest[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(scanDest...); err != nil {
			return ormerrors.NewSQLError(query, err)
		}
		values := make([]string, len(cols))
		byCol := make(map[string]string, len(cols))
		for i, c := range cols {
			values[i] = raw[i].String
			if raw[i].Valid {
				byCol[c] = raw[i].String
			}
		}
		if byPosition != nil {
			if err := byPosition(values); err != nil {
				return err
			}
		}
		if byName != nil {
			if err := byName(byCol); err != nil {
				return err
			}
		}
	}
	return rows.Err()
}

func (p *PostgresDriver) RunQueryReturningID(ctx context.Context, query string) (string, error) {
	var id string
	err := p.RunQuery(ctx, query, nil, func(row []string) error {
		if len(row) > 0 {
			id = row[0]
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *PostgresDriver) Exec(ctx context.Context, query string) error {
	var err error
	if p.tx != nil {
		_, err = p.tx.Exec(query)
	} else {
		_, err = p.db.Exec(query)
	}
	if err != nil {
		return ormerrors.NewSQLError(query, err)
	}
	return nil
}

func (p *PostgresDriver) Begin(ctx context.Context) error {
	if p.tx != nil {
		return ormerrors.NewDatabaseError("postgres: a transaction is already open on this connection", nil)
	}
	tx, err := p.db.Begin()
	if err != nil {
		return ormerrors.NewDatabaseError("beginning postgres transaction", err)
	}
	p.tx = tx
	return nil
}

func (p *PostgresDriver) Commit(ctx context.Context) error {
	if p.tx == nil {
		return ormerrors.NewDatabaseError("postgres: no transaction is open on this connection", nil)
	}
	err := p.tx.Commit()
	p.tx = nil
	if err != nil {
		return ormerrors.NewDatabaseError("committing postgres transaction", err)
	}
	return nil
}

func (p *PostgresDriver) Rollback(ctx context.Context) error {
	if p.tx == nil {
		return nil
	}
	err := p.tx.Rollback()
	p.tx = nil
	if err != nil {
		return ormerrors.NewDatabaseError("rolling back postgres transaction", err)
	}
	return nil
}

func (p *PostgresDriver) Ping(ctx context.Context) error {
	if err := p.db.Ping(); err != nil {
		return ormerrors.NewDatabaseError("pinging postgres database", err)
	}
	return nil
}

func (p *PostgresDriver) Close() error {
	return p.db.Close()
}

// DB exposes the underlying squealx handle for callers that need
// driver-specific functionality beyond the Driver contract, matching
// the teacher's own PostgresDriver.DB() accessor.
func (p *PostgresDriver) DB() *squealx.DB {
	return p.db
}
