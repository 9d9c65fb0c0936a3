package driver

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oarkflow/squealx"
	"github.com/oarkflow/squealx/drivers/sqlite"

	ormerrors "github.com/oarkflow/orm/errors"
)

// SQLiteDriver wraps a single squealx connection to a SQLite file,
// grounded on migration/drivers/sqlite.go's ApplySQL transaction
// pattern, generalized to the full Driver surface.
type SQLiteDriver struct {
	db *squealx.DB
	tx *squealx.Tx
}

// NewSQLiteDriver opens dbPath and pings it once so construction
// fails fast on a bad path rather than on first use.
func NewSQLiteDriver(dbPath string) (*SQLiteDriver, error) {
	db, err := sqlite.Open(dbPath, "sqlite3")
	if err != nil {
		return nil, ormerrors.NewDatabaseError(fmt.Sprintf("opening sqlite database %q", dbPath), err)
	}
	if err := db.Ping(); err != nil {
		return nil, ormerrors.NewDatabaseError("pinging sqlite database", err)
	}
	return &SQLiteDriver{db: db}, nil
}

func (s *SQLiteDriver) DBMSName() string { return "sqlite3" }

func (s *SQLiteDriver) querier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
} {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// RunQuery omits a column from byName's map entirely when its value
// is SQL NULL, so callers populating a struct field can skip the
// assignment rather than writing an empty string over it.
func (s *SQLiteDriver) RunQuery(ctx context.Context, query string, byName func(map[string]string) error, byPosition func([]string) error) error {
	rows, err := s.querier().Query(query)
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

func (s *SQLiteDriver) RunQueryReturningID(ctx context.Context, query string) (string, error) {
	if err := s.Exec(ctx, query); err != nil {
		return "", err
	}
	var id string
	if err := s.RunQuery(ctx, "SELECT last_insert_rowid();", nil, func(row []string) error {
		if len(row) > 0 {
			id = row[0]
		}
		return nil
	}); err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLiteDriver) Exec(ctx context.Context, query string) error {
	var err error
	if s.tx != nil {
		_, err = s.tx.Exec(query)
	} else {
		_, err = s.db.Exec(query)
	}
	if err != nil {
		return ormerrors.NewSQLError(query, err)
	}
	return nil
}

func (s *SQLiteDriver) Begin(ctx context.Context) error {
	if s.tx != nil {
		return ormerrors.NewDatabaseError("sqlite: a transaction is already open on this connection", nil)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return ormerrors.NewDatabaseError("beginning sqlite transaction", err)
	}
	s.tx = tx
	return nil
}

func (s *SQLiteDriver) Commit(ctx context.Context) error {
	if s.tx == nil {
		return ormerrors.NewDatabaseError("sqlite: no transaction is open on this connection", nil)
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return ormerrors.NewDatabaseError("committing sqlite transaction", err)
	}
	return nil
}

func (s *SQLiteDriver) Rollback(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	if err != nil {
		return ormerrors.NewDatabaseError("rolling back sqlite transaction", err)
	}
	return nil
}

func (s *SQLiteDriver) Ping(ctx context.Context) error {
	if err := s.db.Ping(); err != nil {
		return ormerrors.NewDatabaseError("pinging sqlite database", err)
	}
	return nil
}

func (s *SQLiteDriver) Close() error {
	return s.db.Close()
}
