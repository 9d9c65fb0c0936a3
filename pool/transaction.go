package pool

import (
	"context"

	"github.com/oarkflow/orm/driver"
	"github.com/oarkflow/orm/model"
	"github.com/oarkflow/orm/query"
)

// Transaction wraps a single driver.Connection between Begin and
// Commit/Rollback, grounded on the teacher's Transaction: it begins
// immediately at construction and rolls back automatically on Close
// unless Commit or Rollback already ran - the Go rendering of the
// teacher's begin-on-construction/rollback-on-destruction pattern,
// since Go has no destructors to rely on instead.
type Transaction struct {
	conn driver.Connection
	pool *Pool
	done bool
}

// Begin acquires a connection from p and starts a transaction on it.
func Begin(ctx context.Context, p *Pool) (*Transaction, error) {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return beginTransaction(ctx, conn, p)
}

func beginTransaction(ctx context.Context, conn driver.Connection, p *Pool) (*Transaction, error) {
	if err := conn.Begin(ctx); err != nil {
		if p != nil {
			p.Release(conn)
		}
		return nil, err
	}
	return &Transaction{conn: conn, pool: p}, nil
}

// Conn returns the connection this transaction is running on.
func (tx *Transaction) Conn() driver.Connection { return tx.conn }

// Commit commits the transaction and releases the connection back to
// the pool it came from, if any. A second call is a no-op.
func (tx *Transaction) Commit(ctx context.Context) error {
	if tx.done {
		return nil
	}
	tx.done = true
	err := tx.conn.Commit(ctx)
	if tx.pool != nil {
		tx.pool.Release(tx.conn)
	}
	return err
}

// Rollback rolls back the transaction and releases the connection.
// A second call, or a call after Commit, is a no-op.
func (tx *Transaction) Rollback(ctx context.Context) error {
	if tx.done {
		return nil
	}
	tx.done = true
	err := tx.conn.Rollback(ctx)
	if tx.pool != nil {
		tx.pool.Release(tx.conn)
	}
	return err
}

// Close rolls back the transaction if neither Commit nor Rollback has
// already run. Callers are expected to `defer tx.Close(ctx)` right
// after Begin, matching spec.md §4.5.
func (tx *Transaction) Close(ctx context.Context) error {
	if tx.done {
		return nil
	}
	return tx.Rollback(ctx)
}

// TxSelect returns a query.Select[M] bound to this transaction's
// connection.
func TxSelect[M model.Record](tx *Transaction) *query.Select[M] {
	return query.NewSelect[M](tx.conn)
}

// TxInsert returns a query.Insert[M] bound to this transaction's
// connection.
func TxInsert[M model.Record](tx *Transaction) *query.Insert[M] {
	return query.NewInsert[M](tx.conn)
}

// TxUpdate returns a query.Update[M] bound to this transaction's
// connection.
func TxUpdate[M model.Record](tx *Transaction) *query.Update[M] {
	return query.NewUpdate[M](tx.conn)
}

// TxDelete returns a query.Delete[M] bound to this transaction's
// connection.
func TxDelete[M model.Record](tx *Transaction) *query.Delete[M] {
	return query.NewDelete[M](tx.conn)
}
