package pool

import (
	"context"

	"github.com/oarkflow/orm/driver"
	"github.com/oarkflow/orm/model"
	"github.com/oarkflow/orm/query"
)

// Repository lazily acquires a connection from a Pool on first use and
// holds onto it for the lifetime of the Repository, releasing it back
// on Close - the Go rendering of the teacher's Repository, which
// acquires from DefaultSQLBackend on first query and releases on
// destruction.
type Repository struct {
	pool *Pool
	conn driver.Connection
}

// NewRepository returns a Repository drawing connections from p. No
// connection is acquired until the first query is built.
func NewRepository(p *Pool) *Repository {
	return &Repository{pool: p}
}

// Conn returns the connection this Repository holds, acquiring one
// from the pool first if it does not already hold one.
func (r *Repository) Conn(ctx context.Context) (driver.Connection, error) {
	if r.conn == nil {
		conn, err := r.pool.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		r.conn = conn
	}
	return r.conn, nil
}

// Close releases the held connection back to the pool, if one was
// acquired. Safe to call more than once.
func (r *Repository) Close() {
	if r.conn != nil {
		r.pool.Release(r.conn)
		r.conn = nil
	}
}

// Select returns a query.Select[M] bound to this Repository's
// connection, acquiring one if needed.
func Select[M model.Record](ctx context.Context, r *Repository) (*query.Select[M], error) {
	conn, err := r.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return query.NewSelect[M](conn), nil
}

// Insert returns a query.Insert[M] bound to this Repository's
// connection, acquiring one if needed.
func Insert[M model.Record](ctx context.Context, r *Repository) (*query.Insert[M], error) {
	conn, err := r.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return query.NewInsert[M](conn), nil
}

// Update returns a query.Update[M] bound to this Repository's
// connection, acquiring one if needed.
func Update[M model.Record](ctx context.Context, r *Repository) (*query.Update[M], error) {
	conn, err := r.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return query.NewUpdate[M](conn), nil
}

// Delete returns a query.Delete[M] bound to this Repository's
// connection, acquiring one if needed.
func Delete[M model.Record](ctx context.Context, r *Repository) (*query.Delete[M], error) {
	conn, err := r.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return query.NewDelete[M](conn), nil
}

// Transaction begins a Transaction over this Repository's connection,
// acquiring one if needed. The Repository must not be used again
// until the Transaction is closed.
func (r *Repository) Transaction(ctx context.Context) (*Transaction, error) {
	conn, err := r.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return beginTransaction(ctx, conn, nil)
}
