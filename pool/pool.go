// Package pool bounds how many driver.Connections are open against a
// database at once, lending them out to callers and blocking new
// acquisitions once the bound is reached - the Go rendering of the
// teacher's DefaultSQLBackend connection pool (mutex + condition
// variable there, a buffered channel + mutex here; see DESIGN.md).
package pool

import (
	"context"
	"sync"

	"github.com/oarkflow/orm/driver"
	ormerrors "github.com/oarkflow/orm/errors"
)

// Factory builds one new driver.Connection. Pool calls it exactly
// Size times, up front, at construction.
type Factory func() (driver.Connection, error)

// Pool lends out driver.Connection values, blocking Acquire callers
// once every connection is checked out. Connections are not safe for
// concurrent use; a connection is held exclusively between Acquire
// and Release, matching spec.md §5.
type Pool struct {
	size  int
	conns chan driver.Connection

	mu     sync.Mutex
	closed bool
}

// New eagerly builds size connections via factory and returns a Pool
// ready to lend them out. If factory fails partway through, every
// connection already opened is closed before the error is returned.
func New(size int, factory Factory) (*Pool, error) {
	if size < 1 {
		return nil, ormerrors.NewValueError("pool size must be greater than zero")
	}
	if factory == nil {
		return nil, ormerrors.NewValueError("pool: connection factory must not be nil")
	}

	p := &Pool{size: size, conns: make(chan driver.Connection, size)}
	for i := 0; i < size; i++ {
		conn, err := factory()
		if err != nil {
			p.Close()
			return nil, ormerrors.WrapDatabaseError("pool: building connection", err)
		}
		p.conns <- conn
	}
	return p, nil
}

// Size returns the pool's fixed capacity.
func (p *Pool) Size() int { return p.size }

// Acquire blocks until a connection is free or ctx is done, whichever
// comes first - the idiomatic Go rendering of spec.md §9 open
// question (a): a caller wanting a bounded wait passes a context with
// a deadline rather than calling a separate "try acquire" variant.
func (p *Pool) Acquire(ctx context.Context) (driver.Connection, error) {
	select {
	case conn, ok := <-p.conns:
		if !ok {
			return nil, ormerrors.NewDatabaseError("pool: pool is closed", nil)
		}
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns conn to the pool. Releasing a connection not
// obtained from this Pool, or releasing nil, is a caller error this
// method does not attempt to detect.
func (p *Pool) Release(conn driver.Connection) {
	if conn == nil {
		return
	}
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		conn.Close()
		return
	}
	p.conns <- conn
}

// Close closes every connection currently checked into the pool and
// marks it closed; connections checked out at the time of Close are
// closed as they are Released instead of being returned to the pool.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.conns)
	var firstErr error
	for conn := range p.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
