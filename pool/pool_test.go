package pool

import (
	"context"
	"testing"
	"time"

	"github.com/oarkflow/orm/driver"
)

type fakeConn struct {
	id     int
	closed bool
	begun  bool
}

func (f *fakeConn) DBMSName() string { return "fake" }
func (f *fakeConn) RunQuery(ctx context.Context, sql string, byName func(map[string]string) error, byPosition func([]string) error) error {
	return nil
}
func (f *fakeConn) RunQueryReturningID(ctx context.Context, sql string) (string, error) { return "1", nil }
func (f *fakeConn) Exec(ctx context.Context, sql string) error                          { return nil }
func (f *fakeConn) Begin(ctx context.Context) error                                     { f.begun = true; return nil }
func (f *fakeConn) Commit(ctx context.Context) error                                    { f.begun = false; return nil }
func (f *fakeConn) Rollback(ctx context.Context) error                                  { f.begun = false; return nil }
func (f *fakeConn) Ping(ctx context.Context) error                                      { return nil }
func (f *fakeConn) Close() error                                                        { f.closed = true; return nil }

var _ driver.Connection = (*fakeConn)(nil)

func newTestPool(t *testing.T, size int) *Pool {
	t.Helper()
	n := 0
	p, err := New(size, func() (driver.Connection, error) {
		n++
		return &fakeConn{id: n}, nil
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestPoolAcquireReleaseRoundTrips(t *testing.T) {
	p := newTestPool(t, 2)
	ctx := context.Background()

	c1, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	c2, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if c1 == c2 {
		t.Fatalf("expected two distinct connections")
	}
	p.Release(c1)
	p.Release(c2)
}

func TestPoolAcquireBlocksWhenExhausted(t *testing.T) {
	p := newTestPool(t, 1)
	ctx := context.Background()

	conn, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := p.Acquire(timeoutCtx); err == nil {
		t.Fatalf("expected Acquire to block until context deadline when pool is exhausted")
	}

	p.Release(conn)
	conn2, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	p.Release(conn2)
}

func TestPoolCloseClosesIdleConnections(t *testing.T) {
	p := newTestPool(t, 2)
	ctx := context.Background()
	conn, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	p.Release(conn)

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !conn.(*fakeConn).closed {
		t.Fatalf("expected idle connection to be closed")
	}
}

func TestRepositoryLazilyAcquiresAndReleasesOnClose(t *testing.T) {
	p := newTestPool(t, 1)
	ctx := context.Background()
	repo := NewRepository(p)

	conn, err := repo.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	if conn == nil {
		t.Fatalf("expected a connection")
	}

	// Pool is now exhausted; a second Acquire should block/fail until
	// the Repository releases its connection.
	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if _, err := p.Acquire(timeoutCtx); err == nil {
		t.Fatalf("expected pool to be exhausted while Repository holds its connection")
	}

	repo.Close()
	if _, err := p.Acquire(ctx); err != nil {
		t.Fatalf("expected Acquire to succeed after Repository.Close: %v", err)
	}
}

func TestTransactionCloseRollsBackUnlessCommitted(t *testing.T) {
	p := newTestPool(t, 1)
	ctx := context.Background()

	tx, err := Begin(ctx, p)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !tx.conn.(*fakeConn).begun {
		t.Fatalf("expected Begin to have been called on the underlying connection")
	}
	if err := tx.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if tx.conn.(*fakeConn).begun {
		t.Fatalf("expected Close to roll back an uncommitted transaction")
	}

	// The connection should have been released back to the pool.
	if _, err := p.Acquire(ctx); err != nil {
		t.Fatalf("expected connection released after Close: %v", err)
	}
}

func TestTransactionCommitThenCloseIsNoop(t *testing.T) {
	p := newTestPool(t, 1)
	ctx := context.Background()

	tx, err := Begin(ctx, p)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := tx.Close(ctx); err != nil {
		t.Fatalf("Close after Commit: %v", err)
	}
}
