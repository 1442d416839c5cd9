// Package session implements the user-visible session of spec §4.8: it
// serialises requests onto one borrowed connection, holds at most one
// live transaction at a time, and tracks the last-known bookmark across
// transactions.
//
// Grounded in the teacher's tx.go/driver.go connection-per-operation
// model, generalized to the explicit BEGIN/RUN/COMMIT pipeline bolttx
// implements instead of the teacher's literal-Cypher COMMIT/ROLLBACK.
package session

import (
	"context"

	"github.com/mindstand/golang-bolt-driver/bolttx"
	"github.com/mindstand/golang-bolt-driver/errors"
	"github.com/mindstand/golang-bolt-driver/internal/connpool"
)

// Session serialises one caller's requests onto one borrowed connection
// at a time. Not safe for concurrent use - the caller must not issue
// overlapping operations on the same session (spec §5).
type Session struct {
	pool     *connpool.Pool
	bookmark string
	closed   bool

	conn *connpool.PooledConnection
	tx   *bolttx.Transaction
}

// New creates a Session that borrows connections from pool as needed.
func New(pool *connpool.Pool) *Session {
	return &Session{pool: pool}
}

// LastBookmark returns the most recently adopted bookmark, or empty if
// none has been issued yet.
func (s *Session) LastBookmark() string {
	return s.bookmark
}

// BeginTransaction acquires a connection and starts an explicit
// transaction, passing the session's current bookmark to BEGIN.
func (s *Session) BeginTransaction(ctx context.Context, mode, databaseName string) (*bolttx.Transaction, error) {
	if s.closed {
		return nil, errors.NewClient("cannot begin transaction: session is closed")
	}
	if s.tx != nil {
		return nil, errors.NewClient("session already has a live transaction")
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	cfg := bolttx.Config{Mode: mode, DatabaseName: databaseName}
	if s.bookmark != "" {
		cfg.Bookmarks = []string{s.bookmark}
	}

	tx := bolttx.New(conn.Engine, s.onTxDispose(ctx, conn))
	if err := tx.Begin(cfg); err != nil {
		_ = s.pool.Release(ctx, conn)
		return nil, err
	}

	s.conn = conn
	s.tx = tx
	return tx, nil
}

func (s *Session) onTxDispose(ctx context.Context, conn *connpool.PooledConnection) bolttx.ResourceHandler {
	return func(bookmark string) {
		if bookmark != "" {
			s.bookmark = bookmark
		}
		s.tx = nil
		s.conn = nil
		_ = s.pool.Release(ctx, conn)
	}
}

// Run executes an autocommit statement: spec §4.8 defines this as a
// transient transaction that pipelines BEGIN+RUN as one round trip via
// bolttx.Transaction.BeginAndRun, followed by a COMMIT round trip when
// RUN succeeded. A failed RUN marks the transient transaction
// MarkedToClose instead of committing, and Dispose then sends nothing
// further, matching the explicit-transaction Dispose rules.
func (s *Session) Run(ctx context.Context, statement string, params map[string]interface{}) (*bolttx.Stream, error) {
	if s.closed {
		return nil, errors.NewClient("cannot run: session is closed")
	}
	if s.tx != nil {
		return nil, errors.NewClient("cannot run autocommit statement: session has a live explicit transaction")
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	cfg := bolttx.Config{Mode: "w"}
	if s.bookmark != "" {
		cfg.Bookmarks = []string{s.bookmark}
	}

	tx := bolttx.New(conn.Engine, s.onTxDispose(ctx, conn))
	stream, err := tx.BeginAndRun(cfg, statement, params)
	if err != nil {
		_ = s.pool.Release(ctx, conn)
		return nil, err
	}

	// Success is a no-op if RUN already marked the transaction
	// MarkedToClose; Dispose then just notifies the resource handler
	// with no further wire traffic, per the explicit-transaction rules.
	tx.Success()
	if err := tx.Dispose(); err != nil {
		return nil, err
	}
	return stream, nil
}

// Close disposes any live transaction and releases the session's
// borrowed connection, if any. Idempotent.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.tx != nil {
		s.tx.Failure()
		return s.tx.Dispose()
	}
	return nil
}
