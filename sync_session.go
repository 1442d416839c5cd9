package bolt

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// SyncSession is the synchronous façade over the asynchronous message
// engine that spec §9 describes: callers get ordinary blocking calls
// while at most one request is ever in flight against the underlying
// Conn at a time.
//
// A semaphore.Weighted with a single permit enforces spec §5's "never
// two reads or two writes in flight on one connection at once" at this
// layer; a caller whose context is cancelled while waiting for the
// permit returns at once. errgroup.Group runs the request as a task with
// a context derived from the caller's; that context is consulted when
// the session acquires a pooled connection, and Run/ExecNeo return only
// after the task has finished, so a cancellation does not interrupt a
// request that is already waiting on the wire.
type SyncSession struct {
	conn *Conn
	sem  *semaphore.Weighted
}

// NewSyncSession wraps conn with single-flight, cancellation-aware
// request dispatch.
func NewSyncSession(conn *Conn) *SyncSession {
	return &SyncSession{conn: conn, sem: semaphore.NewWeighted(1)}
}

// Run executes statement as a cancellable, single-flight autocommit
// query.
func (s *SyncSession) Run(ctx context.Context, statement string, params map[string]interface{}) (*Rows, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	g, gctx := errgroup.WithContext(ctx)
	var rows *Rows
	g.Go(func() error {
		r, err := s.conn.QueryNeo(gctx, statement, params)
		rows = r
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// ExecNeo executes statement as a cancellable, single-flight autocommit
// statement that returns no rows.
func (s *SyncSession) ExecNeo(ctx context.Context, statement string, params map[string]interface{}) (Result, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	g, gctx := errgroup.WithContext(ctx)
	var result Result
	g.Go(func() error {
		r, err := s.conn.ExecNeo(gctx, statement, params)
		result = r
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
