package bolt

import (
	"context"
	"database/sql/driver"
	"io"

	"github.com/mindstand/golang-bolt-driver/bolttx"
	"github.com/mindstand/golang-bolt-driver/internal/connpool"
	"github.com/mindstand/golang-bolt-driver/session"
)

// Conn is a Neo4j Bolt connection, backed by a session.Session.
//
// Conn objects, and any Rows/Tx/Stmt obtained from them, ARE NOT THREAD
// SAFE. If you want to use multiple goroutines, use a Driver to open a
// separate Conn per goroutine.
type Conn struct {
	sess   *session.Session
	closed bool
}

func newConn(pool *connpool.Pool) *Conn {
	return &Conn{sess: session.New(pool)}
}

// QueryNeo runs statement as an autocommit query and returns a lazily
// consumed Rows cursor.
func (c *Conn) QueryNeo(ctx context.Context, statement string, params map[string]interface{}) (*Rows, error) {
	stream, err := c.sess.Run(ctx, statement, params)
	if err != nil {
		return nil, err
	}
	return newRows(stream), nil
}

// ExecNeo runs statement as an autocommit query that returns no rows,
// consuming it fully and returning its summary as a Result.
func (c *Conn) ExecNeo(ctx context.Context, statement string, params map[string]interface{}) (Result, error) {
	stream, err := c.sess.Run(ctx, statement, params)
	if err != nil {
		return nil, err
	}
	if err := drain(stream); err != nil {
		return nil, err
	}
	return newResult(stream.Summary()), nil
}

// BeginNeo starts an explicit transaction in the given access mode ("r"
// or "w") against databaseName (empty selects the server's default
// database).
func (c *Conn) BeginNeo(ctx context.Context, mode, databaseName string) (*Tx, error) {
	txn, err := c.sess.BeginTransaction(ctx, mode, databaseName)
	if err != nil {
		return nil, err
	}
	return &Tx{txn: txn}, nil
}

// Begin implements database/sql/driver.Conn, starting a read-write
// transaction against the server's default database.
func (c *Conn) Begin() (driver.Tx, error) {
	return c.BeginNeo(context.Background(), "w", "")
}

// Prepare implements database/sql/driver.Conn. Neo4j has no server-side
// prepare, so this just captures the query text for later Exec/Query.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	if c.closed {
		return nil, driver.ErrBadConn
	}
	return &Stmt{conn: c, query: query}, nil
}

// Close releases the session's borrowed connection back to the pool, if
// any is held. Idempotent.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.sess.Close(context.Background())
}

// LastBookmark returns the most recently adopted bookmark for this
// connection's session, or empty if none has been issued yet.
func (c *Conn) LastBookmark() string {
	return c.sess.LastBookmark()
}

func drain(stream *bolttx.Stream) error {
	for {
		if _, err := stream.Next(); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
