package bolt

import (
	"context"
	"database/sql/driver"
	"strconv"

	"github.com/mindstand/golang-bolt-driver/errors"
)

// Stmt is a prepared statement tied to a query string. Neo4j has no
// server-side prepare, so this only captures the text and re-runs it on
// every Exec/Query call, same as the teacher's boltStmt did.
type Stmt struct {
	conn   *Conn
	query  string
	closed bool
}

// Close marks the statement closed. Idempotent.
func (s *Stmt) Close() error {
	s.closed = true
	return nil
}

// NumInput always returns -1: parameters are bound by name in a
// map[string]interface{}, not positionally, so the sql/driver parameter
// count check doesn't apply here.
func (s *Stmt) NumInput() int {
	return -1
}

// Exec implements database/sql/driver.Stmt.
func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	if s.closed {
		return nil, errors.NewClient("statement already closed")
	}
	return s.conn.ExecNeo(context.Background(), s.query, driverArgsToMap(args))
}

// Query implements database/sql/driver.Stmt.
func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	if s.closed {
		return nil, errors.NewClient("statement already closed")
	}
	return s.conn.QueryNeo(context.Background(), s.query, driverArgsToMap(args))
}

// ExecNeo executes params against the statement's query, returning the
// Neo4j-friendly Result instead of a driver.Result.
func (s *Stmt) ExecNeo(params map[string]interface{}) (Result, error) {
	if s.closed {
		return nil, errors.NewClient("statement already closed")
	}
	return s.conn.ExecNeo(context.Background(), s.query, params)
}

// QueryNeo executes params against the statement's query, returning a
// Rows cursor.
func (s *Stmt) QueryNeo(params map[string]interface{}) (*Rows, error) {
	if s.closed {
		return nil, errors.NewClient("statement already closed")
	}
	return s.conn.QueryNeo(context.Background(), s.query, params)
}

// driverArgsToMap turns positional sql/driver args into the named
// parameter map Neo4j expects, keyed by position ("0", "1", ...), since
// database/sql/driver has no concept of named parameters of its own.
func driverArgsToMap(args []driver.Value) map[string]interface{} {
	params := make(map[string]interface{}, len(args))
	for i, v := range args {
		params[strconv.Itoa(i)] = v
	}
	return params
}
