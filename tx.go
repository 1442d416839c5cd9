package bolt

import "github.com/mindstand/golang-bolt-driver/bolttx"

// Tx represents an explicit transaction started by Conn.BeginNeo/Begin.
//
// Commit and Rollback both end the transaction outright - unlike
// bolttx.Transaction's Success/Failure-then-Dispose split, which
// session.Session uses internally to drive the autocommit pipeline,
// Tx's caller-facing surface only needs the two terminal actions a
// database/sql/driver.Tx exposes.
type Tx struct {
	txn *bolttx.Transaction
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.txn.Commit()
}

// Rollback rolls the transaction back.
func (t *Tx) Rollback() error {
	return t.txn.Rollback()
}

// RunNeo runs statement within the transaction, returning a lazily
// consumed Rows cursor.
func (t *Tx) RunNeo(statement string, params map[string]interface{}) (*Rows, error) {
	stream, err := t.txn.Run(statement, params)
	if err != nil {
		return nil, err
	}
	return newRows(stream), nil
}
