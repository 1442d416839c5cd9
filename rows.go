package bolt

import (
	"database/sql/driver"
	"io"

	"github.com/mindstand/golang-bolt-driver/bolttx"
)

// Rows is a lazily-consumed result cursor over a bolttx.Stream.
//
// Implements database/sql/driver.Rows, but also exposes its own more
// Neo4j-friendly interface (NextNeo, All) since the sql/driver Value
// type can't represent graph values like nodes or paths.
//
// Row objects ARE NOT THREAD SAFE.
type Rows struct {
	stream *bolttx.Stream
	closed bool
}

func newRows(stream *bolttx.Stream) *Rows {
	return &Rows{stream: stream}
}

// Columns returns the result's column names.
func (r *Rows) Columns() []string {
	return r.stream.Keys()
}

// Close closes the cursor. The underlying records were already fetched
// by the RUN/PULL_ALL pipeline that produced the stream, so this never
// touches the wire - unlike the teacher's boltRows.Close, which released
// a statement still awaiting its own PULL_ALL.
func (r *Rows) Close() error {
	r.closed = true
	return nil
}

// Next implements database/sql/driver.Rows.
func (r *Rows) Next(dest []driver.Value) error {
	fields, err := r.NextNeo()
	if err != nil {
		return err
	}
	for i := range dest {
		if i < len(fields) {
			dest[i] = fields[i]
		}
	}
	return nil
}

// NextNeo returns the next record's fields, or io.EOF once the cursor is
// exhausted.
func (r *Rows) NextNeo() ([]interface{}, error) {
	if r.closed {
		return nil, io.EOF
	}
	return r.stream.Next()
}

// All consumes the remainder of the cursor, returning every remaining
// record plus the terminal summary metadata.
func (r *Rows) All() ([][]interface{}, map[string]interface{}, error) {
	var out [][]interface{}
	for {
		rec, err := r.NextNeo()
		if err == io.EOF {
			return out, r.stream.Summary(), nil
		}
		if err != nil {
			return out, nil, err
		}
		out = append(out, rec)
	}
}
