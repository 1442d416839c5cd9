package bolttx

import "io"

// Stream is a lazily-consumed result cursor for one RUN. Records accumulate
// as the engine dispatches them (already buffered by the PULL_ALL pipelined
// ahead of Flush in Transaction.Run), so Next never issues its own wire
// traffic - unlike the teacher's boltRows, which sent a fresh PULL_ALL
// message per Next() call (rows.go). This is a supplemented improvement:
// the whole result set for PULL_ALL is fetched in one round trip.
type Stream struct {
	runMetadata  map[string]interface{}
	records      [][]interface{}
	pos          int
	summary      map[string]interface{}
	err          error
	done         bool
}

func newStream() *Stream {
	return &Stream{}
}

func (s *Stream) setRunMetadata(meta map[string]interface{}) {
	s.runMetadata = meta
}

func (s *Stream) pushRecord(fields []interface{}) {
	s.records = append(s.records, fields)
}

func (s *Stream) complete(summary map[string]interface{}) {
	s.summary = summary
	s.done = true
}

func (s *Stream) fail(err error) {
	s.err = err
	s.done = true
}

// Keys returns the result's column names, as reported in the RUN
// response's "fields" metadata entry.
func (s *Stream) Keys() []string {
	raw, ok := s.runMetadata["fields"]
	if !ok {
		return nil
	}
	rawList, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	keys := make([]string, len(rawList))
	for i, k := range rawList {
		if str, ok := k.(string); ok {
			keys[i] = str
		}
	}
	return keys
}

// Next returns the next record's fields, or io.EOF once the stream is
// exhausted. Returns the stream's terminal error, if any, instead of
// io.EOF when the underlying RUN/PULL_ALL failed.
func (s *Stream) Next() ([]interface{}, error) {
	if s.pos < len(s.records) {
		rec := s.records[s.pos]
		s.pos++
		return rec, nil
	}
	if s.err != nil {
		return nil, s.err
	}
	return nil, io.EOF
}

// Summary returns the terminal SUCCESS metadata for the PULL_ALL (query
// statistics, result-consumed-after timing, and so on).
func (s *Stream) Summary() map[string]interface{} {
	return s.summary
}
