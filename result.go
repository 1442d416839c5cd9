package bolt

// Result represents the summary of a statement that returns no data of
// its own - an ExecNeo call, or a driver.Exec through database/sql.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
	Metadata() map[string]interface{}
}

type boltResult struct {
	metadata map[string]interface{}
}

func newResult(metadata map[string]interface{}) Result {
	return boltResult{metadata: metadata}
}

// LastInsertId always returns -1: Neo4j has no auto-incrementing row id.
func (r boltResult) LastInsertId() (int64, error) {
	return -1, nil
}

// RowsAffected sums the node/relationship/property counters the server
// reports in the summary's "stats" field, if present.
func (r boltResult) RowsAffected() (int64, error) {
	stats, ok := r.metadata["stats"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	var total int64
	for _, key := range []string{
		"nodes-created", "nodes-deleted",
		"relationships-created", "relationships-deleted",
		"properties-set",
	} {
		if n, ok := asInt(stats[key]); ok {
			total += n
		}
	}
	return total, nil
}

// Metadata returns the raw SUCCESS metadata the summary was built from.
func (r boltResult) Metadata() map[string]interface{} {
	return r.metadata
}

func asInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
