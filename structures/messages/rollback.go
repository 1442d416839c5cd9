package messages

// RollbackMessage rolls back the current explicit transaction. Replaces
// the teacher's literal "ROLLBACK" Cypher statement sent through RUN.
type RollbackMessage struct{}

// NewRollbackMessage builds a RollbackMessage.
func NewRollbackMessage() RollbackMessage {
	return RollbackMessage{}
}
