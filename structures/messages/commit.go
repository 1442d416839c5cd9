package messages

// CommitMessage commits the current explicit transaction. Replaces the
// teacher's literal "COMMIT" Cypher statement sent through RUN.
type CommitMessage struct{}

// NewCommitMessage builds a CommitMessage.
func NewCommitMessage() CommitMessage {
	return CommitMessage{}
}
