package messages

// PullAllMessage requests the remaining result stream for the last RUN.
type PullAllMessage struct{}

// NewPullAllMessage builds a PullAllMessage.
func NewPullAllMessage() PullAllMessage {
	return PullAllMessage{}
}
