package messages

// FailureMessage is the server's negative response to a request, carrying
// a "code" and "message" in its metadata (used by errors.NewDatabase to
// classify transient vs fatal server errors).
type FailureMessage struct {
	Metadata map[string]interface{}
}

// NewFailureMessage builds a FailureMessage.
func NewFailureMessage(metadata map[string]interface{}) FailureMessage {
	return FailureMessage{Metadata: metadata}
}
