package messages

// SuccessMessage is the server's positive response to a request, carrying
// response metadata (fields, bookmark, stats, and so on depending on
// which request it answers).
type SuccessMessage struct {
	Metadata map[string]interface{}
}

// NewSuccessMessage builds a SuccessMessage.
func NewSuccessMessage(metadata map[string]interface{}) SuccessMessage {
	return SuccessMessage{Metadata: metadata}
}
