package messages

// GoodbyeMessage tells the server the client is about to close the
// connection. No response is expected - the server just drops the
// socket. Not present in the teacher's message set; added per spec §4.5.
type GoodbyeMessage struct{}

// NewGoodbyeMessage builds a GoodbyeMessage.
func NewGoodbyeMessage() GoodbyeMessage {
	return GoodbyeMessage{}
}
