package messages

// HelloMessage is the first message sent on a connection, carrying the
// client's user agent string and an auth token map. Supersedes the
// teacher's INIT message (spec §4.5): same wire shape, renamed to match
// the handshake step it actually performs.
type HelloMessage struct {
	UserAgent string
	AuthToken map[string]interface{}
}

// NewHelloMessage builds a HelloMessage from a user agent string and a
// pre-built auth token map (scheme/principal/credentials/realm).
func NewHelloMessage(userAgent string, authToken map[string]interface{}) HelloMessage {
	return HelloMessage{
		UserAgent: userAgent,
		AuthToken: authToken,
	}
}
