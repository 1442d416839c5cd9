package messages

// RunMessage requests execution of a statement with parameters, either
// autocommitting or inside the caller's current explicit transaction.
type RunMessage struct {
	Statement  string
	Parameters map[string]interface{}
}

// NewRunMessage builds a RunMessage.
func NewRunMessage(statement string, parameters map[string]interface{}) RunMessage {
	return RunMessage{
		Statement:  statement,
		Parameters: parameters,
	}
}
