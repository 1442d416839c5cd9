package messages

// RecordMessage carries one row of a result stream.
type RecordMessage struct {
	Fields []interface{}
}

// NewRecordMessage builds a RecordMessage.
func NewRecordMessage(fields []interface{}) RecordMessage {
	return RecordMessage{Fields: fields}
}
