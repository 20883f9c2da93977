package entity

// QueueRecord is one queue delivery carrying a raw webhook body.
type QueueRecord struct {
	ID   string
	Body []byte
}
