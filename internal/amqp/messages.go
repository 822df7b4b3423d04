package amqp

import (
	"encoding/json"
	"time"
)

// Event operations carried by TransactionEventMessage.
const (
	OpCreated  = "created"
	OpUpdated  = "updated"
	OpDeleted  = "deleted"
	OpImported = "imported"
)

// TransactionEventMessage announces a change to the transaction store.
// Consumers re-read the store rather than trusting a payload.
type TransactionEventMessage struct {
	Op        string    `json:"op"`
	IDs       []string  `json:"ids"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionEventMessage creates an event stamped with the current time.
func NewTransactionEventMessage(op string, ids []string, version int64) *TransactionEventMessage {
	return &TransactionEventMessage{
		Op:        op,
		IDs:       append([]string(nil), ids...),
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON decodes a message from JSON bytes
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
