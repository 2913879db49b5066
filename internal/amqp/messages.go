package amqp

import (
	"encoding/json"
	"time"
)

// Message kinds carried on the transactions queue.
const (
	KindSync   = "sync"
	KindDelete = "delete"
)

// Message is a lightweight event about a single transaction. It carries only
// the ID; the worker fetches the current row from the database, so a stale
// or duplicated delivery is harmless.
type Message struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSyncMessage(id string) *Message {
	return &Message{Kind: KindSync, ID: id, Timestamp: time.Now()}
}

func NewDeleteMessage(id string) *Message {
	return &Message{Kind: KindDelete, ID: id, Timestamp: time.Now()}
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
