package amqp

import (
	"encoding/json"
	"time"
)

// RolloverRequestMessage asks the worker to carry one period into the next.
// It carries only the period key; the worker reads everything else from the
// database.
type RolloverRequestMessage struct {
	PeriodKey string    `json:"period_key"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRolloverRequestMessage creates a rollover request for a period key.
func NewRolloverRequestMessage(periodKey string) *RolloverRequestMessage {
	return &RolloverRequestMessage{
		PeriodKey: periodKey,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RolloverRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RolloverRequestMessageFromJSON creates a message from JSON bytes
func RolloverRequestMessageFromJSON(data []byte) (*RolloverRequestMessage, error) {
	var msg RolloverRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// BatchAppliedMessage announces a committed ledger batch to downstream
// consumers.
type BatchAppliedMessage struct {
	PeriodKey string    `json:"period_key"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Deleted   int       `json:"deleted"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBatchAppliedMessage creates a batch notification for a period key.
func NewBatchAppliedMessage(periodKey string, created, updated, deleted int) *BatchAppliedMessage {
	return &BatchAppliedMessage{
		PeriodKey: periodKey,
		Created:   created,
		Updated:   updated,
		Deleted:   deleted,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BatchAppliedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BatchAppliedMessageFromJSON creates a message from JSON bytes
func BatchAppliedMessageFromJSON(data []byte) (*BatchAppliedMessage, error) {
	var msg BatchAppliedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
