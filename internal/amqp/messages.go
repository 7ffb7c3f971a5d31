package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Record kinds carried by RecordEvent.
const (
	KindExpense = "expense"
	KindIncome  = "income"
)

// Operations carried by RecordEvent.
const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

var ErrMalformedEvent = errors.New("malformed record event")

// RecordEvent announces that a record changed. It carries only identifiers;
// consumers read the current record from the store.
type RecordEvent struct {
	Kind      string    `json:"kind"`
	Op        string    `json:"op"`
	ID        string    `json:"id"`
	Month     string    `json:"month"` // YYYY-MM of the record's date
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordEvent stamps an event with the current time.
func NewRecordEvent(kind, op, id, month string) RecordEvent {
	return RecordEvent{
		Kind:      kind,
		Op:        op,
		ID:        id,
		Month:     month,
		Timestamp: time.Now().UTC(),
	}
}

func (e RecordEvent) Validate() error {
	if e.Kind != KindExpense && e.Kind != KindIncome {
		return fmt.Errorf("%w: kind %q", ErrMalformedEvent, e.Kind)
	}
	if e.Op != OpUpsert && e.Op != OpDelete {
		return fmt.Errorf("%w: op %q", ErrMalformedEvent, e.Op)
	}
	if e.ID == "" {
		return fmt.Errorf("%w: empty id", ErrMalformedEvent)
	}
	return nil
}

// ToJSON converts the event to JSON bytes
func (e RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and validates an event.
func RecordEventFromJSON(data []byte) (RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return RecordEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := e.Validate(); err != nil {
		return RecordEvent{}, err
	}
	return e, nil
}
