package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds emitted on category and entry mutations.
const (
	EventCategoryCreated = "category.created"
	EventCategoryUpdated = "category.updated"
	EventCategoryDeleted = "category.deleted"
	EventEntryCreated    = "entry.created"
	EventEntryUpdated    = "entry.updated"
	EventEntryDeleted    = "entry.deleted"
)

// ChangeEvent is a lightweight notification about a mutation. Consumers
// fetch the full record themselves; only identifiers travel on the wire.
type ChangeEvent struct {
	Kind       string    `json:"kind"`
	CategoryID int64     `json:"category_id"`
	EntryID    int64     `json:"entry_id,omitempty"`
	Month      string    `json:"month,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewChangeEvent creates an event stamped with the current time.
func NewChangeEvent(kind string, categoryID, entryID int64, month string) *ChangeEvent {
	return &ChangeEvent{
		Kind:       kind,
		CategoryID: categoryID,
		EntryID:    entryID,
		Month:      month,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON creates an event from JSON bytes
func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var event ChangeEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
