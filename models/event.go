package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventStatusPending   = "pending"
	EventStatusCompleted = "completed"
)

// Event is an outbox row written in the same transaction as the change it
// describes. The dispatcher publishes it to the change feed afterwards.
type Event struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Event        string     `gorm:"not null" json:"event"`
	Version      int        `gorm:"not null" json:"version"`
	Entity       string     `gorm:"not null" json:"entity"`
	Timestamp    time.Time  `gorm:"not null;index" json:"timestamp"`
	Data         string     `gorm:"type:text;not null" json:"data"`
	Status       string     `gorm:"not null" json:"status"`
	Dispatched   bool       `gorm:"not null;index" json:"dispatched"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
}

func NewEvent(event, entity string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Event:     event,
		Version:   1,
		Entity:    entity,
		Timestamp: time.Now().UTC(),
		Data:      string(dataBytes),
		Status:    EventStatusPending,
	}, nil
}

// DataMap decodes Data, returning an empty map when it is not a JSON object.
func (e *Event) DataMap() map[string]interface{} {
	dataMap := make(map[string]interface{})
	if err := json.Unmarshal([]byte(e.Data), &dataMap); err != nil {
		return make(map[string]interface{})
	}
	return dataMap
}
