package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	source  = "coin-admin-service"
	version = "1.0"
)

// Domain event types
const (
	StudentCreated    = "student.created"
	StudentCoinAdded  = "student.coin_added"
	RewardItemCreated = "reward_item.created"
	RewardItemUpdated = "reward_item.updated"
	RewardItemDeleted = "reward_item.deleted"
)

// Event is the envelope of every message on the bus
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EntityData is the payload of domain events
type EntityData struct {
	SubjectID    string      `json:"subjectId"`
	SubjectLabel string      `json:"subjectLabel"`
	Entity       interface{} `json:"entity,omitempty"`
}

// NewEvent wraps data in an envelope with a fresh id
func NewEvent(eventType string, data interface{}) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Version:   version,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}, nil
}

// DecodeData unmarshals the event payload into dest
func (e *Event) DecodeData(dest interface{}) error {
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("failed to decode %s event data: %w", e.Type, err)
	}
	return nil
}
