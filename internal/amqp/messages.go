package amqp

import (
	"encoding/json"
	"time"
)

// ReminderMessage tells a notification consumer that a calendar event
// is due. It carries enough to render the reminder without another
// backend round trip.
type ReminderMessage struct {
	EventID   string    `json:"eventId"`
	EventName string    `json:"eventName"`
	UserID    string    `json:"userId"`
	DueAtMs   int64     `json:"dueAtMs"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReminderMessage creates a reminder message for a due event
func NewReminderMessage(eventID, eventName, userID string, dueAtMs int64) *ReminderMessage {
	return &ReminderMessage{
		EventID:   eventID,
		EventName: eventName,
		UserID:    userID,
		DueAtMs:   dueAtMs,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReminderMessageFromJSON creates a message from JSON bytes
func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
