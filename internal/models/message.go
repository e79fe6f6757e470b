package models

import "time"

type MessageType string

const (
	MessageSuccess MessageType = "success"
	MessageError   MessageType = "error"
	MessageInfo    MessageType = "info"
	MessageWarning MessageType = "warning"
)

// DefaultMessageDuration is how long a notification stays visible.
const DefaultMessageDuration = 5 * time.Second

// Message is a transient notification published to whoever renders them.
type Message struct {
	ID       int           `json:"id"`
	Type     MessageType   `json:"type"`
	Text     string        `json:"text"`
	Duration time.Duration `json:"duration"`
}
