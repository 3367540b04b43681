package chat

import "time"

// Session is a snapshot of one visitor's chat widget.
type Session struct {
	ID          string    `json:"id"`
	Messages    []Message `json:"messages"`
	IsOpen      bool      `json:"isOpen"`
	IsLoading   bool      `json:"isLoading"`
	IsListening bool      `json:"isListening"`
	InputText   string    `json:"inputText"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// EventType names the change a widget subscriber is notified about.
type EventType string

const (
	EventMessage EventType = "message"
	EventState   EventType = "state"
	EventDraft   EventType = "draft"
	EventScroll  EventType = "scroll"
	EventFocus   EventType = "focus"
)

// Event is pushed to subscribers after every mutation of a session.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	Message   *Message  `json:"message,omitempty"`
	Session   *Session  `json:"session,omitempty"`
}
