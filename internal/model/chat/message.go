package chat

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one immutable turn in a widget conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Turn is the history shape handed to the remote chat backend.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NormalizeRole coerces anything that is not the model into the user role.
func NormalizeRole(r Role) Role {
	if r == RoleModel {
		return RoleModel
	}
	return RoleUser
}

// ToTurns remaps messages into backend history turns.
func ToTurns(messages []Message) []Turn {
	if len(messages) == 0 {
		return nil
	}
	turns := make([]Turn, 0, len(messages))
	for _, msg := range messages {
		turns = append(turns, Turn{Role: NormalizeRole(msg.Role), Content: msg.Text})
	}
	return turns
}
