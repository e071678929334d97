package domain

import "time"

// Message roles accepted by the completion API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation turn. History is caller-owned: the
// orchestrators never mutate the input slice, they return an extended copy.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// SanitizeRole coerces any value outside {user, assistant} to user.
// History arrives from untrusted callers and the completion API rejects
// unknown roles.
func SanitizeRole(role string) string {
	if role == RoleUser || role == RoleAssistant {
		return role
	}
	return RoleUser
}

// NewTimestamp returns the generation-time timestamp stamped onto
// appended history entries.
func NewTimestamp(now time.Time) string {
	return now.Format(time.RFC3339)
}

// AppendExchange returns history extended with the user turn (exact text
// sent to the model, context included) and the assistant answer. The input
// slice is left untouched.
func AppendExchange(history []Message, userContent, answer string, now time.Time) []Message {
	ts := NewTimestamp(now)
	out := make([]Message, 0, len(history)+2)
	out = append(out, history...)
	out = append(out,
		Message{Role: RoleUser, Content: userContent, Timestamp: ts},
		Message{Role: RoleAssistant, Content: answer, Timestamp: ts},
	)
	return out
}
