// Package assistant manages the conversational assistant transcript: one
// in-flight request at a time and a timed reveal of assistant replies.
package assistant

import (
	"errors"
	"time"
)

// Session errors.
var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a request is already in flight")
)

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Apology replaces the placeholder content when a send fails. Failure shows
// the full apology at once, never partially revealed text.
const Apology = "Sorry, I couldn't process that right now. Please try again in a moment."

// ChatMessage is one transcript entry. Assistant messages are created as
// empty placeholders and mutated in place by the reveal until completion.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Revealing bool      `json:"isRevealing"`
}
