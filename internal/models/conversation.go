package models

import "time"

// Conversation is the client-side view of a conversation resource. An empty
// ID means the conversation has not been persisted yet; the ID is set exactly
// once, by the first successful send, and never reverts.
type Conversation struct {
	ID        string     `json:"id,omitempty"`
	Model     string     `json:"model"`
	Title     string     `json:"title"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Persisted reports whether the conversation exists server-side.
func (c Conversation) Persisted() bool {
	return c.ID != ""
}
