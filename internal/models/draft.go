package models

import "strings"

// Draft preserves unsent composer state across navigation: the input text,
// any pending attachments, and the input box height the user had dragged to.
type Draft struct {
	Text        string              `json:"text"`
	Attachments []PendingAttachment `json:"attachments,omitempty"`
	InputHeight int                 `json:"inputHeight,omitempty"`
}

// Empty reports whether the draft carries nothing worth restoring.
func (d Draft) Empty() bool {
	return strings.TrimSpace(d.Text) == "" && len(d.Attachments) == 0
}
