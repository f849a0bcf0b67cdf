package models

import (
	"time"
)

// Role identifies the author of a timeline message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Citation is a single web source referenced by an assistant message.
// Citations are unique per message by URL.
type Citation struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	CitedText string `json:"citedText,omitempty"`
}

// SearchLog records one search the assistant performed while answering.
// Logs are unique per message by query; results are unique per log by URL.
type SearchLog struct {
	Query   string     `json:"query"`
	Results []Citation `json:"results"`
}

// DocumentRef points at a document artifact created during a turn.
type DocumentRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type,omitempty"`
}

// AttachmentRef references an uploaded file attached to a user message.
type AttachmentRef struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName,omitempty"`
	FileType string `json:"fileType,omitempty"`
}

// Message is one entry in a conversation timeline. Content is mutable while
// the owning stream session is open; afterwards the message is frozen.
type Message struct {
	Role            Role            `json:"role"`
	Content         string          `json:"content"`
	Thinking        string          `json:"thinking,omitempty"`
	ThinkingSummary string          `json:"thinkingSummary,omitempty"`
	IsThinking      bool            `json:"isThinking"`
	SearchStatus    string          `json:"searchStatus,omitempty"`
	Citations       []Citation      `json:"citations,omitempty"`
	SearchLogs      []SearchLog     `json:"searchLogs,omitempty"`
	Document        *DocumentRef    `json:"document,omitempty"`
	Attachments     []AttachmentRef `json:"attachments,omitempty"`
	IsSummary       bool            `json:"isSummary"`
	CreatedAt       *time.Time      `json:"createdAt,omitempty"`
	ServerID        string          `json:"serverId,omitempty"`
}

// NewUserMessage builds an optimistic user message stamped with the local time.
func NewUserMessage(content string, attachments []AttachmentRef) Message {
	now := time.Now()
	return Message{
		Role:        RoleUser,
		Content:     content,
		Attachments: attachments,
		CreatedAt:   &now,
	}
}

// NewAssistantPlaceholder builds the empty assistant message a stream
// session writes into.
func NewAssistantPlaceholder() Message {
	now := time.Now()
	return Message{
		Role:      RoleAssistant,
		CreatedAt: &now,
	}
}

// AddCitations appends sources, skipping any URL already present.
func (m *Message) AddCitations(sources []Citation) {
	seen := make(map[string]bool, len(m.Citations))
	for _, c := range m.Citations {
		seen[c.URL] = true
	}
	for _, c := range sources {
		if c.URL == "" || seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		m.Citations = append(m.Citations, c)
	}
}

// MergeSearchLog folds a search batch into the per-query log. A repeated
// query merges its results into the existing entry instead of appending a
// duplicate log line.
func (m *Message) MergeSearchLog(query string, results []Citation) {
	if query == "" {
		return
	}
	for i := range m.SearchLogs {
		if m.SearchLogs[i].Query != query {
			continue
		}
		seen := make(map[string]bool, len(m.SearchLogs[i].Results))
		for _, r := range m.SearchLogs[i].Results {
			seen[r.URL] = true
		}
		for _, r := range results {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			m.SearchLogs[i].Results = append(m.SearchLogs[i].Results, r)
		}
		return
	}
	m.SearchLogs = append(m.SearchLogs, SearchLog{Query: query, Results: results})
}
