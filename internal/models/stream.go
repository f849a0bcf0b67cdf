package models

// StreamEvent is one semantic event decoded from a chat response stream.
// MessageStop and ErrorEvent terminate a session; every other variant is a
// partial update to the open assistant message. The [DONE] sentinel is
// consumed at the framing layer and never surfaces as an event.
type StreamEvent interface {
	// Terminal reports whether the event ends the stream session.
	Terminal() bool
}

// TextDelta carries the assistant text as a running total, not a diff.
// Appliers must replace the rendered content with FullText.
type TextDelta struct {
	FullText string
}

// ThinkingDelta carries extended-thinking text, also as a running total.
type ThinkingDelta struct {
	FullText string
}

// ThinkingSummary replaces the thinking transcript with a short summary.
type ThinkingSummary struct {
	Text string
}

// StatusUpdate is a transient progress line ("Searching the web...").
type StatusUpdate struct {
	Message string
}

// SearchSources delivers a batch of web sources, optionally tied to the
// query that produced them.
type SearchSources struct {
	Sources []Citation
	Query   string
}

// DocumentCreated announces a document artifact produced during the turn.
type DocumentCreated struct {
	Doc DocumentRef
}

// MessageStop is the server's explicit end-of-message marker.
type MessageStop struct{}

// ErrorEvent is an explicit server error; its message supersedes any
// partial content already streamed.
type ErrorEvent struct {
	Message string
}

func (TextDelta) Terminal() bool       { return false }
func (ThinkingDelta) Terminal() bool   { return false }
func (ThinkingSummary) Terminal() bool { return false }
func (StatusUpdate) Terminal() bool    { return false }
func (SearchSources) Terminal() bool   { return false }
func (DocumentCreated) Terminal() bool { return false }
func (MessageStop) Terminal() bool     { return true }
func (ErrorEvent) Terminal() bool      { return true }
