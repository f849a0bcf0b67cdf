package stream

import (
	"encoding/json"

	"github.com/pretend1111/Claude-clone-sub000/internal/models"
)

// Frame discriminants. The event set is versionable: servers may add kinds,
// and anything unrecognized is dropped rather than rejected.
const (
	frameContentBlockDelta = "content_block_delta"
	frameThinkingSummary   = "thinking_summary"
	frameStatusUpdate      = "status_update"
	frameSearchSources     = "search_sources"
	frameDocumentCreated   = "document_created"
	frameMessageStop       = "message_stop"
	frameError             = "error"

	deltaText     = "text_delta"
	deltaThinking = "thinking_delta"
)

// wireFrame is the superset shape of every known frame kind.
type wireFrame struct {
	Type     string              `json:"type"`
	Delta    *wireDelta          `json:"delta,omitempty"`
	Summary  string              `json:"summary,omitempty"`
	Message  string              `json:"message,omitempty"`
	Sources  []wireSource        `json:"sources,omitempty"`
	Query    string              `json:"query,omitempty"`
	Document *models.DocumentRef `json:"document,omitempty"`
	Error    string              `json:"error,omitempty"`
}

type wireDelta struct {
	Type string `json:"type"`
	// Text carries the running total of the block so far, not a diff.
	Text string `json:"text"`
}

type wireSource struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	CitedText string `json:"cited_text,omitempty"`
}

// Route maps one raw frame payload to its semantic event. ok is false for
// malformed payloads and unknown discriminants; both are dropped silently so
// server-added event kinds never crash the client.
func Route(payload []byte) (models.StreamEvent, bool) {
	var f wireFrame
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, false
	}

	switch f.Type {
	case frameContentBlockDelta:
		if f.Delta == nil {
			return nil, false
		}
		switch f.Delta.Type {
		case deltaText:
			return models.TextDelta{FullText: f.Delta.Text}, true
		case deltaThinking:
			return models.ThinkingDelta{FullText: f.Delta.Text}, true
		default:
			return nil, false
		}

	case frameThinkingSummary:
		return models.ThinkingSummary{Text: f.Summary}, true

	case frameStatusUpdate:
		return models.StatusUpdate{Message: f.Message}, true

	case frameSearchSources:
		sources := make([]models.Citation, 0, len(f.Sources))
		for _, s := range f.Sources {
			sources = append(sources, models.Citation{URL: s.URL, Title: s.Title, CitedText: s.CitedText})
		}
		return models.SearchSources{Sources: sources, Query: f.Query}, true

	case frameDocumentCreated:
		if f.Document == nil {
			return nil, false
		}
		return models.DocumentCreated{Doc: *f.Document}, true

	case frameMessageStop:
		return models.MessageStop{}, true

	case frameError:
		return models.ErrorEvent{Message: f.Error}, true

	default:
		return nil, false
	}
}
