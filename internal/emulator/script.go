package emulator

import (
	"encoding/json"
	"strings"

	"github.com/pretend1111/Claude-clone-sub000/internal/models"
)

// Frame builders produce raw wire payloads for scripted responses. Tests
// compose these to drive the client through specific event sequences.

// TextDeltaFrame emits assistant text as the running total so far.
func TextDeltaFrame(fullText string) []byte {
	return mustJSON(map[string]interface{}{
		"type":  "content_block_delta",
		"delta": map[string]string{"type": "text_delta", "text": fullText},
	})
}

// ThinkingDeltaFrame emits extended-thinking text as the running total.
func ThinkingDeltaFrame(fullText string) []byte {
	return mustJSON(map[string]interface{}{
		"type":  "content_block_delta",
		"delta": map[string]string{"type": "thinking_delta", "text": fullText},
	})
}

// ThinkingSummaryFrame emits a thinking summary.
func ThinkingSummaryFrame(summary string) []byte {
	return mustJSON(map[string]interface{}{"type": "thinking_summary", "summary": summary})
}

// StatusFrame emits a transient status line.
func StatusFrame(message string) []byte {
	return mustJSON(map[string]interface{}{"type": "status_update", "message": message})
}

// SearchSourcesFrame emits a batch of web sources for a query.
func SearchSourcesFrame(query string, sources []models.Citation) []byte {
	srcs := make([]map[string]string, 0, len(sources))
	for _, s := range sources {
		srcs = append(srcs, map[string]string{
			"url":        s.URL,
			"title":      s.Title,
			"cited_text": s.CitedText,
		})
	}
	return mustJSON(map[string]interface{}{"type": "search_sources", "query": query, "sources": srcs})
}

// DocumentFrame emits a document-created notice.
func DocumentFrame(doc models.DocumentRef) []byte {
	return mustJSON(map[string]interface{}{"type": "document_created", "document": doc})
}

// StopFrame emits the explicit end-of-message marker.
func StopFrame() []byte {
	return mustJSON(map[string]interface{}{"type": "message_stop"})
}

// ErrorFrame emits an explicit server error.
func ErrorFrame(message string) []byte {
	return mustJSON(map[string]interface{}{"type": "error", "error": message})
}

// extractTextDelta pulls the running text total out of a frame when it is a
// text delta, so the server can record the final reply in history.
func extractTextDelta(frame []byte) (string, bool) {
	var f struct {
		Type  string `json:"type"`
		Delta struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"delta"`
	}
	if err := json.Unmarshal(frame, &f); err != nil {
		return "", false
	}
	if f.Type == "content_block_delta" && f.Delta.Type == "text_delta" {
		return f.Delta.Text, true
	}
	return "", false
}

func mustJSON(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Responder produces the frame payloads streamed in reply to one message.
type Responder func(conv *models.Conversation, message string) [][]byte

// EchoResponder is the default script: a short thinking delta followed by a
// word-by-word cumulative echo of the user message, then message_stop.
func EchoResponder(_ *models.Conversation, message string) [][]byte {
	reply := "You said: " + message
	frames := [][]byte{
		ThinkingDeltaFrame("Reading the message."),
	}
	words := strings.Fields(reply)
	var sofar strings.Builder
	for i, w := range words {
		if i > 0 {
			sofar.WriteByte(' ')
		}
		sofar.WriteString(w)
		frames = append(frames, TextDeltaFrame(sofar.String()))
	}
	frames = append(frames, StopFrame())
	return frames
}
