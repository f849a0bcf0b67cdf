package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ChatAttachment references an already-uploaded file in a chat request.
type ChatAttachment struct {
	FileID string `json:"fileId"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	ConversationID string           `json:"conversation_id"`
	Message        string           `json:"message"`
	Attachments    []ChatAttachment `json:"attachments,omitempty"`
}

// StreamChat issues the send and returns the raw response body for frame
// decoding. A non-200 response is consumed here and surfaced as a
// *ServerError before any streaming begins; the caller owns closing the
// returned body. Cancellation flows through ctx.
func (c *Client) StreamChat(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("creating chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending chat request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeServerError(resp)
	}

	return resp.Body, nil
}
