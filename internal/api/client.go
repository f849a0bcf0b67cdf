// Package api is the HTTP client for the chat backend: the streaming /chat
// endpoint plus the conversation and file collaborator APIs.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pretend1111/Claude-clone-sub000/internal/logger"
	"github.com/pretend1111/Claude-clone-sub000/internal/models"
)

// Client talks to one chat backend.
type Client struct {
	baseURL string
	// crud has a request timeout; stream deliberately has none, chat
	// streams are long-lived and get cancelled via context instead.
	crud   *http.Client
	stream *http.Client
	log    zerolog.Logger
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		crud:    &http.Client{Timeout: timeout},
		stream:  &http.Client{},
		log:     logger.Component("api"),
	}
}

// ServerError is a non-success response carrying the server's error body.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Message)
}

// errorBody is the JSON shape of non-200 responses.
type errorBody struct {
	Error string `json:"error"`
}

func decodeServerError(resp *http.Response) *ServerError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		return &ServerError{StatusCode: resp.StatusCode, Message: eb.Error}
	}
	return &ServerError{StatusCode: resp.StatusCode, Message: resp.Status}
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.crud.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeServerError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// CreateConversation creates a conversation resource for the given model.
func (c *Client) CreateConversation(ctx context.Context, model string) (*models.Conversation, error) {
	var conv models.Conversation
	in := map[string]string{"model": model}
	if err := c.doJSON(ctx, http.MethodPost, "/conversations", in, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// ConversationDetail is a conversation plus its message history.
type ConversationDetail struct {
	Conversation models.Conversation `json:"conversation"`
	Messages     []models.Message    `json:"messages"`
}

// GetConversation fetches a conversation and its history.
func (c *Client) GetConversation(ctx context.Context, id string) (*ConversationDetail, error) {
	var detail ConversationDetail
	if err := c.doJSON(ctx, http.MethodGet, "/conversations/"+id, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListConversations fetches all conversations, newest first.
func (c *Client) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var convs []models.Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/conversations", nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// UpdateConversationTitle renames a conversation.
func (c *Client) UpdateConversationTitle(ctx context.Context, id, title string) error {
	in := map[string]string{"title": title}
	return c.doJSON(ctx, http.MethodPatch, "/conversations/"+id, in, nil)
}

// DeleteConversation removes a conversation and its history.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/conversations/"+id, nil, nil)
}

// DeleteMessagesFrom removes the identified message and everything after it
// from the server-side history. Used by edit/resend.
func (c *Client) DeleteMessagesFrom(ctx context.Context, convID, fromMessageID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/conversations/"+convID+"/messages/"+fromMessageID, nil, nil)
}
