package chat

import (
	"context"
	"fmt"

	"github.com/pretend1111/Claude-clone-sub000/internal/models"
	"github.com/pretend1111/Claude-clone-sub000/internal/recovery"
	"github.com/pretend1111/Claude-clone-sub000/internal/session"
)

// EditMessage replays the conversation from a user message with replacement
// content: the timeline is truncated from index, an optimistic replacement
// user message and a fresh assistant placeholder are appended, server-side
// history from that point is deleted best-effort, and a new stream session
// starts. The optimistic truncation is never rolled back; a failed remote
// delete is logged only.
func (c *Controller) EditMessage(ctx context.Context, index int, newText string) (*session.Session, error) {
	snapshot := c.store.Messages()
	if index < 0 || index >= len(snapshot) {
		return nil, fmt.Errorf("message index %d out of range (timeline has %d)", index, len(snapshot))
	}
	target := snapshot[index]
	if target.Role != models.RoleUser {
		return nil, fmt.Errorf("message at index %d is not a user message", index)
	}

	c.mu.Lock()
	if c.creating {
		c.mu.Unlock()
		return nil, ErrCreationInFlight
	}
	convID := c.conv.ID
	prev := c.current
	c.mu.Unlock()

	if convID == "" {
		return nil, fmt.Errorf("conversation has no server identity yet")
	}

	// The previous session loses its ability to mutate before the timeline
	// changes shape underneath it.
	if prev != nil && !prev.State().Terminal() {
		prev.Cancel()
	}

	c.store.TruncateFrom(index)
	c.store.Append(models.NewUserMessage(newText, target.Attachments))
	c.store.Append(models.NewAssistantPlaceholder())

	if target.ServerID != "" {
		recovery.Go("history-delete", func() {
			if err := c.backend.DeleteMessagesFrom(context.Background(), convID, target.ServerID); err != nil {
				c.log.Warn().Err(err).Str("message_id", target.ServerID).Msg("remote history delete failed")
			}
		})
	}

	return c.startSession(ctx, convID, newText, target.Attachments), nil
}

// ResendMessage is EditMessage with the original content unchanged.
func (c *Controller) ResendMessage(ctx context.Context, index int) (*session.Session, error) {
	snapshot := c.store.Messages()
	if index < 0 || index >= len(snapshot) {
		return nil, fmt.Errorf("message index %d out of range (timeline has %d)", index, len(snapshot))
	}
	return c.EditMessage(ctx, index, snapshot[index].Content)
}
