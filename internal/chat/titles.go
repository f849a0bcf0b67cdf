package chat

import (
	"context"
	"sync/atomic"
	"time"
)

const titleFetchTimeout = 5 * time.Second

// scheduleTitleReconciliation fires best-effort title re-fetches at the
// configured delays. The server generates titles asynchronously with no
// completion signal, so the client polls; a poll that never resolves is not
// a failure, and nothing here ever blocks the send path.
func (c *Controller) scheduleTitleReconciliation(convID string) {
	if convID == "" {
		return
	}

	var resolved atomic.Bool
	for _, delay := range c.titleDelays {
		time.AfterFunc(delay, func() {
			if resolved.Load() {
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), titleFetchTimeout)
			defer cancel()

			detail, err := c.backend.GetConversation(ctx, convID)
			if err != nil {
				c.log.Debug().Err(err).Str("conversation_id", convID).Msg("title fetch failed")
				return
			}

			title := detail.Conversation.Title
			if title == "" || title == c.Conversation().Title {
				return
			}
			if resolved.CompareAndSwap(false, true) {
				c.log.Debug().Str("title", title).Msg("title reconciled")
				c.setTitle(title)
			}
		})
	}
}
