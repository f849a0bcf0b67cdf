package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pretend1111/Claude-clone-sub000/internal/api"
	"github.com/pretend1111/Claude-clone-sub000/internal/chat"
	"github.com/pretend1111/Claude-clone-sub000/internal/config"
	"github.com/pretend1111/Claude-clone-sub000/internal/draft"
	"github.com/pretend1111/Claude-clone-sub000/internal/logger"
	"github.com/pretend1111/Claude-clone-sub000/internal/session"
	"github.com/pretend1111/Claude-clone-sub000/internal/timeline"
)

// Run starts the interactive chat TUI. With a non-empty conversationID the
// existing history is loaded first; otherwise the conversation is created
// lazily by the first send.
func Run(cfg *config.Config, conversationID string) error {
	client := api.NewClient(cfg.ServerURL, cfg.RequestTimeout)
	store := timeline.NewStore()
	registry := session.NewRegistry()

	_ = os.MkdirAll(cfg.DataDir, 0o755)
	drafts := draft.NewPersistentStore(filepath.Join(cfg.DataDir, "drafts.gob"))

	var program *tea.Program

	controller := chat.NewController(client, store, registry, cfg.Model,
		chat.WithSessionOptions(session.WithIdleTimeout(cfg.StreamIdleTimeout)),
		chat.WithTitleDelays(cfg.TitleDelays()),
		chat.WithTitleHandler(func(title string) {
			if program != nil {
				program.Send(titleChangedMsg{title: title})
			}
		}),
	)
	attachments := chat.NewAttachmentManager(client)

	if conversationID != "" {
		detail, err := client.GetConversation(context.Background(), conversationID)
		if err != nil {
			return fmt.Errorf("loading conversation %s: %w", conversationID, err)
		}
		controller.LoadConversation(detail.Conversation, detail.Messages)
	}

	model := NewModel(controller, drafts, attachments)
	program = tea.NewProgram(model, tea.WithAltScreen())

	store.SetChangeHandler(func() {
		program.Send(timelineChangedMsg{})
	})
	attachments.SetChangeHandler(func() {
		program.Send(attachmentsChangedMsg{})
	})

	_, err := program.Run()

	if flushErr := drafts.Flush(); flushErr != nil {
		logger.Warnf("saving drafts: %v", flushErr)
	}
	return err
}
