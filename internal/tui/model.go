package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pretend1111/Claude-clone-sub000/internal/chat"
	"github.com/pretend1111/Claude-clone-sub000/internal/draft"
	"github.com/pretend1111/Claude-clone-sub000/internal/models"
)

const defaultComposerHeight = 3

// Model is the bubbletea state for the chat view: a viewport over the
// timeline store and a textarea composer underneath it.
type Model struct {
	controller  *chat.Controller
	drafts      *draft.Store
	attachments *chat.AttachmentManager

	composer     textarea.Model
	timelineView viewport.Model
	spin         spinner.Model

	width   int
	height  int
	ready   bool
	title   string
	lastErr error

	// editIndex is the timeline index being edited, or -1 when composing a
	// fresh message.
	editIndex int
}

// NewModel builds the initial model, restoring any saved draft for the
// conversation.
func NewModel(controller *chat.Controller, drafts *draft.Store, attachments *chat.AttachmentManager) Model {
	ta := textarea.New()
	ta.Placeholder = "Send a message..."
	ta.ShowLineNumbers = false
	ta.SetHeight(defaultComposerHeight)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(colorPrimary))

	m := Model{
		controller:  controller,
		drafts:      drafts,
		attachments: attachments,
		composer:    ta,
		spin:        sp,
		title:       controller.Conversation().Title,
		editIndex:   -1,
	}

	if d, ok := drafts.Load(m.draftKey()); ok {
		m.composer.SetValue(d.Text)
		if d.InputHeight > 0 {
			m.composer.SetHeight(d.InputHeight)
		}
		attachments.Restore(d.Attachments)
	}
	return m
}

func (m *Model) draftKey() string {
	if id := m.controller.Conversation().ID; id != "" {
		return id
	}
	return draft.NewConversationKey
}

// saveDraft stows the composer state for the next visit.
func (m *Model) saveDraft() {
	m.drafts.Save(m.draftKey(), models.Draft{
		Text:        m.composer.Value(),
		Attachments: m.attachments.Pending(),
		InputHeight: m.composer.Height(),
	})
}

// Init starts the spinner tick.
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}
