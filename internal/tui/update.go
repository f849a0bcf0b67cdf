package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pretend1111/Claude-clone-sub000/internal/models"
)

var errAttachmentsUploading = errors.New("attachments are still uploading")

// Update dispatches program messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case timelineChangedMsg, attachmentsChangedMsg:
		m.refreshTimeline()
		return m, nil
	case titleChangedMsg:
		m.title = msg.title
		return m, nil
	case sendFailedMsg:
		m.lastErr = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	composerHeight := m.composer.Height() + 2 // border
	viewportHeight := m.height - composerHeight - 4
	if viewportHeight < 3 {
		viewportHeight = 3
	}
	if !m.ready {
		m.timelineView = viewport.New(m.width, viewportHeight)
		m.ready = true
	} else {
		m.timelineView.Width = m.width
		m.timelineView.Height = viewportHeight
	}
	m.composer.SetWidth(m.width - 4)
	m.refreshTimeline()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.controller.CancelStream()
		m.saveDraft()
		return m, tea.Quit

	case "esc":
		if m.controller.Streaming() {
			m.controller.CancelStream()
			return m, nil
		}
		if m.editIndex >= 0 {
			m.editIndex = -1
			m.composer.Reset()
		}
		return m, nil

	case "enter":
		return m.submit()

	case "ctrl+j":
		// Insert a newline without sending.
		m.composer.SetValue(m.composer.Value() + "\n")
		return m, nil

	case "ctrl+e":
		return m.beginEditLastUserMessage()

	case "ctrl+r":
		return m.resendLastUserMessage()

	case "pgup":
		m.timelineView.HalfViewUp()
		return m, nil

	case "pgdown":
		m.timelineView.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

// submit sends the composer content, either as a fresh message or as an
// edit replay.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.composer.Value())
	if text == "" {
		return m, nil
	}
	if m.controller.Streaming() {
		return m, nil
	}

	refs, ready := m.attachments.Refs()
	if !ready {
		m.lastErr = errAttachmentsUploading
		return m, nil
	}

	editIndex := m.editIndex
	m.editIndex = -1
	m.composer.Reset()
	m.attachments.Clear()
	m.lastErr = nil

	controller := m.controller
	return m, func() tea.Msg {
		var err error
		if editIndex >= 0 {
			_, err = controller.EditMessage(context.Background(), editIndex, text)
		} else {
			_, err = controller.Send(context.Background(), text, refs)
		}
		if err != nil {
			return sendFailedMsg{err: err}
		}
		return timelineChangedMsg{}
	}
}

// beginEditLastUserMessage loads the most recent user message into the
// composer for edit/replay.
func (m Model) beginEditLastUserMessage() (tea.Model, tea.Cmd) {
	if m.controller.Streaming() {
		return m, nil
	}
	msgs := m.controller.Timeline().Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleUser {
			m.editIndex = i
			m.composer.SetValue(msgs[i].Content)
			m.composer.CursorEnd()
			return m, nil
		}
	}
	return m, nil
}

// resendLastUserMessage replays the most recent user message unchanged.
func (m Model) resendLastUserMessage() (tea.Model, tea.Cmd) {
	if m.controller.Streaming() {
		return m, nil
	}
	msgs := m.controller.Timeline().Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleUser {
			index := i
			controller := m.controller
			return m, func() tea.Msg {
				if _, err := controller.ResendMessage(context.Background(), index); err != nil {
					return sendFailedMsg{err: err}
				}
				return timelineChangedMsg{}
			}
		}
	}
	return m, nil
}

func (m *Model) refreshTimeline() {
	if !m.ready {
		return
	}
	atBottom := m.timelineView.AtBottom()
	m.timelineView.SetContent(m.renderTimeline())
	if atBottom {
		m.timelineView.GotoBottom()
	}
}
