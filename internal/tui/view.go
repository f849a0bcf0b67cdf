package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pretend1111/Claude-clone-sub000/internal/models"
)

// View renders the chat screen: header, timeline viewport, composer, help.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	title := m.title
	if title == "" {
		title = "New conversation"
	}
	header := headerStyle.Width(m.width).Render(title)

	var footer strings.Builder
	if m.lastErr != nil {
		footer.WriteString(errorStyle.Render(m.lastErr.Error()))
		footer.WriteByte('\n')
	}
	if m.controller.Streaming() {
		footer.WriteString(m.spin.View())
		footer.WriteString(statusStyle.Render("streaming · esc to cancel"))
	} else if m.editIndex >= 0 {
		footer.WriteString(statusStyle.Render(fmt.Sprintf("editing message %d · enter to replay, esc to keep original", m.editIndex)))
	} else {
		footer.WriteString(mutedStyle.Render("enter send · ctrl+j newline · ctrl+e edit last · ctrl+r resend · ctrl+c quit"))
	}

	composer := composerStyle.Width(m.width - 2).Render(m.composer.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.timelineView.View(),
		composer,
		footer.String(),
	)
}

// renderTimeline formats the message list for the viewport.
func (m Model) renderTimeline() string {
	msgs := m.controller.Timeline().Messages()
	if len(msgs) == 0 {
		return mutedStyle.Render("No messages yet.")
	}

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		m.renderMessage(&b, msg)
	}

	if atts := m.attachments.Pending(); len(atts) > 0 {
		b.WriteString("\n\n")
		b.WriteString(mutedStyle.Render("attachments:"))
		for _, a := range atts {
			b.WriteByte('\n')
			switch a.Status {
			case models.UploadStatusUploading:
				b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s (%d%%)", a.FileName, a.Progress)))
			case models.UploadStatusError:
				b.WriteString(errorStyle.Render(fmt.Sprintf("  %s (failed)", a.FileName)))
			default:
				b.WriteString(mutedStyle.Render("  " + a.FileName))
			}
		}
	}
	return b.String()
}

func (m Model) renderMessage(b *strings.Builder, msg models.Message) {
	switch msg.Role {
	case models.RoleUser:
		b.WriteString(userLabelStyle.Render("You"))
	default:
		b.WriteString(assistantLabelStyle.Render("Assistant"))
	}
	b.WriteByte('\n')

	if msg.IsThinking && msg.Thinking != "" {
		b.WriteString(thinkingStyle.Render(msg.Thinking))
		b.WriteByte('\n')
	}
	if msg.SearchStatus != "" {
		b.WriteString(statusStyle.Render(msg.SearchStatus))
		b.WriteByte('\n')
	}
	if msg.ThinkingSummary != "" {
		b.WriteString(thinkingStyle.Render(msg.ThinkingSummary))
		b.WriteByte('\n')
	}

	if msg.Content != "" {
		b.WriteString(msg.Content)
	} else if msg.Role == models.RoleAssistant {
		b.WriteString(mutedStyle.Render("..."))
	}

	for _, a := range msg.Attachments {
		b.WriteByte('\n')
		b.WriteString(mutedStyle.Render("📎 " + a.FileName))
	}
	if msg.Document != nil {
		b.WriteByte('\n')
		b.WriteString(mutedStyle.Render("📄 " + msg.Document.Title))
	}
	if len(msg.Citations) > 0 {
		b.WriteByte('\n')
		b.WriteString(mutedStyle.Render("sources:"))
		for _, c := range msg.Citations {
			b.WriteByte('\n')
			b.WriteString(mutedStyle.Render("  " + c.Title + " · " + c.URL))
		}
	}
}
