// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pdfchat-tui/internal/model"
)

// resize recomputes component dimensions for a new terminal size.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
	m.header.SetWidth(width)
	m.statusBar.Width = width
	m.docPanel.SetWidth(width)
	m.errBanner.SetWidth(width)
	m.input.Width = width - 6

	// Header, input border + line, status bar.
	chrome := 1 + 3 + 1
	if m.showDocs {
		chrome += m.docPanel.Count() + 3
	}
	if m.errBanner.IsVisible() {
		chrome += 5
	}
	vpHeight := height - chrome
	if vpHeight < 3 {
		vpHeight = 3
	}

	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.ready = true

	// Re-wrap markdown to the new width.
	wrap := width - 4
	if wrap > 100 {
		wrap = 100
	}
	if wrap > 20 {
		if r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		); err == nil {
			m.renderer = r
		}
	}

	m.refreshViewport()
	m.viewport.GotoBottom()
}

// refreshViewport rebuilds the transcript content.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderTranscript())
}

// renderTranscript renders all messages plus any in-progress answer.
func (m *Model) renderTranscript() string {
	var b strings.Builder

	if len(m.messages) == 0 && m.streamBuf == "" {
		b.WriteString(m.theme.MessageMeta.Render("Upload a PDF with /upload, then ask a question."))
		b.WriteString("\n")
	}

	for i := range m.messages {
		b.WriteString(m.renderMessage(&m.messages[i]))
		b.WriteString("\n")
	}

	if m.state == StateStreaming {
		b.WriteString(m.theme.MessageMeta.Render("Assistant"))
		b.WriteString("\n")
		if m.streamBuf != "" {
			b.WriteString(m.theme.AssistantBubble.Render(m.streamBuf))
			b.WriteString("\n")
		}
		if line := m.spin.View(); line != "" {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// renderMessage renders one transcript entry with its metadata line.
func (m *Model) renderMessage(msg *model.Message) string {
	meta := m.theme.MessageMeta.Render(
		fmt.Sprintf("%s %s", msg.Role.DisplayName(), msg.Timestamp.Format("15:04")))

	var body string
	switch msg.Role {
	case model.RoleUser:
		body = m.theme.UserBubble.Render(msg.Content)
	case model.RoleAssistant:
		body = m.theme.AssistantBubble.Render(m.renderMarkdown(msg.Content))
		if msg.HasReferences() {
			body += "\n" + m.renderReferences(msg.References)
		}
	default:
		body = m.theme.SystemBubble.Render(msg.Content)
	}

	return meta + "\n" + body + "\n"
}

// renderMarkdown renders assistant markdown, falling back to plain text.
func (m *Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// renderReferences formats the source citations under an answer.
func (m *Model) renderReferences(refs []model.Reference) string {
	lines := make([]string, 0, len(refs)+1)
	lines = append(lines, m.theme.MessageMeta.Render("  Sources:"))
	for _, ref := range refs {
		lines = append(lines, m.theme.Reference.Render(formatReference(ref)))
	}
	return strings.Join(lines, "\n")
}

// formatReference renders one citation as "name, p.N (section)".
func formatReference(ref model.Reference) string {
	out := ref.DocumentName
	if out == "" {
		out = ref.DocumentID
	}
	if ref.PageNumber > 0 {
		out += fmt.Sprintf(", p.%d", ref.PageNumber)
	}
	if ref.Section != "" {
		out += " (" + ref.Section + ")"
	}
	return out
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	sections := []string{
		m.header.View(),
		m.viewport.View(),
	}

	if m.showDocs {
		if panel := m.docPanel.View(); panel != "" {
			sections = append(sections, panel)
		}
	}

	if m.errBanner.IsVisible() {
		sections = append(sections, m.errBanner.View())
	}

	sections = append(sections,
		m.theme.InputContainer.Width(m.width).Render(m.input.View()),
		m.statusBar.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
