// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pdfchat-tui/internal/model"
	"github.com/jeranaias/pdfchat-tui/internal/ui/components"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SessionStartedMsg:
		if msg.Err != nil {
			m.state = StateReady
			m.statusBar.Status = components.StatusError
			m.errBanner.Show("Connection Failed", msg.Err.Error())
			return m, nil
		}
		m.state = StateReady
		m.statusBar.Status = components.StatusReady
		m.header.SetSessionID(msg.SessionID)
		m.refreshViewport()
		return m, nil

	case HistoryLoadedMsg:
		m.messages = msg.Messages
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case StreamStartMsg:
		m.state = StateStreaming
		m.statusBar.Status = components.StatusStreaming
		m.streamBuf = ""
		cmds = append(cmds, m.spin.Start())
		m.refreshViewport()
		return m, tea.Batch(cmds...)

	case StreamTokenMsg:
		m.streamBuf += msg.Token
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case StreamCompleteMsg:
		m.state = StateReady
		m.statusBar.Status = components.StatusReady
		m.spin.Stop()
		m.streamBuf = ""
		m.messages = append(m.messages, msg.Message)
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case StreamErrorMsg:
		m.state = StateReady
		m.statusBar.Status = components.StatusError
		m.spin.Stop()
		// Keep whatever answer text arrived before the failure visible.
		if msg.Partial != "" {
			m.messages = append(m.messages, model.NewAssistantMessage(msg.Partial, nil))
		}
		m.streamBuf = ""
		m.errBanner.Show("Send Failed", msg.Err.Error())
		m.refreshViewport()
		return m, nil

	case DocsUpdatedMsg:
		if msg.Err != nil {
			m.errBanner.Show("Document Processing", msg.Err.Error())
		}
		m.docPanel.SetDocuments(msg.Docs)
		m.statusBar.DocsTotal = len(msg.Docs)
		ready := 0
		uploading := false
		for _, d := range msg.Docs {
			if d.Status == model.StatusCompleted {
				ready++
			}
			if !d.Status.IsTerminal() {
				uploading = true
			}
		}
		m.statusBar.DocsReady = ready
		if m.state == StateReady {
			if uploading {
				m.statusBar.Status = components.StatusUploading
			} else if msg.Err == nil {
				m.statusBar.Status = components.StatusReady
			}
		}
		return m, nil

	case ClearedMsg:
		if msg.Err != nil {
			m.errBanner.Show("Clear Failed", msg.Err.Error())
			return m, nil
		}
		m.messages = nil
		m.refreshViewport()
		return m, nil
	}

	// Spinner animation
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	cmds = append(cmds, cmd)

	// Viewport scrolling (mouse wheel etc.)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		if m.errBanner.IsVisible() {
			m.errBanner.Hide()
			return m, nil
		}
		return m, nil

	case "ctrl+d":
		m.showDocs = !m.showDocs
		m.resize(m.width, m.height)
		return m, nil

	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "enter":
		return m.handleSubmit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSubmit validates the input line and turns it into a request.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if m.state != StateReady {
		return m, nil
	}

	m.input.SetValue("")

	if strings.HasPrefix(text, "/") {
		return m.handleCommand(text)
	}

	// Optimistic append, mirroring the conversation orchestrator.
	m.messages = append(m.messages, model.NewUserMessage(text))
	m.errBanner.Hide()
	m.refreshViewport()
	m.viewport.GotoBottom()

	return m, func() tea.Msg { return StreamRequestMsg{Content: text} }
}

// handleCommand runs a local slash command.
func (m Model) handleCommand(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/quit", "/q", "/exit":
		return m, tea.Quit

	case "/docs":
		m.showDocs = !m.showDocs
		m.resize(m.width, m.height)
		return m, nil

	case "/upload":
		if len(fields) < 2 {
			m.appendSystem("usage: /upload FILE...")
			m.refreshViewport()
			return m, nil
		}
		paths := fields[1:]
		return m, func() tea.Msg { return UploadRequestMsg{Paths: paths} }

	case "/clear":
		return m, func() tea.Msg { return ClearRequestMsg{} }

	case "/help":
		m.appendSystem("Commands: /docs toggle panel, /upload FILE..., /clear, /quit")
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	default:
		m.appendSystem("unknown command: " + fields[0] + " (try /help)")
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil
	}
}
