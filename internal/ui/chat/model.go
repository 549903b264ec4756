// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/pdfchat-tui/internal/model"
	"github.com/jeranaias/pdfchat-tui/internal/ui/components"
	"github.com/jeranaias/pdfchat-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateConnecting State = iota // Waiting for the session to open
	StateReady                   // Ready for input
	StateStreaming               // Receiving a streaming answer
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// State
	state State

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int
	ready  bool // viewport sized at least once

	// Displayed conversation
	messages []model.Message

	// In-progress answer text, appended token by token. A plain string:
	// tea.Model values are copied on every Update, which a strings.Builder
	// does not tolerate.
	streamBuf string

	// UI components
	viewport  viewport.Model
	input     textinput.Model
	spin      components.Spinner
	header    components.Header
	statusBar components.StatusBar
	docPanel  components.DocumentPanel
	errBanner components.ErrorBanner

	// Document panel visibility (Ctrl+D)
	showDocs bool

	// Markdown rendering for assistant messages; nil means plain text
	renderer *glamour.TermRenderer
}

// New creates a chat view. serverURL and version feed the header.
func New(theme *styles.Theme, serverURL, version string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	header := components.NewHeader(theme, version)
	header.SetServerURL(serverURL)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)
	if err != nil {
		renderer = nil
	}

	return Model{
		state:     StateConnecting,
		theme:     theme,
		viewport:  vp,
		input:     ti,
		spin:      components.NewSpinner(theme),
		header:    header,
		statusBar: components.NewStatusBar(theme),
		docPanel:  components.NewDocumentPanel(theme),
		errBanner: components.NewErrorBanner(theme),
		renderer:  renderer,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Messages returns the displayed conversation.
func (m Model) Messages() []model.Message {
	return m.messages
}

// State returns the current view state.
func (m Model) State() State {
	return m.state
}

// appendSystem adds a local system notice to the transcript.
func (m *Model) appendSystem(text string) {
	m.messages = append(m.messages, model.NewSystemMessage(text))
}
