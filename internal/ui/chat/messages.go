// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/pdfchat-tui/internal/model"
)

// =============================================================================
// USER INTENT MESSAGES (emitted by the chat view)
// =============================================================================

// StreamRequestMsg asks the application model to stream an answer for the
// submitted question.
type StreamRequestMsg struct {
	Content string
}

// UploadRequestMsg asks the application model to upload PDF files into the
// active session.
type UploadRequestMsg struct {
	Paths []string
}

// ClearRequestMsg asks the application model to clear the conversation on
// the server and locally.
type ClearRequestMsg struct{}

// =============================================================================
// STREAMING MESSAGES (delivered by the application model)
// =============================================================================

// StreamStartMsg signals that streaming has begun.
type StreamStartMsg struct{}

// StreamTokenMsg delivers one answer token from the stream.
type StreamTokenMsg struct {
	Token string
}

// StreamCompleteMsg delivers the finished assistant message, references
// included.
type StreamCompleteMsg struct {
	Message model.Message
}

// StreamErrorMsg signals a failed send. Partial carries any answer text
// received before the stream broke.
type StreamErrorMsg struct {
	Err     error
	Partial string
}

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// SessionStartedMsg reports the outcome of session creation or resumption.
type SessionStartedMsg struct {
	SessionID string
	Err       error
}

// DocsUpdatedMsg carries the current document set after an upload or a
// processing poll. Err is set when polling failed.
type DocsUpdatedMsg struct {
	Docs []model.Document
	Err  error
}

// HistoryLoadedMsg replaces the displayed conversation, used when resuming
// a session with existing history.
type HistoryLoadedMsg struct {
	Messages []model.Message
}

// ClearedMsg reports the outcome of a conversation clear.
type ClearedMsg struct {
	Err error
}
