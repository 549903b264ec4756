// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the pdfchat TUI.
//
// The view is a Bubble Tea model composed of a message viewport, a text
// input, a toggleable document panel, a dismissible error banner and a
// status bar. It owns display state only: network work happens in the
// application model, which translates user intent messages
// (StreamRequestMsg, UploadRequestMsg, ClearRequestMsg) into backend
// calls and feeds results back as stream and session messages.
//
// # Message Flow
//
// Submitting input emits StreamRequestMsg. The application model streams
// the answer and delivers StreamStartMsg, a sequence of StreamTokenMsg,
// then either StreamCompleteMsg carrying the final assistant message or
// StreamErrorMsg. Document processing progress arrives as DocsUpdatedMsg
// from the session manager's update callback.
//
// # Slash Commands
//
// Input starting with "/" is handled locally: /docs toggles the document
// panel, /upload requests a file upload, /clear wipes the conversation,
// /help prints the command list and /quit exits.
package chat
