// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions, documents and chat.
//
// This package defines the core domain types used throughout the application
// for representing uploaded documents, their processing lifecycle, and the
// messages exchanged with the PDF question-answering backend.
//
// # Key Types
//
//   - Document: an uploaded PDF and its processing status
//   - DocStatus: document lifecycle enumeration (pending, processing, completed, failed)
//   - Message: single chat message with role, content and source references
//   - Reference: pointer from an assistant answer to a document page
//   - Role: message role enumeration (user, assistant, system)
//
// # Usage
//
// Create a document optimistically before the upload response arrives:
//
//	doc := model.NewPendingDocument("paper.pdf", 1832004)
//
// Build messages:
//
//	msg := model.NewUserMessage("What are the main findings?")
package model
