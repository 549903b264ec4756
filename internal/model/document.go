// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions, documents and chat.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DOCUMENT STATUS
// =============================================================================

// DocStatus represents the processing lifecycle of an uploaded document.
// Valid transitions: pending -> processing -> completed | failed.
type DocStatus string

const (
	StatusPending    DocStatus = "pending"
	StatusProcessing DocStatus = "processing"
	StatusCompleted  DocStatus = "completed"
	StatusFailed     DocStatus = "failed"
)

// String returns the string representation of the status.
func (s DocStatus) String() string {
	return string(s)
}

// IsTerminal returns true once the document can no longer change state.
func (s DocStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseDocStatus converts a server status string to a DocStatus.
// Unknown values map to StatusPending so a new server-side state never
// regresses a terminal document.
func ParseDocStatus(s string) (DocStatus, bool) {
	switch DocStatus(strings.ToLower(s)) {
	case StatusPending:
		return StatusPending, true
	case StatusProcessing:
		return StatusProcessing, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusFailed:
		return StatusFailed, true
	default:
		return StatusPending, false
	}
}

// =============================================================================
// DOCUMENT TYPE
// =============================================================================

// Document represents an uploaded PDF within a session.
//
// A document is created optimistically with a client-generated temporary ID
// when the file is selected, then reconciled with the server-assigned ID once
// the upload response arrives.
type Document struct {
	// ID is the server-assigned identifier, or a "tmp_" prefixed UUID before
	// the upload response has been reconciled.
	ID       string    `json:"id"`
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	Status   DocStatus `json:"status"`

	// Error carries the server-reported failure reason, if any.
	Error string `json:"error,omitempty"`

	// Pages is known only after processing completes.
	Pages int `json:"pages,omitempty"`

	AddedAt time.Time `json:"added_at"`
}

// NewPendingDocument creates a document in the pending state with a
// temporary client-side identifier.
func NewPendingDocument(filename string, size int64) Document {
	return Document{
		ID:       "tmp_" + uuid.NewString(),
		Filename: filename,
		Size:     size,
		Status:   StatusPending,
		AddedAt:  time.Now(),
	}
}

// IsReconciled returns true once the document carries a server-assigned ID.
func (d *Document) IsReconciled() bool {
	return !strings.HasPrefix(d.ID, "tmp_")
}
