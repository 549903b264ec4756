// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions, documents and chat.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// REFERENCE TYPE
// =============================================================================

// Reference points from an assistant answer to a source document page.
type Reference struct {
	DocumentID   string  `json:"document_id,omitempty"`
	DocumentName string  `json:"document_name"`
	PageNumber   int     `json:"page_number"`
	Section      string  `json:"section,omitempty"`
	Excerpt      string  `json:"excerpt,omitempty"`
	Relevance    float64 `json:"relevance_score,omitempty"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
// Messages are immutable once appended to a history; streaming state is
// tracked by the UI layer, not here.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content (markdown for assistant messages)
	Content string `json:"content"`

	// Source references (assistant messages only)
	References []Reference `json:"references,omitempty"`
}

// NewUserMessage creates a user message with a fresh ID and timestamp.
func NewUserMessage(content string) Message {
	return Message{
		ID:        generateMessageID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage creates an assistant message carrying an answer and
// its supporting references.
func NewAssistantMessage(content string, refs []Reference) Message {
	return Message{
		ID:         generateMessageID(),
		Role:       RoleAssistant,
		Content:    content,
		References: refs,
		Timestamp:  time.Now(),
	}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{
		ID:        generateMessageID(),
		Role:      RoleSystem,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// HasReferences returns true if the message cites at least one source page.
func (m *Message) HasReferences() bool {
	return len(m.References) > 0
}

// generateMessageID creates a unique message ID.
func generateMessageID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}
