// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"github.com/jeranaias/pdfchat-tui/internal/model"
)

// =============================================================================
// SESSION TYPES
// =============================================================================

// Session is the response from POST /api/session/create.
type Session struct {
	SessionID      string `json:"session_id"`
	CreatedAt      string `json:"created_at"`
	ExpiresInHours int    `json:"expires_in_hours"`
	Status         string `json:"status"`
}

// SessionClose is the response from DELETE /api/session/close/{id}.
type SessionClose struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	DeletedAt string `json:"deleted_at"`
}

// SessionStatus is the response from GET /api/session/status/{id}.
type SessionStatus struct {
	SessionID      string `json:"session_id"`
	Status         string `json:"status"`
	DocumentsCount int    `json:"documents_count"`
	CreatedAt      string `json:"created_at"`
}

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// DocumentStatus describes one document inside an upload or job response.
type DocumentStatus struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	Pages      int    `json:"pages,omitempty"`
	Chunks     int    `json:"chunks,omitempty"`
}

// UploadResponse is the response from POST /api/documents/upload.
type UploadResponse struct {
	JobID     string           `json:"job_id"`
	SessionID string           `json:"session_id"`
	Documents []DocumentStatus `json:"documents"`
	Message   string           `json:"message"`
}

// JobStatus is the response from GET /api/documents/status/{job_id}.
// Status is the aggregate over all documents in the batch: completed only
// when every document completed, failed as soon as any document failed.
type JobStatus struct {
	JobID     string           `json:"job_id"`
	Status    string           `json:"status"`
	Progress  int              `json:"progress"`
	Documents []DocumentStatus `json:"documents"`
	Message   string           `json:"message"`
}

// IsTerminal reports whether the job has reached a final state and
// polling should stop.
func (j *JobStatus) IsTerminal() bool {
	return j.Status == "completed" || j.Status == "failed"
}

// DocumentList is the response from GET /api/documents/list/{id}.
type DocumentList struct {
	SessionID string   `json:"session_id"`
	Documents []string `json:"documents"`
	Count     int      `json:"count"`
}

// =============================================================================
// CHAT TYPES
// =============================================================================

// TokenUsage reports LLM token consumption for one answer.
type TokenUsage struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	TotalTokens  int    `json:"total_tokens"`
}

// ChatAnswer is the response from POST /api/chat/message.
type ChatAnswer struct {
	SessionID  string            `json:"session_id"`
	Answer     string            `json:"answer"`
	References []model.Reference `json:"references"`
	Confidence float64           `json:"confidence,omitempty"`
	Timestamp  string            `json:"timestamp"`
	TokenUsage *TokenUsage       `json:"token_usage,omitempty"`
}

// HistoryMessage is one entry in the server-side chat history.
type HistoryMessage struct {
	Role       string            `json:"role"`
	Content    string            `json:"content"`
	Timestamp  string            `json:"timestamp"`
	References []model.Reference `json:"references,omitempty"`
}

// ChatHistory is the response from GET /api/chat/history/{id}.
type ChatHistory struct {
	SessionID     string           `json:"session_id"`
	Messages      []HistoryMessage `json:"messages"`
	TotalMessages int              `json:"total_messages"`
}

// chatRequest is the JSON body for both chat endpoints.
type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}
