// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/pdfchat-tui/internal/archive"
	"github.com/jeranaias/pdfchat-tui/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter renders an archived session as pretty-printed JSON.
// The export is a faithful, complete representation of the stored session.
type JSONExporter struct{}

// jsonSession is the exported document shape.
type jsonSession struct {
	SessionID     string          `json:"session_id"`
	CreatedAt     time.Time       `json:"created_at"`
	ClosedAt      *time.Time      `json:"closed_at,omitempty"`
	DocumentNames []string        `json:"documents"`
	Messages      []model.Message `json:"messages"`
}

// Export converts a session to JSON.
func (e *JSONExporter) Export(sess *archive.ArchivedSession) ([]byte, error) {
	if sess == nil {
		return nil, fmt.Errorf("session is nil")
	}

	doc := jsonSession{
		SessionID:     sess.ID,
		CreatedAt:     sess.CreatedAt,
		DocumentNames: sess.DocumentNames,
		Messages:      sess.Messages,
	}
	if !sess.ClosedAt.IsZero() {
		closed := sess.ClosedAt
		doc.ClosedAt = &closed
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}
