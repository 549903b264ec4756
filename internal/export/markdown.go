// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/pdfchat-tui/internal/archive"
	"github.com/jeranaias/pdfchat-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders an archived session as a Markdown document:
// session metadata, each turn with a role heading, and reference footnotes
// under assistant answers.
type MarkdownExporter struct{}

// Export converts a session to Markdown.
func (e *MarkdownExporter) Export(sess *archive.ArchivedSession) ([]byte, error) {
	if sess == nil {
		return nil, fmt.Errorf("session is nil")
	}
	if len(sess.Messages) == 0 {
		return nil, fmt.Errorf("session has no messages")
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Session %s\n\n", sess.ID))
	sb.WriteString(fmt.Sprintf("- **Created**: %s\n", sess.CreatedAt.Format(time.RFC3339)))
	if !sess.ClosedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("- **Closed**: %s\n", sess.ClosedAt.Format(time.RFC3339)))
	}
	if len(sess.DocumentNames) > 0 {
		sb.WriteString(fmt.Sprintf("- **Documents**: %s\n", strings.Join(sess.DocumentNames, ", ")))
	}
	sb.WriteString(fmt.Sprintf("- **Messages**: %d\n", len(sess.Messages)))
	sb.WriteString("\n---\n\n")

	for _, msg := range sess.Messages {
		sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n",
			msg.Role.DisplayName(), msg.Timestamp.Format("2006-01-02 15:04")))
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")

		if msg.HasReferences() {
			sb.WriteString("> Sources:\n")
			for _, ref := range msg.References {
				sb.WriteString("> - " + formatReference(ref) + "\n")
			}
			sb.WriteString("\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// formatReference renders one source reference as a single line.
func formatReference(ref model.Reference) string {
	s := fmt.Sprintf("%s, p.%d", ref.DocumentName, ref.PageNumber)
	if ref.Section != "" {
		s += " (" + ref.Section + ")"
	}
	return s
}
