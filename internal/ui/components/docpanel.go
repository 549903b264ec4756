// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/pdfchat-tui/internal/model"
	"github.com/jeranaias/pdfchat-tui/internal/ui/styles"
	"github.com/jeranaias/pdfchat-tui/internal/util"
)

// =============================================================================
// DOCUMENT PANEL COMPONENT
// =============================================================================

// DocumentPanel shows the uploaded documents and their processing state.
// It is toggled with Ctrl+D and refreshed from session manager updates.
type DocumentPanel struct {
	theme *styles.Theme
	docs  []model.Document
	width int
}

// NewDocumentPanel creates an empty document panel.
func NewDocumentPanel(theme *styles.Theme) DocumentPanel {
	return DocumentPanel{theme: theme}
}

// SetDocuments replaces the panel contents.
func (p *DocumentPanel) SetDocuments(docs []model.Document) {
	p.docs = docs
}

// SetWidth sets the available render width.
func (p *DocumentPanel) SetWidth(w int) {
	p.width = w
}

// Count returns the number of documents shown.
func (p DocumentPanel) Count() int {
	return len(p.docs)
}

// statusLine formats one document row: indicator, filename, detail.
func (p DocumentPanel) statusLine(d model.Document) string {
	var icon string
	var style = p.theme.DocPending
	switch d.Status {
	case model.StatusCompleted:
		icon = styles.StatusIndicators.Success
		style = p.theme.DocReady
	case model.StatusFailed:
		icon = styles.StatusIndicators.Error
		style = p.theme.DocFailed
	case model.StatusProcessing:
		icon = styles.StatusIndicators.Active
	default:
		icon = styles.StatusIndicators.Pending
	}

	name := truncateToWidth(d.Filename, 32)
	line := fmt.Sprintf("%s %s %s", icon, name, d.Status)
	if d.Size > 0 {
		line += " " + util.FormatBytes(d.Size)
	}
	if d.Pages > 0 {
		line += fmt.Sprintf(" (%d pages)", d.Pages)
	}
	if d.Error != "" {
		line += " - " + truncateToWidth(d.Error, 40)
	}
	return style.Render(line)
}

// View renders the bordered panel. Returns an empty string when there are
// no documents.
func (p DocumentPanel) View() string {
	if len(p.docs) == 0 {
		return ""
	}

	lines := make([]string, 0, len(p.docs)+1)
	lines = append(lines, p.theme.DocPanelTitle.Render("Documents"))
	for _, d := range p.docs {
		lines = append(lines, p.statusLine(d))
	}

	panel := p.theme.DocPanel
	if p.width > 4 {
		panel = panel.Width(p.width - 2)
	}
	return panel.Render(strings.Join(lines, "\n"))
}

// truncateToWidth shortens s to fit the given display width, accounting
// for wide characters.
func truncateToWidth(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
