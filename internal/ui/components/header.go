// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pdfchat-tui/internal/ui/styles"
	"github.com/jeranaias/pdfchat-tui/internal/util"
)

// Header is the single-line application header showing the app name, the
// backend address and the active session.
type Header struct {
	theme     *styles.Theme
	appName   string
	version   string
	sessionID string
	serverURL string
	width     int
}

// NewHeader creates a header for the given theme.
func NewHeader(theme *styles.Theme, version string) Header {
	return Header{
		theme:   theme,
		appName: "pdfchat",
		version: version,
	}
}

// SetSessionID sets the session shown on the right side of the header.
func (h *Header) SetSessionID(id string) {
	h.sessionID = id
}

// SetServerURL sets the backend address shown next to the app name.
func (h *Header) SetServerURL(u string) {
	h.serverURL = u
}

// SetWidth sets the available render width.
func (h *Header) SetWidth(w int) {
	h.width = w
}

// View renders the header line padded to the full width.
func (h Header) View() string {
	left := h.theme.HeaderTitle.Render(h.appName)
	if h.version != "" {
		left += " " + h.theme.HeaderSubtitle.Render("v"+h.version)
	}
	if h.serverURL != "" {
		left += "  " + h.theme.HeaderSubtitle.Render(h.serverURL)
	}

	right := ""
	if h.sessionID != "" {
		right = h.theme.HeaderSubtitle.Render("session " + util.TruncateRunesNoEllipsis(h.sessionID, 16))
	}

	gap := h.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return h.theme.Header.Render(left + strings.Repeat(" ", gap) + right)
}
