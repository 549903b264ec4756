// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/pdfchat-tui/internal/ui/styles"
)

// =============================================================================
// ERROR BANNER COMPONENT
// =============================================================================

// ErrorBanner is a dismissible inline error display. It renders above the
// input area rather than as a modal so chatting can continue.
type ErrorBanner struct {
	theme   *styles.Theme
	title   string
	message string
	visible bool
	width   int
}

// NewErrorBanner creates a hidden error banner.
func NewErrorBanner(theme *styles.Theme) ErrorBanner {
	return ErrorBanner{theme: theme}
}

// Show displays the banner with the given title and message.
func (e *ErrorBanner) Show(title, message string) {
	e.title = title
	e.message = message
	e.visible = true
}

// Hide dismisses the banner.
func (e *ErrorBanner) Hide() {
	e.visible = false
}

// IsVisible returns whether the banner is currently shown.
func (e ErrorBanner) IsVisible() bool {
	return e.visible
}

// Message returns the current error message text.
func (e ErrorBanner) Message() string {
	return e.message
}

// SetWidth sets the available render width.
func (e *ErrorBanner) SetWidth(w int) {
	e.width = w
}

// View renders the banner, or an empty string when hidden.
func (e ErrorBanner) View() string {
	if !e.visible {
		return ""
	}

	lines := []string{
		e.theme.ErrorTitle.Render(styles.StatusIndicators.Error + " " + e.title),
		e.theme.ErrorMessage.Render(e.message),
		e.theme.ErrorHint.Render("esc to dismiss"),
	}

	box := e.theme.ErrorBox
	if e.width > 4 {
		box = box.Width(e.width - 2)
	}
	return box.Render(strings.Join(lines, "\n"))
}
