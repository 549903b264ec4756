// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pdfchat-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current application status shown in the bar.
type Status int

const (
	StatusReady Status = iota
	StatusConnecting
	StatusStreaming
	StatusUploading
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusConnecting:
		return "Connecting..."
	case StatusStreaming:
		return "Streaming..."
	case StatusUploading:
		return "Processing..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns a shape indicator for the status, so state is readable
// without color.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusConnecting, StatusUploading:
		return styles.StatusIndicators.Pending
	case StatusStreaming:
		return "~"
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// StatusBar is the bottom status bar: connection state on the left,
// document readiness and key hints on the right.
type StatusBar struct {
	theme *styles.Theme

	Status    Status
	DocsReady int
	DocsTotal int
	Width     int
}

// NewStatusBar creates a status bar for the given theme.
func NewStatusBar(theme *styles.Theme) StatusBar {
	return StatusBar{theme: theme, Status: StatusConnecting}
}

// statusStyle picks the style matching the current status.
func (b StatusBar) statusStyle() lipgloss.Style {
	switch b.Status {
	case StatusReady:
		return b.theme.StatusReady
	case StatusError:
		return b.theme.StatusError
	default:
		return b.theme.StatusBusy
	}
}

// View renders the status bar padded to the full width.
func (b StatusBar) View() string {
	left := b.statusStyle().Render(b.Status.Icon() + " " + b.Status.String())

	var parts []string
	if b.DocsTotal > 0 {
		parts = append(parts, fmt.Sprintf("docs %d/%d", b.DocsReady, b.DocsTotal))
	}
	parts = append(parts,
		b.theme.ShortcutKey.Render("^D")+b.theme.ShortcutDesc.Render(" docs"),
		b.theme.ShortcutKey.Render("^C")+b.theme.ShortcutDesc.Render(" quit"),
	)
	right := strings.Join(parts, "  ")

	gap := b.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return b.theme.StatusBar.Render(left + strings.Repeat(" ", gap) + right)
}
