// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the pdfchat-tui application.
package util

import "strconv"

// FormatBytes renders a byte count as a human-readable size (B, KB, MB, GB).
// Upload sizes in the document panel never exceed GB in practice.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	value := float64(n) / float64(div)
	suffix := []string{"KB", "MB", "GB", "TB"}[exp]
	return strconv.FormatFloat(value, 'f', 1, 64) + " " + suffix
}
