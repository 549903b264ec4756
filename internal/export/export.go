// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders archived conversations to portable formats.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/pdfchat-tui/internal/archive"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts an archived session to a target format.
type Exporter interface {
	// Export renders the session and returns the file content.
	Export(sess *archive.ArchivedSession) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g. ".md").
	FileExtension() string
}

// ForFormat returns the exporter for a format name ("markdown" or "json").
func ForFormat(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return &MarkdownExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unknown export format: %s", format)
	}
}

// =============================================================================
// FILE EXPORT
// =============================================================================

// ToFile exports a session into outputDir and returns the written path.
func ToFile(sess *archive.ArchivedSession, exporter Exporter, outputDir string) (string, error) {
	content, err := exporter.Export(sess)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	filename := fmt.Sprintf("session_%s_%s%s",
		sanitizeFilename(sess.ID),
		time.Now().Format("20060102_150405"),
		exporter.FileExtension(),
	)
	outputPath := filepath.Join(outputDir, filename)
	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// sanitizeFilename strips characters that are unsafe in filenames.
func sanitizeFilename(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "session"
	}
	return sb.String()
}
