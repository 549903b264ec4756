// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the pdfchat-tui application.
//
// This package contains common helper functions used throughout the
// application for string manipulation, type conversion, and file operations.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//
// Formatting:
//   - FormatBytes: human-readable byte sizes
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
package util
