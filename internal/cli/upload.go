// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// upload.go - Document upload command handler for pdfchat CLI.
//
// Handles "pdfchat upload" which pushes PDFs into a session and waits
// for processing, printing per-document results.
//
// Examples:
//   pdfchat upload report.pdf                   New session, print its ID
//   pdfchat upload --session sess-abc more.pdf  Add to an existing session
package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/pdfchat-tui/internal/session"
)

func runUpload(args *ArgParser) error {
	files := args.PositionalFrom(0)
	if len(files) == 0 {
		return fmt.Errorf("no files given (usage: pdfchat upload FILE...)")
	}

	cfg, client, err := loadClient()
	if err != nil {
		return err
	}

	ctx := context.Background()
	mgr := session.NewManager(client, session.Config{PollInterval: cfg.PollInterval()})

	if existing := args.Flag("session"); existing != "" {
		if err := mgr.Resume(ctx, existing); err != nil {
			return fmt.Errorf("could not resume session %s: %w", existing, err)
		}
	} else {
		if err := mgr.Start(ctx); err != nil {
			return fmt.Errorf("could not create session: %w", err)
		}
	}

	if err := uploadAndWait(ctx, mgr, files); err != nil {
		return err
	}

	for _, d := range mgr.Documents() {
		line := fmt.Sprintf("  %-30s %s", d.Filename, d.Status)
		if d.Pages > 0 {
			line += fmt.Sprintf(" (%d pages)", d.Pages)
		}
		if d.Error != "" {
			line += " - " + d.Error
		}
		fmt.Println(line)
	}
	fmt.Printf("Session: %s\n", mgr.SessionID())
	return nil
}
