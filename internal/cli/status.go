// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command handler for pdfchat CLI.
//
// Handles "pdfchat status" which reports whether the backend is
// reachable and, with --session, the state of a session.
package cli

import (
	"context"
	"fmt"
	"time"
)

func runStatus(args *ArgParser) error {
	cfg, client, err := loadClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Printf("Server: %s\n", cfg.ServerURL)

	sessionID := args.Flag("session")
	if sessionID == "" {
		// No session given: probe reachability by creating and closing a
		// throwaway session.
		sess, err := client.CreateSession(ctx)
		if err != nil {
			fmt.Println("Status: unreachable")
			return err
		}
		client.CloseSession(ctx, sess.SessionID)
		fmt.Println("Status: ok")
		return nil
	}

	status, err := client.SessionStatus(ctx, sessionID)
	if err != nil {
		return err
	}
	fmt.Printf("Session:   %s\n", status.SessionID)
	fmt.Printf("State:     %s\n", status.Status)
	fmt.Printf("Documents: %d\n", status.DocumentsCount)
	if status.CreatedAt != "" {
		fmt.Printf("Created:   %s\n", status.CreatedAt)
	}

	docs, err := client.ListDocuments(ctx, sessionID)
	if err == nil && docs.Count > 0 {
		fmt.Println("Document IDs:")
		for _, id := range docs.Documents {
			fmt.Println("  " + id)
		}
	}
	return nil
}
