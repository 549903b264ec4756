// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions.go - Archive browsing command handler for pdfchat CLI.
//
// Handles "pdfchat sessions" which operates on the local conversation
// archive (closed sessions stay readable offline).
//
// Subcommands: list (default), show, search, export, delete, clear.
package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/pdfchat-tui/internal/archive"
	"github.com/jeranaias/pdfchat-tui/internal/config"
	"github.com/jeranaias/pdfchat-tui/internal/export"
	"github.com/jeranaias/pdfchat-tui/internal/util"
)

func runSessions(args *ArgParser) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	path, err := cfg.ArchivePath()
	if err != nil {
		return err
	}
	store, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	switch args.Subcommand() {
	case "", "list":
		return sessionsList(store)
	case "show":
		return sessionsShow(store, args.Positional(1))
	case "search":
		return sessionsSearch(store, strings.Join(args.PositionalFrom(1), " "))
	case "export":
		return sessionsExport(store, args)
	case "delete":
		return sessionsDelete(store, args.Positional(1))
	case "clear":
		if !args.BoolFlag("confirm") {
			return fmt.Errorf("refusing to clear the archive without --confirm")
		}
		return store.Clear()
	default:
		return fmt.Errorf("unknown sessions subcommand: %s", args.Subcommand())
	}
}

func sessionsList(store *archive.Store) error {
	metas, err := store.List()
	if err != nil {
		return err
	}
	printSessionTable(metas)
	return nil
}

func sessionsSearch(store *archive.Store, query string) error {
	if query == "" {
		return fmt.Errorf("no search query given")
	}
	metas, err := store.Search(query)
	if err != nil {
		return err
	}
	printSessionTable(metas)
	return nil
}

func printSessionTable(metas []archive.SessionMeta) {
	if len(metas) == 0 {
		fmt.Println("No archived sessions.")
		return
	}
	fmt.Printf("%-20s %-17s %8s  %s\n", "ID", "CREATED", "MESSAGES", "PREVIEW")
	for _, m := range metas {
		fmt.Printf("%-20s %-17s %8d  %s\n",
			util.TruncateRunesNoEllipsis(m.ID, 20),
			m.CreatedAt.Format("2006-01-02 15:04"),
			m.MessageCount,
			util.TruncateRunes(m.Preview, 40),
		)
	}
}

func sessionsShow(store *archive.Store, id string) error {
	if id == "" {
		return fmt.Errorf("no session ID given (usage: pdfchat sessions show ID)")
	}
	sess, err := store.Load(id)
	if err != nil {
		return err
	}

	fmt.Printf("Session %s (created %s)\n", sess.ID, sess.CreatedAt.Format("2006-01-02 15:04"))
	if len(sess.DocumentNames) > 0 {
		fmt.Printf("Documents: %s\n", strings.Join(sess.DocumentNames, ", "))
	}
	fmt.Println()

	for _, msg := range sess.Messages {
		fmt.Printf("[%s %s]\n%s\n", msg.Role.DisplayName(),
			msg.Timestamp.Format("15:04"), msg.Content)
		printReferences(msg.References)
		fmt.Println()
	}
	return nil
}

func sessionsExport(store *archive.Store, args *ArgParser) error {
	id := args.Positional(1)
	if id == "" {
		return fmt.Errorf("no session ID given (usage: pdfchat sessions export ID)")
	}
	sess, err := store.Load(id)
	if err != nil {
		return err
	}

	exporter, err := export.ForFormat(args.FlagOrDefault("format", "markdown"))
	if err != nil {
		return err
	}
	path, err := export.ToFile(sess, exporter, args.FlagOrDefault("out", "."))
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

func sessionsDelete(store *archive.Store, id string) error {
	if id == "" {
		return fmt.Errorf("no session ID given (usage: pdfchat sessions delete ID)")
	}
	if err := store.Delete(id); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}
