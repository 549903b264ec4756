// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command handler for pdfchat CLI.
//
// Handles "pdfchat ask" which uploads PDFs into a session (or reuses an
// existing one), asks a single question, streams the answer to stdout,
// and prints the page references.
//
// Examples:
//   pdfchat ask -f report.pdf "What were Q3 revenues?"
//   pdfchat ask --session sess-abc "And Q4?"
//   pdfchat ask -f a.pdf,b.pdf --keep "Compare both documents"
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/pdfchat-tui/internal/api"
	"github.com/jeranaias/pdfchat-tui/internal/chat"
	"github.com/jeranaias/pdfchat-tui/internal/model"
	"github.com/jeranaias/pdfchat-tui/internal/session"
)

// processingTimeout bounds how long ask waits for document processing.
const processingTimeout = 5 * time.Minute

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the glamour renderer for answer output.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fall back to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// =============================================================================
// ASK COMMAND
// =============================================================================

func runAsk(args *ArgParser) error {
	question := strings.Join(args.PositionalFrom(0), " ")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("no question given (usage: pdfchat ask -f file.pdf \"question\")")
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
		if !args.BoolFlag("keep") {
			defer mgr.Close(ctx)
		}
	}

	if files := splitFileList(args.Flag("file"), args.Flag("f")); len(files) > 0 {
		if err := uploadAndWait(ctx, mgr, files); err != nil {
			return err
		}
	}

	conv := chat.NewConversation(client, mgr.SessionID())

	plain := args.BoolFlag("plain")
	var answer model.Message
	if plain {
		// Stream tokens straight to stdout.
		answer, err = conv.SendStream(ctx, question, func(chunk api.StreamChunk) {
			fmt.Print(chunk.Text())
		})
		fmt.Println()
	} else {
		answer, err = conv.Send(ctx, question)
	}
	if err != nil {
		return err
	}

	if !plain {
		fmt.Print(renderMarkdown(answer.Content))
	}
	printReferences(answer.References)

	if args.BoolFlag("keep") {
		fmt.Fprintf(os.Stderr, "Session kept open: %s\n", mgr.SessionID())
	}
	return nil
}

// splitFileList merges the --file and -f flags into a path list.
// Both accept comma-separated values.
func splitFileList(values ...string) []string {
	var files []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				files = append(files, part)
			}
		}
	}
	return files
}

// uploadAndWait uploads files and blocks until every document reaches a
// terminal state, reporting progress to stderr.
func uploadAndWait(ctx context.Context, mgr *session.Manager, files []string) error {
	fmt.Fprintf(os.Stderr, "Uploading %d file(s)...\n", len(files))
	if _, err := mgr.Upload(ctx, files); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	deadline := time.Now().Add(processingTimeout)
	for {
		docs := mgr.Documents()
		allDone := true
		for _, d := range docs {
			if !d.Status.IsTerminal() {
				allDone = false
				break
			}
		}
		if allDone {
			var failed []string
			for _, d := range docs {
				if d.Status == model.StatusFailed {
					failed = append(failed, fmt.Sprintf("%s (%s)", d.Filename, d.Error))
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("document processing failed: %s", strings.Join(failed, "; "))
			}
			fmt.Fprintf(os.Stderr, "Processing complete: %d document(s) ready.\n", len(docs))
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for document processing")
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// printReferences prints answer references as a footnote list.
func printReferences(refs []model.Reference) {
	if len(refs) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for _, ref := range refs {
		line := fmt.Sprintf("  - %s, p.%d", ref.DocumentName, ref.PageNumber)
		if ref.Section != "" {
			line += " (" + ref.Section + ")"
		}
		fmt.Println(line)
	}
}
