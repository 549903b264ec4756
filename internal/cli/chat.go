// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for pdfchat CLI.
//
// Handles "pdfchat chat", a readline-style REPL for conversing with the
// backend without the full TUI.
//
// Interactive commands:
//   /docs               List documents in the session
//   /upload PATH...     Upload more PDFs
//   /history            Show the conversation so far
//   /clear              Clear the chat history (documents stay)
//   /quit, /q           Exit chat
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/pdfchat-tui/internal/api"
	"github.com/jeranaias/pdfchat-tui/internal/archive"
	"github.com/jeranaias/pdfchat-tui/internal/chat"
	"github.com/jeranaias/pdfchat-tui/internal/config"
	"github.com/jeranaias/pdfchat-tui/internal/session"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	cli.loadHistory()
	return cli
}

func (c *ChatCLI) loadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

func runChat(args *ArgParser) error {
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
	defer mgr.Close(ctx)

	conv := chat.NewConversation(client, mgr.SessionID())
	if args.Flag("session") != "" {
		// Resumed session: pull the server-side history.
		if err := conv.LoadHistory(ctx, cfg.HistoryLimit); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load history: %v\n", err)
		}
	}

	if files := splitFileList(args.Flag("file"), args.Flag("f")); len(files) > 0 {
		if err := uploadAndWait(ctx, mgr, files); err != nil {
			return err
		}
	}

	// Archive on exit so closed sessions stay browsable.
	var store *archive.Store
	if cfg.Archive.Enabled {
		if path, err := cfg.ArchivePath(); err == nil {
			if s, err := archive.Open(path); err == nil {
				store = s
				defer func() {
					store.SaveSession(mgr.SessionID(), mgr.StartTime(), mgr.Documents(), conv.History())
					store.MarkClosed(mgr.SessionID(), time.Now())
					store.Close()
				}()
			}
		}
	}

	input := NewChatCLI()
	defer input.Close()

	fmt.Printf("pdfchat session %s - type /quit to exit, /upload to add PDFs\n\n", mgr.SessionID())

	for {
		line, err := input.ReadInput("you> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			// io.EOF on Ctrl+D
			fmt.Println()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := handleChatCommand(ctx, line, mgr, conv); quit {
				return nil
			}
			continue
		}

		fmt.Print("assistant> ")
		_, err = conv.SendStream(ctx, line, func(chunk api.StreamChunk) {
			fmt.Print(chunk.Text())
		})
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		history := conv.History()
		if len(history) > 0 {
			printReferences(history[len(history)-1].References)
		}
		fmt.Println()
	}
}

// handleChatCommand executes a slash command. Returns true to exit.
func handleChatCommand(ctx context.Context, line string, mgr *session.Manager, conv *chat.Conversation) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/q", "/exit":
		return true

	case "/docs":
		docs := mgr.Documents()
		if len(docs) == 0 {
			fmt.Println("No documents uploaded.")
			break
		}
		for _, d := range docs {
			line := fmt.Sprintf("  %-30s %s", d.Filename, d.Status)
			if d.Error != "" {
				line += " - " + d.Error
			}
			fmt.Println(line)
		}

	case "/upload":
		if len(fields) < 2 {
			fmt.Println("Usage: /upload FILE...")
			break
		}
		if err := uploadAndWait(ctx, mgr, fields[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

	case "/history":
		for _, msg := range conv.History() {
			fmt.Printf("[%s] %s\n", msg.Role.DisplayName(), msg.Content)
		}

	case "/clear":
		if err := conv.Clear(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Println("History cleared.")
		}

	case "/help", "/h":
		fmt.Println("Commands: /docs /upload /history /clear /quit")

	default:
		fmt.Printf("Unknown command %s (try /help)\n", fields[0])
	}
	return false
}
