// pdfchat - A terminal client for conversational PDF question answering.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pdfchat-tui/internal/api"
	"github.com/jeranaias/pdfchat-tui/internal/archive"
	"github.com/jeranaias/pdfchat-tui/internal/chat"
	"github.com/jeranaias/pdfchat-tui/internal/cli"
	"github.com/jeranaias/pdfchat-tui/internal/config"
	"github.com/jeranaias/pdfchat-tui/internal/model"
	"github.com/jeranaias/pdfchat-tui/internal/session"
	uichat "github.com/jeranaias/pdfchat-tui/internal/ui/chat"
	"github.com/jeranaias/pdfchat-tui/internal/ui/styles"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for async streaming and session callbacks.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

// sendToProgram delivers a message to the running Bubble Tea program, if any.
func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	if cmd == cli.CmdTUI {
		os.Exit(runTUI(args))
	}
	os.Exit(cli.Run(cmd, args))
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// appModel is the top-level Bubble Tea model. It owns the backend clients
// and translates the chat view's intent messages into network calls,
// feeding results back through the program.
type appModel struct {
	chatModel uichat.Model

	cfg  *config.Config
	mgr  *session.Manager
	conv *chat.Conversation

	resumeID     string
	streamCancel context.CancelFunc
}

// Init starts the chat view and opens the session.
func (m *appModel) Init() tea.Cmd {
	return tea.Batch(
		m.chatModel.Init(),
		m.startSession(),
	)
}

// startSession creates or resumes the backend session.
func (m *appModel) startSession() tea.Cmd {
	mgr := m.mgr
	conv := m.conv
	resumeID := m.resumeID

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if resumeID != "" {
			if err := mgr.Resume(ctx, resumeID); err != nil {
				return uichat.SessionStartedMsg{Err: err}
			}
		} else {
			if err := mgr.Start(ctx); err != nil {
				return uichat.SessionStartedMsg{Err: err}
			}
		}
		conv.SetSession(mgr.SessionID())
		return uichat.SessionStartedMsg{SessionID: mgr.SessionID()}
	}
}

// loadHistory fetches server-side history after a resume.
func (m *appModel) loadHistory() tea.Cmd {
	conv := m.conv
	limit := m.cfg.HistoryLimit

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := conv.LoadHistory(ctx, limit); err != nil {
			return uichat.StreamErrorMsg{Err: err}
		}
		return uichat.HistoryLoadedMsg{Messages: conv.History()}
	}
}

// startStreaming runs one streamed question end to end. Tokens are pushed
// through the program as they arrive; the command's return value is the
// terminal message.
func (m *appModel) startStreaming(content string) tea.Cmd {
	conv := m.conv

	ctx, cancel := context.WithCancel(context.Background())
	m.streamCancel = cancel

	return func() tea.Msg {
		defer cancel()

		sendToProgram(uichat.StreamStartMsg{})

		answer, err := conv.SendStream(ctx, content, func(chunk api.StreamChunk) {
			if chunk.IsText() {
				sendToProgram(uichat.StreamTokenMsg{Token: chunk.Text()})
			}
		})
		if err != nil {
			var streamErr *api.StreamError
			if errors.As(err, &streamErr) {
				return uichat.StreamErrorMsg{Err: streamErr.Err, Partial: streamErr.Partial}
			}
			return uichat.StreamErrorMsg{Err: err}
		}
		return uichat.StreamCompleteMsg{Message: answer}
	}
}

// upload pushes files into the session; progress arrives asynchronously
// through the session manager's update callback.
func (m *appModel) upload(paths []string) tea.Cmd {
	mgr := m.mgr

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := mgr.Upload(ctx, paths); err != nil {
			return uichat.DocsUpdatedMsg{Docs: mgr.Documents(), Err: err}
		}
		return nil
	}
}

// clear wipes the conversation server-side and locally.
func (m *appModel) clear() tea.Cmd {
	conv := m.conv

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return uichat.ClearedMsg{Err: conv.Clear(ctx)}
	}
}

// Update handles messages and updates the model.
func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case uichat.StreamRequestMsg:
		return m, m.startStreaming(msg.Content)

	case uichat.UploadRequestMsg:
		return m, m.upload(msg.Paths)

	case uichat.ClearRequestMsg:
		return m, m.clear()

	case uichat.SessionStartedMsg:
		var cmds []tea.Cmd
		newChat, cmd := m.chatModel.Update(msg)
		m.chatModel = newChat.(uichat.Model)
		cmds = append(cmds, cmd)
		if msg.Err == nil && m.resumeID != "" {
			cmds = append(cmds, m.loadHistory())
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		// Esc during streaming cancels the in-flight request.
		if msg.String() == "esc" && m.streamCancel != nil {
			m.streamCancel()
			m.streamCancel = nil
		}
	}

	newChat, cmd := m.chatModel.Update(msg)
	m.chatModel = newChat.(uichat.Model)
	return m, cmd
}

// View renders the chat view.
func (m *appModel) View() string {
	return m.chatModel.View()
}

// =============================================================================
// TUI STARTUP
// =============================================================================

// runTUI starts the interactive terminal interface.
func runTUI(args *cli.ArgParser) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	client := api.NewClient(cfg.ServerURL).WithTimeout(cfg.Timeout())
	mgr := session.NewManager(client, session.Config{PollInterval: cfg.PollInterval()})
	conv := chat.NewConversation(client, "")

	theme := styles.NewTheme()
	app := &appModel{
		chatModel: uichat.New(theme, cfg.ServerURL, Version),
		cfg:       cfg,
		mgr:       mgr,
		conv:      conv,
		resumeID:  args.Flag("session"),
	}

	p := tea.NewProgram(app, tea.WithAltScreen())

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	// Document processing updates flow into the UI as they happen.
	mgr.SetUpdateCallback(func(docs []model.Document, err error) {
		sendToProgram(uichat.DocsUpdatedMsg{Docs: docs, Err: err})
	})

	// Optional drop directory: PDFs created there are uploaded automatically.
	var watcher *session.Watcher
	if cfg.WatchDir != "" {
		watcher, err = session.NewWatcher(mgr, cfg.WatchDir, session.DefaultDebounce)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not watch %s: %v\n", cfg.WatchDir, err)
		} else if err := watcher.Watch(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not watch %s: %v\n", cfg.WatchDir, err)
			watcher = nil
		}
	}

	_, runErr := p.Run()

	programMu.Lock()
	programRef = nil
	programMu.Unlock()

	if watcher != nil {
		watcher.Close()
	}

	archiveSession(cfg, mgr, conv)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mgr.Close(ctx)

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running pdfchat: %v\n", runErr)
		return 1
	}
	return 0
}

// archiveSession persists the finished conversation to the local archive.
func archiveSession(cfg *config.Config, mgr *session.Manager, conv *chat.Conversation) {
	if !cfg.Archive.Enabled || mgr.SessionID() == "" || conv.Len() == 0 {
		return
	}

	path, err := cfg.ArchivePath()
	if err != nil {
		return
	}
	store, err := archive.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not archive session: %v\n", err)
		return
	}
	defer store.Close()

	if err := store.SaveSession(mgr.SessionID(), mgr.StartTime(), mgr.Documents(), conv.History()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not archive session: %v\n", err)
		return
	}
	store.MarkClosed(mgr.SessionID(), time.Now())
}
