// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for pdfchat.
package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/pdfchat-tui/internal/api"
	"github.com/jeranaias/pdfchat-tui/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdUpload
	CmdStatus
	CmdSessions
	CmdConfig
	CmdVersion
	CmdHelp
)

const usageText = `pdfchat - chat with your PDF documents from the terminal

pdfchat talks to a PDF question-answering backend: upload documents into
a session, then ask questions and get answers with page references.

Usage:
  pdfchat                          Start the TUI (default)
  pdfchat ask [flags] "question"   One-shot question against PDFs
  pdfchat chat [flags]             Interactive chat without the TUI
  pdfchat upload [flags] FILE...   Upload documents to a session
  pdfchat status [--session ID]    Show backend and session status
  pdfchat sessions [subcommand]    Browse the local conversation archive
  pdfchat config [show|set|path]   Configuration
  pdfchat version                  Show version
  pdfchat help                     Show this help

ask flags:
  -f, --file FILE      PDF to upload before asking (repeatable via commas)
  --session ID         Use an existing session instead of creating one
  --keep               Keep the session open after answering
  --plain              Disable markdown rendering

chat flags:
  -f, --file FILE      PDFs to upload at start (comma separated)
  --session ID         Resume an existing session

sessions subcommands:
  list                 List archived sessions (default)
  show ID              Print an archived conversation
  search QUERY         Search archived conversations
  export ID [--format markdown|json] [--out DIR]
  delete ID            Delete an archived session
  clear --confirm      Delete the whole archive

Environment:
  PDFCHAT_SERVER_URL   Backend base URL (default http://localhost:8000)
  PDFCHAT_SESSION_DIR  Config/archive directory (default ~/.pdfchat)
  PDFCHAT_WATCH_DIR    Drop directory for automatic uploads
`

// Parse determines the command from raw CLI arguments (without argv[0]).
func Parse(raw []string) (Command, *ArgParser) {
	if len(raw) == 0 {
		return CmdTUI, NewArgParser(nil)
	}

	cmd := raw[0]
	rest := raw[1:]

	switch cmd {
	case "ask":
		return CmdAsk, NewArgParser(rest)
	case "chat":
		return CmdChat, NewArgParser(rest)
	case "upload":
		return CmdUpload, NewArgParser(rest)
	case "status", "s":
		return CmdStatus, NewArgParser(rest)
	case "sessions", "session":
		return CmdSessions, NewArgParser(rest)
	case "config":
		return CmdConfig, NewArgParser(rest)
	case "version", "-V", "--version":
		return CmdVersion, NewArgParser(rest)
	case "help", "-h", "--help":
		return CmdHelp, NewArgParser(rest)
	default:
		// Unknown word: treat the whole line as an ask question so
		// `pdfchat "what is this?"` works.
		return CmdAsk, NewArgParser(raw)
	}
}

// Run executes a parsed command. Returns the process exit code.
func Run(cmd Command, args *ArgParser) int {
	var err error
	switch cmd {
	case CmdAsk:
		err = runAsk(args)
	case CmdChat:
		err = runChat(args)
	case CmdUpload:
		err = runUpload(args)
	case CmdStatus:
		err = runStatus(args)
	case CmdSessions:
		err = runSessions(args)
	case CmdConfig:
		err = runConfig(args)
	case CmdVersion:
		fmt.Printf("pdfchat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
	case CmdHelp:
		fmt.Print(usageText)
	default:
		err = fmt.Errorf("unhandled command")
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// loadClient loads configuration and builds the API client from it.
func loadClient() (*config.Config, *api.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	client := api.NewClient(cfg.ServerURL).WithTimeout(cfg.Timeout())
	return cfg, client, nil
}
