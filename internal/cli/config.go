// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration command handler for pdfchat CLI.
//
// Handles "pdfchat config" with show (default), set, and path
// subcommands.
package cli

import (
	"fmt"

	"github.com/jeranaias/pdfchat-tui/internal/config"
)

func runConfig(args *ArgParser) error {
	switch args.Subcommand() {
	case "", "show":
		return configShow()
	case "set":
		return configSet(args.Positional(1), args.Positional(2))
	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	default:
		return fmt.Errorf("unknown config subcommand: %s", args.Subcommand())
	}
}

func configShow() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	for _, key := range config.Keys() {
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		fmt.Printf("%-20s = %s\n", key, value)
	}
	return nil
}

func configSet(key, value string) error {
	if key == "" {
		return fmt.Errorf("usage: pdfchat config set KEY VALUE")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("%s = %s\n", key, value)
	return nil
}
