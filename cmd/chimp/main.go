// cmd/chimp/main.go
//
// This is the entry point for the TodoChimp terminal client.
//
// Flow:
// 1. Load .env (optional) and resolve the data directory
// 2. Open config, log file and the local state database
// 3. Hydrate any stored session, then hand over to the TUI

package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/todochimp/chimp/internal/aigen"
	"github.com/todochimp/chimp/internal/api"
	"github.com/todochimp/chimp/internal/config"
	"github.com/todochimp/chimp/internal/localstore"
	"github.com/todochimp/chimp/internal/logbook"
	"github.com/todochimp/chimp/internal/tui"
)

func main() {
	// A missing .env is fine; it only exists on dev machines.
	_ = godotenv.Load()

	invite := flag.String("invite", os.Getenv("CHIMP_INVITE"), "invite token to join an existing organization")
	flag.Parse()

	dataDir, err := config.DefaultDataDir()
	if err != nil {
		fatal("resolve data directory", err)
	}
	if err := config.InitDataDir(dataDir); err != nil {
		fatal("initialize data directory", err)
	}

	cfg, err := config.New(dataDir)
	if err != nil {
		fatal("load configuration", err)
	}

	log, err := logbook.New(cfg.LogPath())
	if err != nil {
		fatal("open log file", err)
	}

	store, err := localstore.Open(cfg.StatePath())
	if err != nil {
		// State persistence is a convenience; run without it.
		log.Warn("local state unavailable: %v", err)
		store = nil
	} else {
		defer store.Close()
	}

	client := api.NewClient(cfg.APIBaseURL(), log)
	gen := aigen.NewClient(cfg.AIBaseURL(), cfg.AIAPIKey())

	opts := []tui.AppOption{}
	if store != nil {
		if session, found, err := store.LoadSession(); err != nil {
			log.Warn("load stored session: %v", err)
		} else if found {
			opts = append(opts, tui.WithSession(session))
		}
	}
	if *invite != "" {
		opts = append(opts, tui.WithInvite(*invite))
	}

	p := tea.NewProgram(
		tui.NewApp(cfg, client, gen, store, log, opts...),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fatal("run TUI", err)
	}
}

func fatal(context string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", context, err)
	os.Exit(1)
}
