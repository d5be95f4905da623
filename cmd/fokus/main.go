package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fokuslabs/fokus/internal/client"
	"github.com/fokuslabs/fokus/internal/config"
	"github.com/fokuslabs/fokus/internal/sync"
	"github.com/fokuslabs/fokus/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "path to config.json (defaults to ~/.config/fokus/config.json)")
	flag.Parse()

	path := *configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	statePath := cfg.StatePath
	if statePath == "" {
		statePath, err = sync.DefaultStatePath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	var api *client.Client
	var remote sync.Remote
	if cfg.ServerURL != "" {
		api = client.New(cfg.ServerURL, cfg.Token)
		remote = api
	}

	ctrl := sync.NewController(sync.NewLocalFile(statePath), remote)

	// Best-effort pull of the server copy before the UI comes up.
	hydrateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	ctrl.Hydrate(hydrateCtx)
	cancel()

	app := tui.NewApp(ctrl, api, cfg.PickCount)
	p := tea.NewProgram(app, tea.WithAltScreen())
	ctrl.OnSync = func(err error) {
		p.Send(tui.SyncResult(err))
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Push whatever the debounce window was still holding.
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	ctrl.Flush(flushCtx)
	cancel()
}
