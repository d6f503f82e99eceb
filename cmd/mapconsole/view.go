package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"map_console/pkg/config"
	"map_console/pkg/geo"
	"map_console/pkg/poll"
	"map_console/pkg/tui"
)

func viewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Open the interactive map",
		Long: `Open the interactive terminal map.

Route mode inspects edges and finds paths; edit mode selects edges by
click or shape and applies constraints. Press ? for keys.

  mapconsole view
  mapconsole --backend http://routing:5000 view`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runView(cmd.Context())
		},
	}
}

func (a *app) runView(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := tui.Options{
		Center:   geo.Point(a.cfg.View.CenterLat, a.cfg.View.CenterLon),
		Zoom:     a.cfg.View.Zoom,
		SyncMode: a.cfg.Sync.Mode,
		Logger:   a.logger,
	}
	if a.cfg.Sync.Mode == config.SyncStream {
		opts.Stream = poll.NewStream(a.cfg.Sync.StreamURL, a.logger)
	}

	updates, err := config.Watch(ctx, a.configPath, a.logger)
	if err != nil {
		a.logger.Warn("config hot reload disabled", "err", err)
	} else {
		opts.ConfigUpdates = updates
	}

	a.logger.Info("starting map view", "backend", a.cfg.Backend.URL, "sync", a.cfg.Sync.Mode)
	p := tea.NewProgram(tui.New(ctx, a.session(), opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
