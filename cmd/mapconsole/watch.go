package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"map_console/pkg/config"
	"map_console/pkg/poll"
	"map_console/pkg/view"
)

func watchCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		mode     string
		full     bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow constraint changes made by other operators",
		Long: `Follow the backend's constraint list and print a line whenever its
content changes. Uses polling, or the push stream when sync.mode is
"stream"; a dropped stream falls back to polling.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("interval") {
				a.cfg.Sync.Interval = config.Duration{Duration: interval}
			}
			if mode != "" {
				a.cfg.Sync.Mode = mode
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			s, err := a.loaded(ctx)
			if err != nil {
				return err
			}
			onChange := func() {
				fmt.Printf("%s  %d constraints\n", subtle.Sprint(time.Now().Format(time.TimeOnly)), len(s.Cache().Constraints()))
				if full {
					printConstraints(s)
				}
			}
			info.Printf("watching %s (%s)\n", a.cfg.Backend.URL, a.cfg.Sync.Mode)
			onChange()

			err = a.follow(ctx, s, onChange)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", poll.DefaultInterval, "polling period")
	cmd.Flags().StringVar(&mode, "mode", "", "poll|stream (overrides config)")
	cmd.Flags().BoolVar(&full, "table", false, "print the full list on every change")
	return cmd
}

// follow runs the configured sync until ctx ends. The poller owns the
// session's cache while it runs.
func (a *app) follow(ctx context.Context, s *view.Session, onChange func()) error {
	if a.cfg.Sync.Mode == config.SyncStream {
		err := poll.NewStream(a.cfg.Sync.StreamURL, a.logger).Follow(ctx, s.Poller(), onChange)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		warn.Printf("stream ended (%v), polling instead\n", err)
	}
	return s.Poller().Run(ctx, onChange)
}
