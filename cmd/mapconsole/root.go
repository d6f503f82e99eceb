package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"map_console/pkg/client"
	"map_console/pkg/config"
	"map_console/pkg/logging"
	"map_console/pkg/view"
)

var version = "0.3.0"

// app carries what every command needs once flags and config are read.
type app struct {
	configPath string
	backendURL string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
	client *client.Client
}

func rootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "mapconsole",
		Short: "mapconsole: road network constraint console",
		Long: brand.Sprint("mapconsole") + ": inspect the routing graph, edit traffic constraints and query paths\n" +
			subtle.Sprint("Talks to the routing backend's REST API"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Name() == "view" || cmd == cmd.Root())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.closer != nil {
				a.closer.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runView(cmd.Context())
		},
	}
	root.SetVersionTemplate("mapconsole {{ .Version }}\n")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default "+config.Path()+")")
	root.PersistentFlags().StringVar(&a.backendURL, "backend", "", "routing backend URL (overrides config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug|info|warn|error (overrides config)")

	root.AddCommand(
		viewCmd(a),
		constraintsCmd(a),
		selectCmd(a),
		pathCmd(a),
		watchCmd(a),
		exportCmd(a),
		reloadCmd(a),
		nearestCmd(a),
		configCmd(a),
	)
	return root
}

// setup loads config and builds the logger and API client. The
// interactive view logs to a file so the terminal stays clean.
func (a *app) setup(interactive bool) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.backendURL != "" {
		cfg.Backend.URL = a.backendURL
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	var sink io.Writer = os.Stderr
	if interactive && cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(config.Dir(), "mapconsole.log")
	}
	logger, closer, err := logging.New(cfg.Log, sink)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.closer = closer
	a.client = client.New(cfg.Backend.URL, cfg.Backend.Timeout.Duration, client.WithLogger(logger))
	return nil
}

// session builds a view session over the API client.
func (a *app) session() *view.Session {
	return view.New(a.client, view.Options{
		Resolver:     a.cfg.Resolver(),
		HitTolerance: a.cfg.View.HitTolerance,
		PollInterval: a.cfg.Sync.Interval.Duration,
		Logger:       a.logger,
	})
}

// loaded returns a session with the network already fetched.
func (a *app) loaded(ctx context.Context) (*view.Session, error) {
	s := a.session()
	op, err := s.Load()
	if err != nil {
		return nil, err
	}
	if err := s.Run(ctx, op); err != nil {
		return nil, fmt.Errorf("load network: %w", err)
	}
	return s, nil
}

// parseLatLon reads "lat,lon".
func parseLatLon(s string) (lat, lon float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%q: want lat,lon", s)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%q: bad latitude: %w", s, err)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%q: bad longitude: %w", s, err)
	}
	return lat, lon, nil
}
