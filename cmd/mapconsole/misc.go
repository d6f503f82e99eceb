package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"map_console/pkg/config"
	"map_console/pkg/geo"
)

func reloadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Ask the backend to rebuild its graph and fetch it again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.session()
			op, err := s.Reload()
			if err != nil {
				return err
			}
			if err := s.Run(cmd.Context(), op); err != nil {
				return err
			}
			c := s.Cache()
			fmt.Printf("  %s %d nodes, %d edges, %d constraints\n",
				statusIcon(true), len(c.Nodes()), len(c.Edges()), len(c.Constraints()))
			return nil
		},
	}
}

func nearestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "nearest LAT,LON",
		Short: "Find the graph node closest to a coordinate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lon, err := parseLatLon(args[0])
			if err != nil {
				return err
			}
			if !geo.ValidLatLng(lat, lon) {
				return fmt.Errorf("%s is not a valid coordinate", args[0])
			}
			res, err := a.client.FindNearest(cmd.Context(), lat, lon)
			if err != nil {
				return err
			}
			fmt.Printf("  node %s  %s\n", brand.Sprint(res.NodeID), subtle.Sprintf("%.2f m away", res.Distance))
			return nil
		},
	}
}

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				subtle.Printf("# %s\n", configFile(a))
				if err := toml.NewEncoder(os.Stdout).Encode(a.cfg); err != nil {
					return err
				}
				fmt.Println()
				printPalette(a.cfg)
				return nil
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write a configuration file with the defaults",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path := configFile(a)
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists", path)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
				if err := config.Save(config.Default(), path); err != nil {
					return err
				}
				fmt.Printf("  %s wrote %s\n", statusIcon(true), path)
				return nil
			},
		},
	)
	return cmd
}

func configFile(a *app) string {
	if a.configPath != "" {
		return a.configPath
	}
	return config.Path()
}

func printPalette(cfg *config.Config) {
	p := cfg.Resolver().Palette()
	rows := [][]string{
		{"block", swatch(p.Block)},
		{"penalty (flood)", swatch(p.PenaltyFlood)},
		{"penalty (traffic)", swatch(p.PenaltyTraffic)},
		{"oneway", swatch(p.Oneway)},
		{"oneway (intrinsic)", swatch(p.OnewayOriginal)},
		{"normal", swatch(p.Normal)},
		{"selected", swatch(p.Selected)},
		{"path", swatch(p.Path)},
	}
	table(os.Stdout, []string{"STYLE", "COLOR"}, rows)
}
