package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"map_console/pkg/osmexport"
	"map_console/pkg/view"
)

func exportCmd(a *app) *cobra.Command {
	var (
		format   string
		out      string
		from, to string
		verify   bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the network and its constraints as OSM XML or GeoJSON",
		Long: `Write the cached network with every edge's constraint and resolved
style. OSM XML can be opened in JOSM; GeoJSON keeps stroke colors for
geojson.io and similar viewers. With --from and --to the GeoJSON also
carries the computed path. --verify reads an OSM file back after
writing it and checks it against the network.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "osm" && format != "geojson" {
				return fmt.Errorf("unknown format %q: want osm or geojson", format)
			}
			toFile := out != "" && out != "-"
			if verify && (format != "osm" || !toFile) {
				return errors.New("--verify needs --format osm and --output FILE")
			}
			s, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			if from != "" || to != "" {
				if err := findPath(cmd, s, from, to); err != nil {
					return err
				}
			}

			var w io.Writer = os.Stdout
			if toFile {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			switch format {
			case "osm":
				err = osmexport.WriteOSM(w, s.Cache(), s.Resolver())
			default:
				err = osmexport.WriteGeoJSON(w, s.Cache(), s.Resolver(), s.Picker().Drawing())
			}
			if err != nil {
				return fmt.Errorf("export %s: %w", format, err)
			}
			if verify {
				if err := verifyOSM(cmd, out, s); err != nil {
					return err
				}
			}
			if toFile {
				fmt.Fprintf(os.Stderr, "  %s %d edges written to %s\n", statusIcon(true), len(s.Cache().Edges()), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "geojson", "osm|geojson")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&from, "from", "", "path start as lat,lon")
	cmd.Flags().StringVar(&to, "to", "", "path end as lat,lon")
	cmd.Flags().BoolVar(&verify, "verify", false, "read the OSM file back and compare it with the network")
	return cmd
}

// verifyOSM re-reads a written OSM export and compares it with the cache.
func verifyOSM(cmd *cobra.Command, path string, s *view.Session) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := osmexport.Verify(cmd.Context(), f, s.Cache()); err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	return nil
}

// findPath runs a path query on s with the picker's current algorithm.
func findPath(cmd *cobra.Command, s *view.Session, from, to string) error {
	p := s.Picker()
	lat, lon, err := parseLatLon(from)
	if err != nil {
		return err
	}
	if err := p.SetStart(lat, lon); err != nil {
		return err
	}
	if lat, lon, err = parseLatLon(to); err != nil {
		return err
	}
	if err := p.SetEnd(lat, lon); err != nil {
		return err
	}
	op, err := s.FindPath()
	if err != nil {
		return err
	}
	return s.Run(cmd.Context(), op)
}
