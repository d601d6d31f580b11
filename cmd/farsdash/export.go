package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/farsdash/farsdash/engine/api"
	"github.com/farsdash/farsdash/engine/domain"
	"github.com/farsdash/farsdash/engine/export"
	"github.com/farsdash/farsdash/pkg/fn"
)

var (
	exportStates []string
	exportFormat string
	exportWidth  int
	exportHeight int
	exportTitle  string
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the national trend chart to a PNG or SVG file",
	Long: `Fetch the national trend, plus any --state series, and write a static chart.
The format follows the file extension unless --format is given.

  farsdash export trend.png
  farsdash export --state 6 --state 48 compare.svg`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringSliceVarP(&exportStates, "state", "s", nil, "FIPS state id to compare (repeatable)")
	f.StringVarP(&exportFormat, "format", "f", "", "png or svg (default from extension)")
	f.IntVar(&exportWidth, "width", export.DefaultOptions().Width, "image width in pixels")
	f.IntVar(&exportHeight, "height", export.DefaultOptions().Height, "image height in pixels")
	f.StringVar(&exportTitle, "title", export.DefaultOptions().Title, "chart title")
}

func runExport(cmd *cobra.Command, args []string) error {
	path := args[0]
	ids, err := parseStateIDs(exportStates)
	if err != nil {
		return err
	}
	opts := export.Options{
		Format: export.FormatFor(path),
		Width:  exportWidth,
		Height: exportHeight,
		Title:  exportTitle,
	}
	if exportFormat != "" {
		if opts.Format, err = export.ParseFormat(exportFormat); err != nil {
			return err
		}
	}

	client := api.New(cfg.BackendURL, api.WithTimeout(cfg.FetchTimeout), api.WithLogger(logger))
	data, err := export.Fetch(cmd.Context(), client, ids)
	if err != nil {
		return err
	}

	f, err := os.Create(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return err
	}
	if err := export.Render(f, data, opts); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("chart exported", "path", path, "format", string(opts.Format), "states", len(ids))
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// parseStateIDs accepts ids as repeated flags or comma-separated lists and
// drops duplicates.
func parseStateIDs(raw []string) ([]domain.StateID, error) {
	var ids []domain.StateID
	for _, r := range raw {
		for _, s := range strings.Split(r, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			id, err := domain.ParseStateID(s)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return fn.Unique(ids), nil
}
