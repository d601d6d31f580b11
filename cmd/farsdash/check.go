package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/farsdash/farsdash/engine/api"
	"github.com/farsdash/farsdash/engine/domain"
	"github.com/farsdash/farsdash/pkg/fn"
)

var (
	checkState int
	checkYear  int
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe every backend endpoint once",
	Long: `Call each of the six backend endpoints concurrently and print a status table.
Exits non-zero if any endpoint fails or returns no data.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().IntVar(&checkState, "state", 6, "FIPS state id for the per-state endpoints")
	checkCmd.Flags().IntVar(&checkYear, "year", 0, "year for the per-year endpoints (default: default_year)")
}

// probe is one endpoint call and its outcome.
type probe struct {
	Endpoint string
	Detail   string
	Took     time.Duration
	Err      error
}

func runCheck(cmd *cobra.Command, _ []string) error {
	id, err := domain.ParseStateID(fmt.Sprint(checkState))
	if err != nil {
		return err
	}
	year := checkYear
	if year == 0 {
		year = cfg.DefaultYear
	}
	// Failures are reported in the table, not the log.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := api.New(cfg.BackendURL, api.WithTimeout(cfg.FetchTimeout), api.WithLogger(quiet))

	results := probeAll(cmd.Context(), client, id, year)
	failed := printProbes(cmd.OutOrStdout(), cfg.BackendURL, results)
	if failed > 0 {
		return fmt.Errorf("%d of %d endpoints failed", failed, len(results))
	}
	return nil
}

func probeAll(ctx context.Context, c *api.Client, id domain.StateID, year int) []probe {
	// Exercise the filter query on the filtered endpoints.
	filter := domain.FilterCriteria{MinAge: domain.Int(21)}
	calls := []struct {
		name string
		run  func(context.Context) (string, error)
	}{
		{"national_trend", func(ctx context.Context) (string, error) {
			pts, err := c.NationalTrend(ctx)
			return fmt.Sprintf("%d years", len(pts)), err
		}},
		{"state_heatmap", func(ctx context.Context) (string, error) {
			entries, err := c.StateHeatmap(ctx, year)
			return fmt.Sprintf("%d states in %d", len(entries), year), err
		}},
		{"national_risk_profile", func(ctx context.Context) (string, error) {
			rp, err := c.NationalRiskProfile(ctx, year)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d fatalities in %d", rp.TotalAlcoholFatalities, year), nil
		}},
		{"state_trend", func(ctx context.Context) (string, error) {
			st, err := c.StateTrend(ctx, id)
			return fmt.Sprintf("%s, %d years", domain.StateName(id), len(st.Data)), err
		}},
		{"state_trend_filtered", func(ctx context.Context) (string, error) {
			pts, err := c.StateTrendFiltered(ctx, id, filter)
			return fmt.Sprintf("%s age 21+, %d years", domain.StateName(id), len(pts)), err
		}},
		{"state_risk_profile", func(ctx context.Context) (string, error) {
			rp, err := c.StateRiskProfile(ctx, id, year, filter)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s age 21+, %d fatalities", domain.StateName(id), rp.TotalAlcoholFatalities), nil
		}},
	}

	return fn.FanOut(len(calls), func(i int) probe {
		start := time.Now()
		detail, err := calls[i].run(ctx)
		return probe{Endpoint: calls[i].name, Detail: detail, Took: time.Since(start), Err: err}
	})
}

// printProbes writes the status table and returns how many probes failed.
func printProbes(w io.Writer, base string, results []probe) int {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	fmt.Fprintf(w, "%s %s\n\n", bold.Sprint("Backend:"), base)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, bold.Sprint("ENDPOINT")+"\t"+bold.Sprint("STATUS")+"\t"+bold.Sprint("TIME")+"\t"+bold.Sprint("DETAIL"))

	failed := 0
	for _, p := range results {
		status, detail := green.Sprint("ok"), p.Detail
		var se *api.StatusError
		switch {
		case p.Err == nil:
		case errors.As(p.Err, &se):
			status, detail = red.Sprintf("http %d", se.Code), p.Err.Error()
		case errors.Is(p.Err, api.ErrNoData):
			status, detail = yellow.Sprint("no data"), p.Err.Error()
		default:
			status, detail = red.Sprint("error"), p.Err.Error()
		}
		if p.Err != nil {
			failed++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Endpoint, status, p.Took.Round(time.Millisecond), detail)
	}
	tw.Flush()
	return failed
}
