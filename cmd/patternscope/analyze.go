package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"patternscope/internal/analyzer"
	"patternscope/internal/app"
	"patternscope/internal/chart"
	"patternscope/internal/market"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		days      int
		explain   bool
		chartPath string
	)

	cmd := &cobra.Command{
		Use:   "analyze SYMBOL...",
		Short: "Detect chart patterns for one or more tickers",
		Example: `  patternscope analyze AAPL
  patternscope analyze AAPL MSFT NVDA --days 180 --explain
  patternscope analyze TSLA --chart tsla.html`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols := market.NormalizeSymbols(strings.Join(args, ","))
			if chartPath != "" && len(symbols) != 1 {
				return fmt.Errorf("--chart needs exactly one symbol, got %d", len(symbols))
			}
			if days == 0 {
				days = cfg.App.DefaultDays
			}

			a, err := app.New(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(len(symbols))*2*time.Minute)
			defer cancel()

			out := cmd.OutOrStdout()
			failed := 0
			a.Analyzer.Scan(ctx, symbols, days, explain, func(res analyzer.ScanResult) {
				if res.Err != nil {
					failed++
					fmt.Fprintf(out, "%s: error: %v\n\n", res.Symbol, res.Err)
					return
				}
				printReport(out, res.Report)
				if chartPath != "" {
					if err := writeChart(chartPath, res.Report); err != nil {
						fmt.Fprintf(out, "chart: %v\n", err)
						failed++
					} else {
						fmt.Fprintf(out, "chart written to %s\n", chartPath)
					}
				}
			})

			if failed == len(symbols) {
				return fmt.Errorf("all %d symbols failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "days of history (30-365, default app.default_days)")
	cmd.Flags().BoolVar(&explain, "explain", false, "ask the configured LLM to interpret the patterns")
	cmd.Flags().StringVar(&chartPath, "chart", "", "write an HTML candlestick chart to this path")
	return cmd
}

// printReport writes the Date/Pattern table and the interpretation, if any.
func printReport(w io.Writer, r *analyzer.Report) {
	fmt.Fprintf(w, "%s  %s → %s  (%d bars)\n", r.Symbol, r.Window.From(), r.Window.To(), r.Bars)

	if len(r.Detections) == 0 {
		fmt.Fprintf(w, "%s\n\n", r.Message)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tPattern\tVolume\tLevel")
	for _, d := range r.Detections {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Date.Format(time.DateOnly), d.Kind, yesNo(d.VolumeConfirmed), yesNo(d.LevelConfirmed))
	}
	_ = tw.Flush()

	switch {
	case r.Interpretation != "":
		fmt.Fprintf(w, "\n%s\n", r.Interpretation)
	case r.ExplainError != "":
		fmt.Fprintf(w, "\ninterpretation unavailable: %s\n", r.ExplainError)
	}
	fmt.Fprintln(w)
}

func writeChart(path string, r *analyzer.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := chart.RenderCandles(f, r.Series, r.Detections); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
