package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"StockLens/internal/model"
)

var (
	chartPeriod string
	chartJSON   bool
)

var chartCmd = &cobra.Command{
	Use:   "chart SYMBOL",
	Short: "Fetch a symbol and print its latest indicator values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := model.ParsePeriod(chartPeriod)
		if err != nil {
			return err
		}
		cfg, _ := loadConfig()
		col := newCollector(cfg, nil)

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		chart, err := col.Chart(ctx, args[0], period)
		if err != nil {
			return err
		}
		if chartJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(chart)
		}
		return printChart(cmd.OutOrStdout(), chart)
	},
}

func init() {
	chartCmd.Flags().StringVar(&chartPeriod, "period", string(model.DefaultPeriod), "lookback: 1mo 3mo 6mo 1y 2y 5y")
	chartCmd.Flags().BoolVar(&chartJSON, "json", false, "print the full chart as JSON")
}

func printChart(out io.Writer, c *model.Chart) error {
	last, _ := c.Bars.Last()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Symbol\t%s (%s, %s)\n", c.Symbol, c.Period, c.Source)
	fmt.Fprintf(tw, "Date\t%s\n", last.Time.Format("2006-01-02"))
	fmt.Fprintf(tw, "Close\t%.2f\n", last.Close)
	fmt.Fprintf(tw, "Change\t%+.2f%% (%.2f -> %.2f)\n", c.Performance.ChangePct, c.Performance.StartPrice, c.Performance.EndPrice)
	fmt.Fprintf(tw, "52w range\t%.2f ~ %.2f (%.0f%%)\n", c.Range52w.Low, c.Range52w.High, c.Range52w.Position*100)
	for _, o := range c.MovingAverages {
		fmt.Fprintf(tw, "%s\t%s\n", o.Name, formatNullable(o.Series.Last().Float64, o.Series.Last().Valid))
	}
	fmt.Fprintf(tw, "RSI(%d)\t%s\n", c.RSIPeriod, formatNullable(c.RSI.Last().Float64, c.RSI.Last().Valid))
	if vol := c.Volatility.Last(); vol.Valid {
		fmt.Fprintf(tw, "GK variance\t%.6f\n", vol.Float64)
	}
	if c.Signal != nil {
		fmt.Fprintf(tw, "Signal\t%s / %s: %s\n", c.Signal.Zone, c.Signal.Trend, c.Signal.Commentary)
		if c.Signal.WarningMsg != "" {
			fmt.Fprintf(tw, "Warning\t%s\n", c.Signal.WarningMsg)
		}
	}
	return tw.Flush()
}

func formatNullable(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

