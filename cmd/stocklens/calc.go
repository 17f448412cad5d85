package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"StockLens/internal/calculator"
	"StockLens/internal/collector"
	"StockLens/internal/model"
)

var (
	calcFile      string
	calcWindow    int
	calcRSIPeriod int
	calcSmoothing string
	calcTail      int
)

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Compute MA and RSI over a local CSV of daily bars",
	Long: `Reads date,open,high,low,close[,volume] rows and prints the moving
average and RSI for every bar. Undefined warm-up values print as "-".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		smoothing, err := calculator.ParseSmoothing(calcSmoothing)
		if err != nil {
			return err
		}
		f, err := os.Open(calcFile)
		if err != nil {
			return fmt.Errorf("open %s: %w", calcFile, err)
		}
		defer f.Close()

		bars, err := collector.ReadCSV(f)
		if err != nil {
			return err
		}
		ma, err := calculator.MovingAverage(bars, calcWindow)
		if err != nil {
			return err
		}
		rsi, err := calculator.RSIWith(bars, calcRSIPeriod, smoothing)
		if err != nil {
			return err
		}
		header := fmt.Sprintf("date\tclose\tMA%d\tRSI%d\t", calcWindow, calcRSIPeriod)
		return printSeries(cmd.OutOrStdout(), header, bars, ma, rsi, calcTail)
	},
}

func init() {
	calcCmd.Flags().StringVarP(&calcFile, "file", "f", "", "CSV file of daily bars")
	calcCmd.Flags().IntVar(&calcWindow, "window", 20, "moving average window")
	calcCmd.Flags().IntVar(&calcRSIPeriod, "rsi", calculator.DefaultRSIPeriod, "RSI period")
	calcCmd.Flags().StringVar(&calcSmoothing, "smoothing", "wilder", "RSI smoothing: wilder or ewm")
	calcCmd.Flags().IntVar(&calcTail, "tail", 0, "only print the last N rows")
	calcCmd.MarkFlagRequired("file")
}

func printSeries(out io.Writer, header string, bars model.PriceSeries, ma, rsi model.IndicatorSeries, tail int) error {
	start := 0
	if tail > 0 && tail < len(bars) {
		start = len(bars) - tail
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, header)
	for i := start; i < len(bars); i++ {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\t\n",
			bars[i].Time.Format("2006-01-02"), bars[i].Close,
			formatNullable(ma[i].Value.Float64, ma[i].Value.Valid),
			formatNullable(rsi[i].Value.Float64, rsi[i].Value.Valid))
	}
	return tw.Flush()
}
