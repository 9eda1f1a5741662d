package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/movers/pkg/tradingday"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion pass for a trading date",
	Long: `Fetches the day's closing bars for every watchlist ticker,
stores the observations with their percent change, and persists the
date's top mover.

Defaults to the last closed US trading day.

Example:
  go run ./cmd/movers ingest
  go run ./cmd/movers ingest --date 2024-03-15`,
	RunE: runIngest,
}

var ingestDate string

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestDate, "date", "", "target trading date (YYYY-MM-DD)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Movers Ingestion ===")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	date := tradingday.Previous(time.Now())
	if ingestDate != "" {
		date, err = tradingday.Parse(ingestDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", ingestDate, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.IngestTimeout)
	defer cancel()

	result, err := app.aggregator.Run(ctx, date)
	if err != nil {
		return fmt.Errorf("ingestion run for %s: %w", tradingday.Format(date), err)
	}

	fmt.Printf("\n✅ Ingestion complete for %s\n", tradingday.Format(date))
	fmt.Printf("   Stored observations: %d\n", result.Stored)
	if len(result.Failed) > 0 {
		fmt.Printf("   Failed tickers: %v\n", result.Failed)
	}
	if result.TopMover != nil {
		fmt.Printf("   Top mover: %s (%.3f%%)\n", result.TopMover.Ticker, result.TopMover.PercentChange)
	} else {
		fmt.Println("   Top mover: none (no ticker with a defined percent change)")
	}

	return nil
}
