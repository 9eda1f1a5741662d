package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/movers/pkg/tradingday"
)

// topCmd represents the top command
var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Print the trailing top-mover window",
	Long: `Prints the daily top-mover records for the trailing window,
most recent first.

Example:
  go run ./cmd/movers top
  go run ./cmd/movers top --days 7`,
	RunE: runTop,
}

var topDays int

func init() {
	rootCmd.AddCommand(topCmd)
	topCmd.Flags().IntVar(&topDays, "days", 0, "window size in days (default from config)")
}

func runTop(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	days := app.moversSvc.DefaultDays(topDays)
	until := tradingday.Previous(time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := app.moversSvc.Recent(ctx, until, days)
	if err != nil {
		return fmt.Errorf("query top movers: %w", err)
	}

	fmt.Printf("Top movers, last %d days\n\n", days)
	if len(records) == 0 {
		fmt.Println("No records yet. Run an ingestion first.")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("  %s  %-6s %+7.3f%%  close %.2f\n",
			tradingday.Format(rec.Date), rec.Ticker, rec.PercentChange, rec.Close)
	}
	return nil
}
