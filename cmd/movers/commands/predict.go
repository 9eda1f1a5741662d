package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/movers/pkg/tradingday"
)

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Print next-day forecasts for the watchlist",
	Long: `Scores every watchlist ticker with the shared classifier and
prints direction, confidence and a short reason per ticker. Tickers
without enough stored history are skipped.

Example:
  go run ./cmd/movers predict`,
	RunE: runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Movers Forecast ===")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	asOf := tradingday.Previous(time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	set, err := app.engine.Predict(ctx, asOf)
	if err != nil {
		return fmt.Errorf("predict as of %s: %w", tradingday.Format(asOf), err)
	}

	fmt.Printf("\nAs of %s\n\n", tradingday.Format(set.AsOf))
	if len(set.Predictions) == 0 {
		fmt.Println("No ticker has enough history to score yet.")
		return nil
	}

	for _, p := range set.Predictions {
		direction := "DOWN"
		if p.PredUp {
			direction = "UP"
		}
		fmt.Printf("  %-6s %-5s confidence %.2f  %s\n", p.Ticker, direction, p.Confidence, p.Why)
	}

	return nil
}
