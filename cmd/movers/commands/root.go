package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "movers",
	Short: "Watchlist top-mover tracker and next-day forecaster",
	Long: `Movers tracks a small stock watchlist: it ingests each trading
day's closing bars, records the day's biggest mover, and serves
next-day directional forecasts from a shared classifier.

Usage:
  go run ./cmd/movers [command]

Examples:
  go run ./cmd/movers api
  go run ./cmd/movers ingest
  go run ./cmd/movers ingest --date 2024-03-15
  go run ./cmd/movers predict
  go run ./cmd/movers scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}
