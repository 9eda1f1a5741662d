// Package jobs holds the concrete scheduled jobs.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/movers/internal/ingest"
	"github.com/wonny/movers/pkg/config"
	"github.com/wonny/movers/pkg/logger"
	"github.com/wonny/movers/pkg/tradingday"
)

// IngestionJob ingests the last closed trading day's bars for the whole
// watchlist and persists the date's top mover.
type IngestionJob struct {
	aggregator *ingest.Aggregator
	config     *config.Config
	logger     *logger.Logger
}

// NewIngestionJob creates a new ingestion job
func NewIngestionJob(aggregator *ingest.Aggregator, cfg *config.Config, log *logger.Logger) *IngestionJob {
	return &IngestionJob{
		aggregator: aggregator,
		config:     cfg,
		logger:     log,
	}
}

// Name returns the job name
func (j *IngestionJob) Name() string {
	return "daily_ingestion"
}

// Schedule returns the cron schedule: Tue-Sat 06:00 UTC, after the prior
// New York session has fully closed.
func (j *IngestionJob) Schedule() string {
	return "0 0 6 * * 2-6"
}

// Run executes one ingestion run for the last closed trading day
func (j *IngestionJob) Run(ctx context.Context) error {
	date := tradingday.Previous(time.Now())

	j.logger.WithField("date", tradingday.Format(date)).Info("Starting scheduled ingestion")

	runCtx, cancel := context.WithTimeout(ctx, j.config.IngestTimeout)
	defer cancel()

	result, err := j.aggregator.Run(runCtx, date)
	if err != nil {
		return fmt.Errorf("ingestion run for %s: %w", tradingday.Format(date), err)
	}

	fields := map[string]interface{}{
		"date":   tradingday.Format(date),
		"stored": result.Stored,
		"state":  result.State,
	}
	if result.TopMover != nil {
		fields["top_mover"] = result.TopMover.Ticker
		fields["percent_change"] = result.TopMover.PercentChange
	}
	j.logger.WithFields(fields).Info("Scheduled ingestion completed")

	return nil
}
