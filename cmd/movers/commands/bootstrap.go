package commands

import (
	"context"
	"fmt"

	"github.com/wonny/movers/internal/external/alpaca"
	"github.com/wonny/movers/internal/features"
	"github.com/wonny/movers/internal/ingest"
	"github.com/wonny/movers/internal/movers"
	"github.com/wonny/movers/internal/predictor"
	"github.com/wonny/movers/internal/store"
	"github.com/wonny/movers/pkg/config"
	"github.com/wonny/movers/pkg/database"
	"github.com/wonny/movers/pkg/httputil"
	"github.com/wonny/movers/pkg/logger"
	"github.com/wonny/movers/pkg/metrics"
	"github.com/wonny/movers/pkg/redis"
)

// app holds the wired service graph shared by the CLI commands.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	recorder *metrics.Recorder

	aggregator *ingest.Aggregator
	moversSvc  *movers.Service
	engine     *predictor.Engine
}

// newApp loads config and wires every component. Metrics registration
// happens at most once per process, so call newApp once.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := store.EnsureSchema(context.Background(), db.Pool); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	var recorder *metrics.Recorder
	if cfg.MetricsEnabled {
		recorder = metrics.New()
	}

	zlog := log.Zerolog()

	observationRepo := store.NewObservationRepository(db.Pool, zlog)
	moverRepo := store.NewTopMoverRepository(db.Pool, zlog)

	market := alpaca.NewClient(cfg, zlog)
	aggregator := ingest.NewAggregator(market, observationRepo, moverRepo, cfg.Watchlist, recorder, zlog)

	cache := redis.NewCache(redisClient, "movers")
	moversSvc := movers.NewService(moverRepo, cache, cfg.MoversDays, zlog)

	artifactClient := httputil.NewWithTimeout(log, cfg.Model.LoadTimeout)
	loader := predictor.NewLoader(cfg.Model.Location, artifactClient, zlog)
	builder := features.NewBuilder(observationRepo, cfg.LookbackDays, cfg.MinHistoryDays, zlog)
	engine := predictor.NewEngine(loader, builder, cfg.Watchlist, cfg.ScoreTimeout, recorder, zlog)

	return &app{
		cfg:        cfg,
		log:        log,
		db:         db,
		redis:      redisClient,
		recorder:   recorder,
		aggregator: aggregator,
		moversSvc:  moversSvc,
		engine:     engine,
	}, nil
}

// Close releases database and cache connections.
func (a *app) Close() {
	a.db.Close()
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis client")
	}
}
