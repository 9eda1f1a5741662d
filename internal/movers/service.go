// Package movers serves read queries over persisted daily top-mover
// records.
package movers

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/pkg/redis"
)

// MaxWindowDays caps the queryable history window.
const MaxWindowDays = 365

// Service answers top-mover window queries with a short-TTL read-through
// cache in front of the repository.
type Service struct {
	repo        contracts.TopMoverRepository
	cache       *redis.Cache
	defaultDays int
	log         zerolog.Logger
}

func NewService(repo contracts.TopMoverRepository, cache *redis.Cache, defaultDays int, log zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		cache:       cache,
		defaultDays: defaultDays,
		log:         log.With().Str("component", "movers").Logger(),
	}
}

// DefaultDays returns the window size used when the caller does not pick one.
func (s *Service) DefaultDays(days int) int {
	if days <= 0 {
		return s.defaultDays
	}
	return days
}

// Recent returns up to days of top-mover records ending at the given date,
// most recent first. A window with no records is an empty slice, not an
// error. days outside [1, MaxWindowDays] is rejected.
func (s *Service) Recent(ctx context.Context, until time.Time, days int) ([]contracts.TopMover, error) {
	if days < 1 || days > MaxWindowDays {
		return nil, fmt.Errorf("days must be between 1 and %d, got %d", MaxWindowDays, days)
	}

	key := redis.MoversKey(days, until)
	var cached []contracts.TopMover
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache read failed, falling back to store")
	}
	if hit {
		return cached, nil
	}

	from := until.AddDate(0, 0, -(days - 1))
	records, err := s.repo.Range(ctx, from, until)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, records, redis.TTLShort); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}

	return records, nil
}
