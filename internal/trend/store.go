package trend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/linac-qa/backend/internal/audit"
	"github.com/linac-qa/backend/internal/metrics"
	"github.com/linac-qa/backend/internal/storage/models"
	"github.com/linac-qa/backend/internal/storage/sqlite"
	"github.com/linac-qa/backend/pkg/circuitbreaker"
	"github.com/linac-qa/backend/pkg/logger"
)

var (
	ErrInvalidReference = errors.New("reference value must be non-zero")
	ErrUnknownUnit      = errors.New("unknown unit")
)

// Cache is the optional read-through cache for trend windows. The Redis
// client satisfies it; a nil Cache disables caching entirely.
type Cache interface {
	GetTrend(ctx context.Context, unitID int64, energy string, since time.Time) ([]models.OutputReading, bool, error)
	SetTrend(ctx context.Context, unitID int64, energy string, since time.Time, readings []models.OutputReading, ttl time.Duration) error
	InvalidateTrend(ctx context.Context, unitID int64, energy string) error
}

// Store records output constancy readings and serves trend windows.
type Store struct {
	store    *sqlite.Client
	trail    *audit.Trail
	cache    Cache
	cacheTTL time.Duration
	breaker  *circuitbreaker.CircuitBreaker
}

func NewStore(store *sqlite.Client, trail *audit.Trail, cache Cache, cacheTTL time.Duration) *Store {
	return &Store{
		store:    store,
		trail:    trail,
		cache:    cache,
		cacheTTL: cacheTTL,
		breaker: circuitbreaker.NewCircuitBreaker("trend-cache", circuitbreaker.Config{
			FailureThreshold: 3,
			Timeout:          30 * time.Second,
			Logger:           logger.Log,
		}),
	}
}

// Record computes the deviation and persists the reading. The deviation is
// stored exactly as computed, no rounding: later changes to the deviation
// convention must never rewrite historical readings.
func (s *Store) Record(ctx context.Context, unitID int64, date time.Time, energy string, reading, reference float64, actingUser, ip string) (*models.OutputReading, error) {
	if reference == 0 {
		return nil, ErrInvalidReference
	}

	unit, err := s.store.GetUnit(unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, ErrUnknownUnit
	}

	r := &models.OutputReading{
		Date:      date,
		UnitID:    unitID,
		Energy:    energy,
		Reading:   reading,
		Reference: reference,
		Deviation: (reading - reference) / reference * 100,
	}
	if err := s.store.InsertReading(r); err != nil {
		return nil, err
	}

	s.trail.Append(actingUser, audit.ActionSaveReading,
		fmt.Sprintf("Output reading for %s %s on %s: %.4f%%", unit.Name, energy, date.Format("2006-01-02"), r.Deviation),
		ip)
	metrics.ReadingsRecorded.Inc()
	metrics.OutputDeviation.Observe(r.Deviation)

	s.invalidateCache(ctx, unitID, energy)
	return r, nil
}

// Trend returns readings for a unit/energy with date >= since, oldest
// first. A warm cache serves the window; any cache trouble falls back to
// the store silently.
func (s *Store) Trend(ctx context.Context, unitID int64, energy string, since time.Time) ([]models.OutputReading, error) {
	if cached, ok := s.cacheGet(ctx, unitID, energy, since); ok {
		return cached, nil
	}

	readings, err := s.store.ListReadings(unitID, energy, since)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, unitID, energy, since, readings)
	return readings, nil
}

func (s *Store) cacheGet(ctx context.Context, unitID int64, energy string, since time.Time) ([]models.OutputReading, bool) {
	if s.cache == nil {
		return nil, false
	}

	var readings []models.OutputReading
	var found bool
	err := s.breaker.Execute(ctx, func() error {
		var err error
		readings, found, err = s.cache.GetTrend(ctx, unitID, energy, since)
		return err
	})
	if err != nil {
		metrics.TrendCacheHits.WithLabelValues("error").Inc()
		logger.Debug("Trend cache lookup failed", zap.Error(err))
		return nil, false
	}
	if found {
		metrics.TrendCacheHits.WithLabelValues("hit").Inc()
		return readings, true
	}
	metrics.TrendCacheHits.WithLabelValues("miss").Inc()
	return nil, false
}

func (s *Store) cacheSet(ctx context.Context, unitID int64, energy string, since time.Time, readings []models.OutputReading) {
	if s.cache == nil {
		return
	}
	err := s.breaker.Execute(ctx, func() error {
		return s.cache.SetTrend(ctx, unitID, energy, since, readings, s.cacheTTL)
	})
	if err != nil {
		logger.Debug("Trend cache store failed", zap.Error(err))
	}
}

func (s *Store) invalidateCache(ctx context.Context, unitID int64, energy string) {
	if s.cache == nil {
		return
	}
	err := s.breaker.Execute(ctx, func() error {
		return s.cache.InvalidateTrend(ctx, unitID, energy)
	})
	if err != nil {
		logger.Debug("Trend cache invalidation failed", zap.Error(err))
	}
}
