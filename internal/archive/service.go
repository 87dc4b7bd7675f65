package archive

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the archive service.
type ServiceConfig struct {
	Provider Provider
	Logger   zerolog.Logger

	// CacheTTL is how long a series is served without refetching (default: 6 hours).
	// Past days do not change, so a long TTL is safe.
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving an expired series when the provider fails (default: 24 hours).
	StaleIfErrorTTL time.Duration

	// CoordinatePrecision is the number of decimals kept in cache keys (default: 4, about 11 m).
	CoordinatePrecision int
}

// Service provides archive series with caching.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration
	precision       int

	mu              sync.RWMutex
	cache           map[string]*cachedSeries
	lastCleanup     time.Time
	cleanupInterval time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	stale  atomic.Int64
}

type cachedSeries struct {
	series    *WeatherSeries
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new archive service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 6 * time.Hour
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 24 * time.Hour
	}

	precision := cfg.CoordinatePrecision
	if precision <= 0 {
		precision = 4
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
		precision:       precision,
		cache:           make(map[string]*cachedSeries),
		cleanupInterval: 10 * time.Minute,
	}
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// FetchDaily returns the series for q, from cache when fresh.
// The returned series is a copy the caller may keep.
func (s *Service) FetchDaily(ctx context.Context, q Query) (*WeatherSeries, error) {
	key := s.cacheKey(q)
	cacheable := !math.IsNaN(q.Latitude) && !math.IsNaN(q.Longitude)

	if cacheable {
		s.mu.RLock()
		cached, ok := s.cache[key]
		s.mu.RUnlock()
		if ok && time.Now().Before(cached.expiresAt) {
			s.hits.Add(1)
			return cached.series.Clone(), nil
		}
	}
	s.misses.Add(1)

	s.logger.Debug().
		Float64("lat", q.Latitude).
		Float64("lon", q.Longitude).
		Str("start_date", q.StartDate).
		Str("end_date", q.EndDate).
		Str("provider", s.provider.Name()).
		Msg("fetching archive series from provider")

	series, err := s.provider.FetchDaily(ctx, q)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", q.Latitude).
			Float64("lon", q.Longitude).
			Msg("failed to fetch archive series")

		if stale := s.staleEntry(key); stale != nil {
			s.stale.Add(1)
			s.logger.Warn().
				Time("fetched_at", stale.fetchedAt).
				Msg("serving stale archive series due to provider error")
			return stale.series.Clone(), nil
		}

		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	if cacheable {
		now := time.Now()
		s.mu.Lock()
		s.cache[key] = &cachedSeries{
			series:    series.Clone(),
			fetchedAt: now,
			expiresAt: now.Add(s.cacheTTL),
		}
		s.cleanupIfNeeded(now)
		s.mu.Unlock()
	}

	return series, nil
}

func (s *Service) staleEntry(key string) *cachedSeries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cached, ok := s.cache[key]
	if !ok || time.Now().After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
		return nil
	}
	return cached
}

func (s *Service) cacheKey(q Query) string {
	return fmt.Sprintf("%.*f:%.*f:%s:%s", s.precision, q.Latitude, s.precision, q.Longitude, q.StartDate, q.EndDate)
}

// cleanupIfNeeded drops entries past the stale window. Callers hold mu.
func (s *Service) cleanupIfNeeded(now time.Time) {
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}
	s.lastCleanup = now

	expired := 0
	for key, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired archive cache entries")
	}
}

// InvalidateCache clears all cached series and returns how many were dropped.
func (s *Service) InvalidateCache() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.cache)
	s.cache = make(map[string]*cachedSeries)
	return n
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries      int
	FreshEntries int
	Hits         int64
	Misses       int64
	StaleServed  int64
	Provider     string
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	fresh := 0
	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			fresh++
		}
	}

	return CacheStats{
		Entries:      len(s.cache),
		FreshEntries: fresh,
		Hits:         s.hits.Load(),
		Misses:       s.misses.Load(),
		StaleServed:  s.stale.Load(),
		Provider:     s.provider.Name(),
	}
}
