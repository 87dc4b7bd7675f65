package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aquagraph/aquagraph/internal/archive"
)

// Fetcher loads an archive series, filling the cache as a side effect.
type Fetcher interface {
	FetchDaily(ctx context.Context, q archive.Query) (*archive.WeatherSeries, error)
}

// PrefetchJob warms the archive cache for a fixed set of locations.
type PrefetchJob struct {
	config  PrefetchConfig
	logger  zerolog.Logger
	fetcher Fetcher
	now     func() time.Time

	mu      sync.RWMutex
	metrics PrefetchMetrics
}

// PrefetchMetrics tracks prefetch job statistics.
type PrefetchMetrics struct {
	TotalRuns   int64
	Succeeded   int64
	Failed      int64
	LastRunAt   time.Time
	LastRunTook time.Duration
}

// PrefetchJobConfig holds configuration for creating a PrefetchJob.
type PrefetchJobConfig struct {
	Config  PrefetchConfig
	Logger  zerolog.Logger
	Fetcher Fetcher

	// Now is the clock (optional, for tests).
	Now func() time.Time
}

// NewPrefetchJob creates a new prefetch job.
func NewPrefetchJob(cfg PrefetchJobConfig) *PrefetchJob {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &PrefetchJob{
		config:  cfg.Config.withDefaults(),
		logger:  cfg.Logger,
		fetcher: cfg.Fetcher,
		now:     now,
	}
}

// PrefetchResult contains the result of one run.
type PrefetchResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	StartDate string
	EndDate   string
	Targets   int
	Succeeded int
	Failed    int
	Errors    []PrefetchError
}

// PrefetchError records a failed target.
type PrefetchError struct {
	Target PrefetchTarget
	Error  string
}

// Run fetches the configured window for every target.
func (j *PrefetchJob) Run(ctx context.Context) *PrefetchResult {
	startTime := j.now()
	startDate, endDate := j.config.Window(startTime)
	result := &PrefetchResult{
		StartTime: startTime,
		StartDate: startDate,
		EndDate:   endDate,
		Targets:   len(j.config.Targets),
	}

	j.logger.Info().
		Int("targets", result.Targets).
		Int("concurrency", j.config.Concurrency).
		Str("start_date", startDate).
		Str("end_date", endDate).
		Msg("starting archive prefetch")

	targets := make(chan PrefetchTarget, len(j.config.Targets))
	results := make(chan targetResult, len(j.config.Targets))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.prefetchWorker(ctx, startDate, endDate, targets, results)
		}()
	}

	for _, t := range j.config.Targets {
		targets <- t
	}
	close(targets)

	go func() {
		wg.Wait()
		close(results)
	}()

	for tr := range results {
		if tr.err == nil {
			result.Succeeded++
			continue
		}
		result.Failed++
		result.Errors = append(result.Errors, PrefetchError{Target: tr.target, Error: tr.err.Error()})
	}

	result.EndTime = j.now()
	result.Duration = result.EndTime.Sub(startTime)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("archive prefetch completed")

	return result
}

type targetResult struct {
	target PrefetchTarget
	err    error
}

func (j *PrefetchJob) prefetchWorker(ctx context.Context, startDate, endDate string, targets <-chan PrefetchTarget, results chan<- targetResult) {
	for t := range targets {
		if err := ctx.Err(); err != nil {
			results <- targetResult{target: t, err: err}
			continue
		}
		results <- targetResult{target: t, err: j.prefetchTarget(ctx, t, startDate, endDate)}
	}
}

func (j *PrefetchJob) prefetchTarget(ctx context.Context, t PrefetchTarget, startDate, endDate string) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	_, err := j.fetcher.FetchDaily(ctx, archive.Query{
		Latitude:  t.Point.Lat,
		Longitude: t.Point.Lon,
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		j.logger.Warn().
			Err(err).
			Str("city", t.Name).
			Str("region", t.RegionCode).
			Msg("prefetch failed")
	}
	return err
}

func (j *PrefetchJob) updateMetrics(result *PrefetchResult) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.Succeeded += int64(result.Succeeded)
	j.metrics.Failed += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunTook = result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *PrefetchJob) GetMetrics() PrefetchMetrics {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.metrics
}
