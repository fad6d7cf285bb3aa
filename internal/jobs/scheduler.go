// Package jobs runs periodic observability tasks. Nothing here changes
// exchange state: the lifecycle has no timers.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/aimerfeng/SkillSwap/internal/config"
	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/monitoring"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// StatusCounter reports how many exchanges are in each status
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[models.ExchangeStatus]int64, error)
}

// PoolReporter publishes connection pool usage
type PoolReporter interface {
	ReportPoolStats()
}

// Scheduler owns the cron runner
type Scheduler struct {
	cron    *cron.Cron
	cfg     *config.JobsConfig
	counter StatusCounter
	pool    PoolReporter
	timeout time.Duration
}

// NewScheduler creates a scheduler. pool may be nil.
func NewScheduler(cfg *config.JobsConfig, counter StatusCounter, pool PoolReporter) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		cfg:     cfg,
		counter: counter,
		pool:    pool,
		timeout: 10 * time.Second,
	}
}

// Start registers the jobs and starts the runner
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.cfg.StatsEnabled {
		log.Info().Msg("Stats job disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.StatsSchedule, func() { s.RefreshStats(ctx) }); err != nil {
		return fmt.Errorf("invalid stats schedule %q: %w", s.cfg.StatsSchedule, err)
	}

	// Populate gauges immediately rather than waiting a full period
	s.RefreshStats(ctx)

	s.cron.Start()
	log.Info().Str("schedule", s.cfg.StatsSchedule).Msg("Job scheduler started")
	return nil
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	<-done.Done()
	log.Info().Msg("Job scheduler stopped")
}

// RefreshStats updates the exchange status gauges and pool metrics
func (s *Scheduler) RefreshStats(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	counts, err := s.counter.CountByStatus(ctx)
	if err != nil {
		log.Error().Err(err).Msg("[CRON] Failed to count exchanges by status")
		return
	}

	labels := make(map[string]int64, len(counts))
	for status, n := range counts {
		labels[string(status)] = n
	}
	monitoring.SetExchangesByStatus(labels)

	if s.pool != nil {
		s.pool.ReportPoolStats()
	}
	log.Debug().Interface("counts", labels).Msg("[CRON] Exchange stats refreshed")
}
