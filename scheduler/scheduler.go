// Package scheduler runs the background jobs of the prescription API: a
// periodic reachability probe of the knowledge source whose results feed
// the /health endpoint and the knowledge_source_up gauge.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/giygas/prescription-api/interfaces"
	"github.com/giygas/prescription-api/logging"
	"github.com/giygas/prescription-api/metrics"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

const defaultProbeTimeout = 10 * time.Second

// Scheduler probes the knowledge source on a fixed interval.
type Scheduler struct {
	store        interfaces.StatusStore
	prober       interfaces.Prober
	interval     time.Duration
	probeTimeout time.Duration
	scheduler    *gocron.Scheduler
}

// NewScheduler creates a scheduler with injected dependencies
func NewScheduler(store interfaces.StatusStore, prober interfaces.Prober, interval time.Duration) *Scheduler {
	return &Scheduler{
		store:        store,
		prober:       prober,
		interval:     interval,
		probeTimeout: defaultProbeTimeout,
		scheduler:    gocron.NewScheduler(time.Local),
	}
}

// Start runs a first probe and schedules the next ones. A failing first
// probe is logged, not returned: the API works without it and /health
// reports the failure.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("probe interval must be positive, got %s", s.interval)
	}

	s.runProbe()

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.runProbe)
	if err != nil {
		logging.Error("Failed to schedule knowledge source probe", "error", err)
		return fmt.Errorf("failed to schedule probe: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Knowledge source probe scheduled", "interval", s.interval.String())
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// runProbe pings the knowledge source once and records the result.
func (s *Scheduler) runProbe() {
	if !s.store.BeginProbe() {
		logging.Info("Probe already in progress, skipping...")
		return
	}
	defer s.store.EndProbe()

	ctx, cancel := context.WithTimeout(context.Background(), s.probeTimeout)
	defer cancel()

	start := time.Now()
	err := s.prober.Ping(ctx)
	s.store.RecordProbe(time.Now(), err)
	metrics.SetKnowledgeSourceUp(err == nil)

	if err != nil {
		logging.Warn("Knowledge source probe failed", "error", err, "duration", time.Since(start).String())
		return
	}
	logging.Debug("Knowledge source probe succeeded", "duration", time.Since(start).String())
}
