// Package scheduler refreshes the asset documents of a watchlist on a cron
// schedule, so analyses during the trading day start from fresh data.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/finagent-ir/finagent/internal/common"
	"github.com/finagent-ir/finagent/internal/models"
)

// Refresher is the data-preparation surface the scheduler drives.
type Refresher interface {
	ShouldRun(symbol string) (bool, string)
	Prepare(ctx context.Context, symbol string) (*models.AssetDocument, error)
}

// Watchlist is the YAML document at the configured watchlist path.
type Watchlist struct {
	Symbols []string `yaml:"symbols"`
}

// Service runs the watchlist refresh job.
type Service struct {
	config  *common.SchedulerConfig
	refresh Refresher
	cron    *cron.Cron
	logger  arbor.ILogger

	mu      sync.Mutex
	running bool
}

// NewService creates the scheduler over a refresher.
func NewService(config *common.SchedulerConfig, refresh Refresher, logger arbor.ILogger) *Service {
	return &Service{
		config:  config,
		refresh: refresh,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start registers the refresh job and starts the cron loop. Disabled
// schedulers return without error.
func (s *Service) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info().Msg("Scheduler disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	schedule := s.config.Schedule
	if schedule == "" {
		schedule = "0 9 * * *"
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.RefreshWatchlist(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info().
		Str("schedule", schedule).
		Str("watchlist", s.config.WatchlistPath).
		Msg("Scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info().Msg("Scheduler stopped")
}

// RefreshWatchlist loads the watchlist and refreshes every symbol whose
// document is stale. Per-symbol failures are logged and skipped.
func (s *Service) RefreshWatchlist(ctx context.Context) {
	list, err := s.loadWatchlist()
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.config.WatchlistPath).Msg("Failed to load watchlist")
		return
	}
	if len(list.Symbols) == 0 {
		s.logger.Info().Msg("Watchlist is empty, nothing to refresh")
		return
	}

	refreshed := 0
	for _, symbol := range list.Symbols {
		run, reason := s.refresh.ShouldRun(symbol)
		if !run {
			s.logger.Debug().Str("symbol", symbol).Str("reason", reason).Msg("Skipping refresh")
			continue
		}
		if _, err := s.refresh.Prepare(ctx, symbol); err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Watchlist refresh failed for symbol")
			continue
		}
		refreshed++
	}

	s.logger.Info().
		Int("symbols", len(list.Symbols)).
		Int("refreshed", refreshed).
		Msg("Watchlist refresh complete")
}

func (s *Service) loadWatchlist() (*Watchlist, error) {
	data, err := os.ReadFile(s.config.WatchlistPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist: %w", err)
	}
	var list Watchlist
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist: %w", err)
	}
	return &list, nil
}
