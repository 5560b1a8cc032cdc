package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/amitsajwan/realestate-ai-sub013/internal/config"
	"github.com/amitsajwan/realestate-ai-sub013/internal/models"
)

// Scheduler polls for posts whose scheduled time has come and hands them
// to the orchestrator. It also picks up posts stuck in publishing from a
// crashed run once their claim has gone stale.
type Scheduler struct {
	config       *config.SchedulerConfig
	logger       *zap.Logger
	store        PostStore
	orchestrator *Orchestrator
	staleAfter   time.Duration
	ticker       *time.Ticker
	stopCh       chan struct{}
}

func NewScheduler(cfg *config.SchedulerConfig, publishCfg *config.PublishConfig, logger *zap.Logger, store PostStore, orchestrator *Orchestrator) (*Scheduler, error) {
	staleAfter, err := time.ParseDuration(publishCfg.StaleClaimAfter)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		config:       cfg,
		logger:       logger,
		store:        store,
		orchestrator: orchestrator,
		staleAfter:   staleAfter,
		stopCh:       make(chan struct{}),
	}, nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled")
		return nil
	}

	interval, err := time.ParseDuration(s.config.PollInterval)
	if err != nil {
		s.logger.Error("Invalid poll interval", zap.String("interval", s.config.PollInterval), zap.Error(err))
		return err
	}

	s.logger.Info("Starting scheduler", zap.String("poll_interval", s.config.PollInterval))

	s.ticker = time.NewTicker(interval)

	// Run first poll immediately so past-due posts do not wait a full
	// interval after startup
	go func() {
		s.runOnce(ctx)
	}()

	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.runOnce(ctx)
			case <-s.stopCh:
				s.logger.Info("Scheduler stopped")
				return
			case <-ctx.Done():
				s.logger.Info("Scheduler context cancelled")
				return
			}
		}
	}()

	return nil
}

func (s *Scheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
	s.logger.Info("Scheduler shutdown completed")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()
	dispatched := s.dispatchDue(ctx)
	dispatched += s.dispatchStale(ctx)
	if dispatched > 0 {
		s.logger.Info("Scheduler poll completed",
			zap.Int("dispatched", dispatched),
			zap.Duration("duration", time.Since(start)))
	}
}

func (s *Scheduler) dispatchDue(ctx context.Context) int {
	due, err := s.store.ListDuePosts(ctx, time.Now(), s.config.BatchSize)
	if err != nil {
		s.logger.Error("Failed to list due posts", zap.Error(err))
		return 0
	}
	return s.dispatch(ctx, duePostIDs(due))
}

func (s *Scheduler) dispatchStale(ctx context.Context) int {
	stale, err := s.store.ListStalePublishing(ctx, time.Now().Add(-s.staleAfter), s.config.BatchSize)
	if err != nil {
		s.logger.Error("Failed to list stale publishing posts", zap.Error(err))
		return 0
	}
	if len(stale) > 0 {
		s.logger.Warn("Taking over stale publish claims", zap.Int("count", len(stale)))
	}
	return s.dispatch(ctx, duePostIDs(stale))
}

// dispatch publishes each post concurrently and waits for the batch. A
// post already being driven elsewhere is skipped without noise.
func (s *Scheduler) dispatch(ctx context.Context, ids []string) int {
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := s.orchestrator.Publish(ctx, id); err != nil {
				if errors.Is(err, ErrAlreadyInProgress) {
					s.logger.Debug("Post already being published, skipping",
						zap.String("post_id", id))
					return
				}
				s.logger.Error("Scheduled publish failed",
					zap.String("post_id", id),
					zap.Error(err))
			}
		}(id)
	}
	wg.Wait()
	return len(ids)
}

func duePostIDs(posts []*models.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
	}
	return ids
}
