package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/amitsajwan/realestate-ai-sub013/internal/config"
	"github.com/amitsajwan/realestate-ai-sub013/internal/models"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel"
)

type SchedulerTestSuite struct {
	suite.Suite

	store    *fakeStore
	resolver *fakeResolver
	facebook *fakePublisher
	orch     *Orchestrator
}

func (s *SchedulerTestSuite) SetupTest() {
	s.store = newFakeStore()
	s.resolver = &fakeResolver{property: &models.Property{ID: "prop-1", Title: "Townhouse"}}
	registry := channel.NewRegistry(zap.NewNop())
	s.facebook = &fakePublisher{name: "facebook"}
	s.Require().NoError(registry.Register(s.facebook))

	orch, err := NewOrchestrator(&config.PublishConfig{
		ChannelTimeout:  "2s",
		MaxAttempts:     3,
		RetryBaseDelay:  "1ms",
		RetryMaxDelay:   "4ms",
		StaleClaimAfter: "10m",
	}, zap.NewNop(), s.store, s.resolver, &fakeGenerator{}, registry, fakeMedia{}, &recorderBus{})
	s.Require().NoError(err)
	s.orch = orch
}

func (s *SchedulerTestSuite) newScheduler(cfg *config.SchedulerConfig) *Scheduler {
	sched, err := NewScheduler(cfg, &config.PublishConfig{StaleClaimAfter: "10m"}, zap.NewNop(), s.store, s.orch)
	s.Require().NoError(err)
	return sched
}

func (s *SchedulerTestSuite) draftID() string {
	post, err := s.orch.CreateDraft(context.Background(), CreateDraftParams{
		PropertyID:     "prop-1",
		Title:          "Townhouse open day",
		TargetChannels: []string{"facebook"},
	})
	s.Require().NoError(err)
	return post.ID
}

func TestSchedulerTestSuite(t *testing.T) {
	suite.Run(t, new(SchedulerTestSuite))
}

func (s *SchedulerTestSuite) TestStart_PublishesDuePost() {
	id := s.draftID()

	// Backdate the schedule past the point the API would allow, as if
	// the process had been down over the delivery time.
	past := time.Now().Add(-time.Minute)
	s.store.mu.Lock()
	post := s.store.posts[id]
	post.Status = models.StatusScheduled
	post.ScheduledAt = &past
	s.store.mu.Unlock()

	sched := s.newScheduler(&config.SchedulerConfig{PollInterval: "10ms", BatchSize: 50, Enabled: true})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Require().NoError(sched.Start(ctx))
	defer sched.Stop()

	s.Eventually(func() bool {
		got, err := s.store.GetPost(context.Background(), id)
		return err == nil && got.Status == models.StatusPublished
	}, 2*time.Second, 10*time.Millisecond)

	s.Equal(1, s.facebook.calls())
}

func (s *SchedulerTestSuite) TestStart_RecoversStalePublishing() {
	id := s.draftID()

	s.store.mu.Lock()
	post := s.store.posts[id]
	post.Status = models.StatusPublishing
	post.UpdatedAt = time.Now().Add(-time.Hour)
	s.store.mu.Unlock()

	sched := s.newScheduler(&config.SchedulerConfig{PollInterval: "10ms", BatchSize: 50, Enabled: true})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Require().NoError(sched.Start(ctx))
	defer sched.Stop()

	s.Eventually(func() bool {
		got, err := s.store.GetPost(context.Background(), id)
		return err == nil && got.Status == models.StatusPublished
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *SchedulerTestSuite) TestStart_Disabled() {
	id := s.draftID()
	past := time.Now().Add(-time.Minute)
	s.store.mu.Lock()
	post := s.store.posts[id]
	post.Status = models.StatusScheduled
	post.ScheduledAt = &past
	s.store.mu.Unlock()

	sched := s.newScheduler(&config.SchedulerConfig{PollInterval: "10ms", Enabled: false})
	s.Require().NoError(sched.Start(context.Background()))

	time.Sleep(50 * time.Millisecond)
	got, err := s.store.GetPost(context.Background(), id)
	s.Require().NoError(err)
	s.Equal(models.StatusScheduled, got.Status)
	s.Zero(s.facebook.calls())
}

func (s *SchedulerTestSuite) TestStart_InvalidPollInterval() {
	sched := s.newScheduler(&config.SchedulerConfig{PollInterval: "soon", Enabled: true})
	s.Error(sched.Start(context.Background()))
}
