package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/amitsajwan/realestate-ai-sub013/internal/config"
	"github.com/amitsajwan/realestate-ai-sub013/internal/models"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel"
)

// Collector periodically pulls engagement numbers for published channel
// posts and stores them as append-only snapshots.
type Collector struct {
	config   *config.AnalyticsConfig
	logger   *zap.Logger
	store    PostStore
	registry *channel.Registry
	ticker   *time.Ticker
	done     chan bool
}

func NewCollector(cfg *config.AnalyticsConfig, logger *zap.Logger, store PostStore, registry *channel.Registry) *Collector {
	return &Collector{
		config:   cfg,
		logger:   logger,
		store:    store,
		registry: registry,
		done:     make(chan bool),
	}
}

// Start begins the periodic collection loop.
func (c *Collector) Start(ctx context.Context) error {
	if !c.config.Enabled {
		c.logger.Info("Analytics collector is disabled")
		return nil
	}

	interval, err := time.ParseDuration(c.config.PollInterval)
	if err != nil {
		c.logger.Error("Invalid analytics poll interval", zap.String("interval", c.config.PollInterval), zap.Error(err))
		return err
	}

	c.logger.Info("Starting analytics collector", zap.String("poll_interval", c.config.PollInterval))
	c.ticker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-c.done:
				c.logger.Info("Analytics collector stopped")
				return
			case <-ctx.Done():
				c.logger.Info("Analytics collector context cancelled")
				return
			case <-c.ticker.C:
				c.CollectOnce(ctx)
			}
		}
	}()

	return nil
}

// Stop stops the collector.
func (c *Collector) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
	}
	close(c.done)
}

// CollectOnce fetches metrics for every succeeded channel of every
// published post. A channel without a metrics source, or one whose fetch
// fails, is skipped; the rest of the batch still lands.
func (c *Collector) CollectOnce(ctx context.Context) {
	posts, err := c.store.ListCollectable(ctx, c.config.BatchSize)
	if err != nil {
		c.logger.Error("Failed to list posts for collection", zap.Error(err))
		return
	}

	sources := c.registry.MetricsSources()
	now := time.Now()
	var rows []*models.ChannelMetrics

	for _, post := range posts {
		for _, name := range post.SucceededChannels() {
			source, ok := sources[name]
			if !ok {
				continue
			}
			externalID := post.ChannelStatus[name].ExternalPostID
			if externalID == "" {
				continue
			}

			metrics, err := source.FetchMetrics(ctx, externalID)
			if err != nil {
				c.logger.Warn("Failed to fetch channel metrics",
					zap.String("post_id", post.ID),
					zap.String("channel", name),
					zap.Error(err))
				continue
			}

			rows = append(rows, &models.ChannelMetrics{
				PostID:      post.ID,
				Channel:     name,
				Impressions: metrics.Impressions,
				Clicks:      metrics.Clicks,
				Engagement:  metrics.Engagement,
				CollectedAt: now,
			})
		}
	}

	if len(rows) == 0 {
		return
	}
	if err := c.store.SaveMetrics(ctx, rows); err != nil {
		c.logger.Error("Failed to save metrics", zap.Error(err))
		return
	}
	c.logger.Info("Metrics collected",
		zap.Int("posts", len(posts)),
		zap.Int("snapshots", len(rows)))
}

// ChannelAnalytics is the latest snapshot for one channel of a post.
type ChannelAnalytics struct {
	Channel     string    `json:"channel"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	Engagement  int64     `json:"engagement"`
	CollectedAt time.Time `json:"collected_at"`
}

// PostAnalytics aggregates the newest snapshot per channel.
type PostAnalytics struct {
	PostID      string             `json:"post_id"`
	Channels    []ChannelAnalytics `json:"channels"`
	Impressions int64              `json:"impressions"`
	Clicks      int64              `json:"clicks"`
	Engagement  int64              `json:"engagement"`
}

// Summary returns the per-channel latest numbers and their totals for one
// post.
func (c *Collector) Summary(ctx context.Context, postID string) (*PostAnalytics, error) {
	if _, err := c.store.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	rows, err := c.store.ListMetrics(ctx, postID)
	if err != nil {
		return nil, err
	}

	// Rows come back newest first, so the first row per channel wins.
	summary := &PostAnalytics{PostID: postID}
	seen := make(map[string]bool)
	for _, row := range rows {
		if seen[row.Channel] {
			continue
		}
		seen[row.Channel] = true
		summary.Channels = append(summary.Channels, ChannelAnalytics{
			Channel:     row.Channel,
			Impressions: row.Impressions,
			Clicks:      row.Clicks,
			Engagement:  row.Engagement,
			CollectedAt: row.CollectedAt,
		})
		summary.Impressions += row.Impressions
		summary.Clicks += row.Clicks
		summary.Engagement += row.Engagement
	}
	return summary, nil
}
