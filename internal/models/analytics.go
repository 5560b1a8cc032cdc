package models

import "time"

// ChannelMetrics is one analytics snapshot for a published channel post.
// Rows are append-only; the newest row per (post, channel) is the current
// view and the history gives the trend.
type ChannelMetrics struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID      string    `gorm:"not null;index:idx_metrics_post_channel;size:36" json:"post_id"`
	Channel     string    `gorm:"not null;index:idx_metrics_post_channel;size:50" json:"channel"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	Engagement  int64     `json:"engagement"`
	CollectedAt time.Time `gorm:"not null;index" json:"collected_at"`
}
