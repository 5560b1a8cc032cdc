package channel

import (
	"context"
	"time"

	"github.com/amitsajwan/realestate-ai-sub013/internal/models"
)

// Channel names as stored in a post's target list.
const (
	Facebook  = "facebook"
	Instagram = "instagram"
	LinkedIn  = "linkedin"
	Twitter   = "twitter"
	Website   = "website"
	Email     = "email"
)

// Request is the content handed to a publisher for one channel attempt.
type Request struct {
	PostID    string           `json:"post_id"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Language  string           `json:"language"`
	MediaURLs []string         `json:"media_urls"`
	Property  *models.Property `json:"property,omitempty"`
}

// Result is what a successful publish returns.
type Result struct {
	ExternalID  string    `json:"external_id"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Metrics is one engagement snapshot fetched from a channel.
type Metrics struct {
	Impressions int64 `json:"impressions"`
	Clicks      int64 `json:"clicks"`
	Engagement  int64 `json:"engagement"`
}

// Publisher is the unified interface every channel adapter implements.
type Publisher interface {
	// Name returns the channel name used in target lists.
	Name() string

	// Language returns the language this channel posts in.
	Language() string

	// Publish pushes the content out and returns the external post ID.
	Publish(ctx context.Context, req Request) (*Result, error)

	// Unpublish removes a previously published post. Used on archive;
	// failures there are tolerated.
	Unpublish(ctx context.Context, externalID string) error
}

// MetricsSource is implemented by adapters whose platform exposes
// engagement numbers.
type MetricsSource interface {
	FetchMetrics(ctx context.Context, externalID string) (*Metrics, error)
}
