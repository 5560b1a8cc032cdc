package service

import (
	"context"
	"time"

	"github.com/amitsajwan/realestate-ai-sub013/internal/models"
)

// PostFilter narrows ListPosts results.
type PostFilter struct {
	Status     string
	PropertyID string
	Limit      int
	Offset     int
}

// PostStore is the persistence boundary for posts and their analytics.
// UpdatePost must apply the mutation atomically against the current row so
// concurrent publishers never clobber each other's channel states.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, filter PostFilter) ([]*models.Post, int64, error)
	UpdatePost(ctx context.Context, id string, mutate func(post *models.Post) error) (*models.Post, error)

	// ListDuePosts returns scheduled posts whose time has come.
	ListDuePosts(ctx context.Context, now time.Time, limit int) ([]*models.Post, error)
	// ListStalePublishing returns posts stuck in publishing since before
	// the cutoff, so a crashed run can be taken over.
	ListStalePublishing(ctx context.Context, cutoff time.Time, limit int) ([]*models.Post, error)
	// ListCollectable returns posts with at least one succeeded channel,
	// for the analytics collector.
	ListCollectable(ctx context.Context, limit int) ([]*models.Post, error)

	SaveMetrics(ctx context.Context, rows []*models.ChannelMetrics) error
	ListMetrics(ctx context.Context, postID string) ([]*models.ChannelMetrics, error)
}

// PropertyResolver looks up the property a post markets.
type PropertyResolver interface {
	GetProperty(ctx context.Context, id string) (*models.Property, error)
}

// ContentGenerator produces marketing copy for a property in one language.
type ContentGenerator interface {
	Generate(ctx context.Context, property *models.Property, language string) (string, error)
}
