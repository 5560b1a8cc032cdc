package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amitsajwan/realestate-ai-sub013/internal/models"
)

// Store is the gorm-backed implementation of PostStore and
// PropertyResolver.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

func (s *Store) ListPosts(ctx context.Context, filter PostFilter) ([]*models.Post, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Post{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PropertyID != "" {
		query = query.Where("property_id = ?", filter.PropertyID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	var posts []*models.Post
	query = query.Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if err := query.Find(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, total, nil
}

// UpdatePost applies mutate inside a transaction with the row locked, so
// concurrent publish workers read and write channel states serially.
func (s *Store) UpdatePost(ctx context.Context, id string, mutate func(post *models.Post) error) (*models.Post, error) {
	var updated *models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&post, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return fmt.Errorf("failed to load post: %w", err)
		}
		if err := mutate(&post); err != nil {
			return err
		}
		if err := tx.Save(&post).Error; err != nil {
			return fmt.Errorf("failed to save post: %w", err)
		}
		updated = &post
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) ListDuePosts(ctx context.Context, now time.Time, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	if err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", models.StatusScheduled, now).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list due posts: %w", err)
	}
	return posts, nil
}

func (s *Store) ListStalePublishing(ctx context.Context, cutoff time.Time, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	if err := s.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.StatusPublishing, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list stale publishing posts: %w", err)
	}
	return posts, nil
}

func (s *Store) ListCollectable(ctx context.Context, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	if err := s.db.WithContext(ctx).
		Where("status IN ?", []models.Status{models.StatusPublished, models.StatusPartiallyPublished}).
		Order("published_at DESC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list collectable posts: %w", err)
	}
	return posts, nil
}

func (s *Store) SaveMetrics(ctx context.Context, rows []*models.ChannelMetrics) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(rows).Error; err != nil {
		return fmt.Errorf("failed to save metrics: %w", err)
	}
	return nil
}

func (s *Store) ListMetrics(ctx context.Context, postID string) ([]*models.ChannelMetrics, error) {
	var rows []*models.ChannelMetrics
	if err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("collected_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	return rows, nil
}

// Property lookups

func (s *Store) CreateProperty(ctx context.Context, property *models.Property) error {
	if err := s.db.WithContext(ctx).Create(property).Error; err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

func (s *Store) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	var property models.Property
	if err := s.db.WithContext(ctx).First(&property, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return &property, nil
}

func (s *Store) ListProperties(ctx context.Context, limit, offset int) ([]*models.Property, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Property{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count properties: %w", err)
	}

	var properties []*models.Property
	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&properties).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, total, nil
}
