package repository

import (
	"context"
	"fmt"
	"time"

	"unigram/internal/models"

	"gorm.io/gorm"
)

// StoryRepository stores ephemeral stories.
type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	GetByID(ctx context.Context, id uint) (*models.Story, error)
	ListSince(ctx context.Context, cutoff time.Time) ([]models.Story, error)
	Delete(ctx context.Context, id uint) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type storyRepository struct {
	db *gorm.DB
}

func NewStoryRepository(db *gorm.DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) Create(ctx context.Context, story *models.Story) error {
	if err := r.db.WithContext(ctx).Create(story).Error; err != nil {
		return fmt.Errorf("create story: %w", err)
	}
	return nil
}

func (r *storyRepository) GetByID(ctx context.Context, id uint) (*models.Story, error) {
	var story models.Story
	if err := r.db.WithContext(ctx).First(&story, id).Error; err != nil {
		return nil, notFoundOr(err, "Story", id)
	}
	return &story, nil
}

// ListSince returns stories created after cutoff, newest first.
func (r *storyRepository) ListSince(ctx context.Context, cutoff time.Time) ([]models.Story, error) {
	var stories []models.Story
	err := r.db.WithContext(ctx).
		Where("created_at > ?", cutoff).
		Order("created_at DESC, id DESC").
		Find(&stories).Error
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return stories, nil
}

func (r *storyRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Story{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete story: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Story", id)
	}
	return nil
}

// DeleteOlderThan removes stories created at or before cutoff.
func (r *storyRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at <= ?", cutoff).Delete(&models.Story{})
	if result.Error != nil {
		return 0, fmt.Errorf("purge stories: %w", result.Error)
	}
	return result.RowsAffected, nil
}
