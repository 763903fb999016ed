package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"unigram/internal/cache"
	"unigram/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id uint, fields map[string]any) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation. Lookups go
// through the Redis cache when one is configured.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			return notFoundOr(err, "User", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDs resolves many users at once, serving what it can from the cache
// and loading the rest in a single query. Unknown ids are simply absent.
func (r *userRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cache.UserKey(id)
	}

	users := make([]models.User, 0, len(ids))
	misses, _ := cache.GetMany(ctx, keys, func(_ int, raw []byte) error {
		var u models.User
		if err := json.Unmarshal(raw, &u); err != nil {
			return err
		}
		users = append(users, u)
		return nil
	})
	if len(misses) == 0 {
		return users, nil
	}

	missing := make([]uint, len(misses))
	for i, idx := range misses {
		missing[i] = ids[idx]
	}

	var loaded []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", missing).Find(&loaded).Error; err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for i := range loaded {
		_ = cache.SetJSON(ctx, cache.UserKey(loaded[i].ID), &loaded[i], cache.UserTTL)
	}
	return append(users, loaded...), nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateProfile writes the given columns, including zero values, and drops
// the cached copy so the next read sees the change.
func (r *userRepository) UpdateProfile(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}
