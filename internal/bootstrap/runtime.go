// Package bootstrap wires process-level dependencies shared by the server,
// seed and migrate binaries.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"unigram/internal/cache"
	"unigram/internal/config"
	"unigram/internal/database"
	"unigram/internal/middleware"
	"unigram/internal/models"
	"unigram/internal/repository"
	"unigram/internal/service"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipRedis leaves the Redis client nil, for one-shot tools.
	SkipRedis bool
}

// InitRuntime connects to DB and Redis and ensures the development demo
// account when enabled.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	var r *redis.Client
	if !opts.SkipRedis {
		// may result in nil client if unreachable
		cache.InitRedis(cfg.RedisURL)
		r = cache.GetClient()
	}

	if err := EnsureDevDemoUser(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development demo user: %w", err)
	}

	return db, r, nil
}

// NewEngine builds an interaction service over db that records
// notifications without pushing them to websocket clients.
func NewEngine(cfg *config.Config, db *gorm.DB) *service.InteractionService {
	avatar := models.DefaultAvatarURL
	if cfg != nil && cfg.DefaultAvatarURL != "" {
		avatar = cfg.DefaultAvatarURL
	}

	identities := service.NewIdentityResolver(repository.NewUserRepository(db))
	projector := service.NewFeedProjector(identities, avatar)
	notifs := service.NewNotificationService(repository.NewNotificationRepository(db), identities, nil)
	notifs.SetDefaultAvatar(avatar)
	return service.NewInteractionService(repository.NewPostRepository(db), identities, projector, notifs)
}

// EnsureDevDemoUser creates or refreshes a known login for local
// development. It is a no-op outside the development profile or when
// DEV_BOOTSTRAP_DEMO is off.
func EnsureDevDemoUser(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapDemo {
		return nil
	}

	name := strings.TrimSpace(cfg.DevDemoName)
	if name == "" {
		name = "Unigram Demo"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevDemoEmail))
	if email == "" {
		email = "demo@unigram.dev"
	}
	if cfg.DevDemoPassword == "" {
		return fmt.Errorf("DEV_DEMO_PASSWORD must be set when DEV_BOOTSTRAP_DEMO is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.DevDemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	var user models.User
	err = db.Transaction(func(tx *gorm.DB) error {
		findErr := tx.Where("email = ?", email).First(&user).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			user = models.User{
				Name:     name,
				Email:    email,
				Password: string(hashedPassword),
			}
			return tx.Create(&user).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&user).Updates(map[string]any{
				"name":     name,
				"password": string(hashedPassword),
			}).Error
		}
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("Development demo user ensured",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("email", email),
	)
	return nil
}
