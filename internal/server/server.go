// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"time"

	"unigram/internal/bootstrap"
	"unigram/internal/config"
	"unigram/internal/featureflags"
	"unigram/internal/middleware"
	"unigram/internal/models"
	"unigram/internal/notifications"
	"unigram/internal/repository"
	"unigram/internal/service"
	"unigram/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	auth           middleware.AuthConfig
	flags          *featureflags.Manager

	userRepo         repository.UserRepository
	postRepo         repository.PostRepository
	notificationRepo repository.NotificationRepository
	storyRepo        repository.StoryRepository
	store            *storage.LocalStore

	notifier   *notifications.Notifier
	hub        *notifications.Hub
	dispatcher *notifications.Dispatcher

	interactions  *service.InteractionService
	notifications *service.NotificationService
	postService   *service.PostService
	userService   *service.UserService
	storyService  *service.StoryService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding. redisClient may be nil; realtime delivery then
// stays on this instance.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	s := &Server{
		config:           cfg,
		db:               db,
		redis:            redisClient,
		promMiddleware:   middleware.InitMetrics("unigram-api"),
		userRepo:         repository.NewUserRepository(db),
		postRepo:         repository.NewPostRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
		storyRepo:        repository.NewStoryRepository(db),
		store:            storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL, int64(cfg.MaxUploadBytes())),
		flags:            featureflags.NewManager(cfg.FeatureFlags),
		auth: middleware.AuthConfig{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			Redis:    redisClient,
		},
	}

	s.hub = notifications.NewHub()
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
	}
	s.dispatcher = notifications.NewDispatcher(s.hub, s.notifier)

	identities := service.NewIdentityResolver(s.userRepo)
	projector := service.NewFeedProjector(identities, cfg.DefaultAvatarURL)

	s.notifications = service.NewNotificationService(s.notificationRepo, identities,
		flaggedPublisher{flags: s.flags, next: s.dispatcher})
	s.notifications.SetDefaultAvatar(cfg.DefaultAvatarURL)
	s.interactions = service.NewInteractionService(s.postRepo, identities, projector, s.notifications)
	s.postService = service.NewPostService(s.postRepo, s.userRepo, s.store, projector)
	s.userService = service.NewUserService(s.userRepo)
	s.storyService = service.NewStoryService(s.storyRepo, s.userRepo, s.store, projector, cfg.StoryTTL())

	return s, nil
}

// Stories exposes the story service so the process can run its expiry sweeper.
func (s *Server) Stories() *service.StoryService {
	return s.storyService
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (300 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static(storage.URLPrefix, s.store.Dir(), fiber.Static{
		MaxAge: 3600,
	})

	api := app.Group("/api")
	api.Get("/", s.ReadinessCheck)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Unigram Backend Metrics Dashboard",
	}))

	authRequired := middleware.AuthRequired(s.auth)
	optionalAuth := middleware.OptionalAuth(s.auth)

	posts := api.Group("/posts")
	posts.Get("/", optionalAuth, s.GetPosts)
	posts.Get("/user/:userId", optionalAuth, s.GetUserPosts)
	posts.Post("/", authRequired, middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	// Define specific /:postId/:resource routes BEFORE generic /:postId route
	posts.Put("/:postId/like", authRequired, middleware.RateLimit(
		s.redis, 120, time.Minute, "toggle_like"), s.ToggleLike)
	posts.Post("/:postId/comment", authRequired, middleware.RateLimit(
		s.redis, 30, time.Minute, "create_comment"), s.CreateComment)
	posts.Post("/:postId/comment/:commentId/reply", authRequired, middleware.RateLimit(
		s.redis, 30, time.Minute, "create_reply"), s.CreateReply)
	posts.Get("/:postId", optionalAuth, s.GetPost)

	notifs := api.Group("/notifications", authRequired)
	notifs.Post("/mark-seen/:userId", s.MarkNotificationsSeen)
	notifs.Get("/:userId/unread-count", s.GetUnreadCount)
	notifs.Get("/:userId", s.GetNotifications)

	users := api.Group("/users")
	users.Get("/:id", s.GetUserProfile)
	users.Put("/:id", authRequired, s.UpdateUserProfile)

	stories := api.Group("/unisnaps")
	stories.Get("/", s.GetStories)
	stories.Post("/", authRequired, middleware.RateLimit(
		s.redis, 20, time.Hour, "create_story"), s.CreateStory)
	stories.Delete("/:id", authRequired, s.DeleteStory)

	api.Get("/feature-flags", authRequired, s.GetFeatureFlags)

	// Browsers pass the token as ?token= on the handshake.
	api.Get("/ws", authRequired, s.requireUpgrade, s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional: when it
// was never configured the instance is still ready, but a configured Redis
// that stops answering is not.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"service": "unigram",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Unigram API",
		BodyLimit: s.config.MaxUploadBytes() + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, fe)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled request error",
				"path", c.Path(), "error", err.Error())
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.notifier != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring",
					"hub", s.hub.Name(), "error", err.Error())
			}
		}()
	}

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop all wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err.Error())
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", "hub", s.hub.Name(), "error", err.Error())
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr.Error())
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr.Error())
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
