// Package server contains the HTTP and WebSocket handlers of the blog API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "zenith/docs" // swagger docs
	"zenith/internal/auth"
	"zenith/internal/cache"
	"zenith/internal/config"
	"zenith/internal/database"
	"zenith/internal/featureflags"
	"zenith/internal/jobs"
	"zenith/internal/middleware"
	"zenith/internal/models"
	"zenith/internal/notifications"
	"zenith/internal/repository"
	"zenith/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
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

	featureFlags *featureflags.Manager

	notifier  *notifications.Notifier
	hub       *notifications.Hub
	scheduler *jobs.Scheduler

	authService     *service.AuthService
	userService     *service.UserService
	postService     *service.PostService
	commentService  *service.CommentService
	categoryService *service.CategoryService
	tagService      *service.TagService
	cleanupService  *service.CleanupService
}

// NewServer connects to the database and Redis described by cfg and builds the server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil: caching, revocation and rate limiting are then
// skipped and moderation events stay in-process.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires a config and a database")
	}

	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	tagRepo := repository.NewTagRepository(db)

	store := cache.NewStore(redisClient)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiration)
	var revocations auth.RevocationStore
	if redisClient != nil {
		revocations = auth.NewRedisRevocationStore(redisClient)
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("zenith-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
	}

	s.tagService = service.NewTagService(tagRepo, postRepo, store)
	s.categoryService = service.NewCategoryService(categoryRepo, postRepo, store)
	s.authService = service.NewAuthService(userRepo, tokens, revocations)
	s.userService = service.NewUserService(tx, userRepo, postRepo, commentRepo, store)
	s.postService = service.NewPostService(service.PostServiceDeps{
		Tx:         tx,
		Posts:      postRepo,
		Comments:   commentRepo,
		Categories: categoryRepo,
		Users:      userRepo,
		Tags:       s.tagService,
		Cache:      store,
		Events:     s.notifier,
	})
	s.commentService = service.NewCommentService(commentRepo, postRepo, s.notifier)
	s.cleanupService = service.NewCleanupService(tx, postRepo, commentRepo, store, cfg.CleanupRetention())

	if cfg.CleanupEnabled {
		scheduler, err := jobs.NewScheduler(cfg.CleanupSchedule, s.cleanupService)
		if err != nil {
			return nil, err
		}
		s.scheduler = scheduler
	}

	return s, nil
}

// App builds the Fiber application with middleware and routes. Tests drive it
// through app.Test without opening a listener.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	if s.shutdownCtx == nil {
		s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())
	}

	app := fiber.New(fiber.Config{
		AppName:      "Zenith Blog API",
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// errorHandler catches errors no handler turned into a response.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		appErr := &models.AppError{Code: models.CodeInternal, Message: fe.Message}
		switch {
		case fe.Code == fiber.StatusNotFound:
			appErr.Code = models.CodeNotFound
		case fe.Code < fiber.StatusInternalServerError:
			appErr.Code = models.CodeValidation
		}
		return models.RespondWithError(c, fe.Code, appErr)
	}
	return s.respondError(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS must run before anything that can short-circuit so error responses carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				&models.AppError{Code: "RATE_LIMITED", Message: "Too many requests, please try again later."})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/monitor", monitor.New(monitor.Config{Title: "Zenith API Monitor"}))
	app.Get("/api/swagger/*", swagger.HandlerDefault)

	v1 := app.Group("/api/v1", s.Authenticate())
	authed := s.AuthRequired()

	authRoutes := v1.Group("/auth")
	authRoutes.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	authRoutes.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	authRoutes.Post("/logout", authed, s.Logout)

	users := v1.Group("/users")
	users.Get("/me", authed, s.GetMe)
	users.Put("/me", authed, s.UpdateMe)
	users.Put("/me/password", authed, s.ChangePassword)
	// specific /:id/:resource routes before generic /:id
	users.Get("/:id/posts", s.GetUserPosts)
	users.Get("/:id", authed, s.GetUser)

	posts := v1.Group("/posts")
	posts.Get("/published", s.ListPublishedPosts)
	posts.Get("/me", authed, s.ListMyPosts)
	posts.Get("/slug/:slug", s.GetPostBySlug)
	posts.Post("/", authed, s.CreatePost)
	posts.Get("/:id/comments", s.ListPostComments)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", authed, s.UpdatePost)
	posts.Delete("/:id", authed, s.DeletePost)

	comments := v1.Group("/comments", authed)
	comments.Post("/", middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	comments.Get("/me", s.ListMyComments)
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	v1.Get("/features", s.GetFeatureFlags)
	v1.Get("/categories", s.ListCategories)
	v1.Get("/categories/:id", s.GetCategory)
	v1.Get("/tags", s.ListTags)
	v1.Get("/tags/:id", s.GetTag)

	mod := v1.Group("/moderator", s.RoleRequired(models.RoleModerator, models.RoleAdmin))
	mod.Get("/posts", s.ListPostsByStatus)
	mod.Patch("/posts/:id/status", s.UpdatePostStatus)
	mod.Patch("/posts/:id/publish", s.PublishPost)
	mod.Patch("/posts/:id/archive", s.ArchivePost)
	mod.Get("/comments", s.ListCommentsByStatus)
	mod.Patch("/comments/:id/approve", s.ApproveComment)
	mod.Patch("/comments/:id/spam", s.MarkCommentSpam)
	mod.Patch("/comments/:id/archive", s.ArchiveComment)
	mod.Get("/ws", s.ModerationFeed())

	admin := v1.Group("/admin", s.RoleRequired(models.RoleAdmin))
	admin.Get("/users", s.ListUsers)
	admin.Patch("/users/:id/role", s.UpdateUserRole)
	admin.Delete("/users/:id", s.DeleteUser)
	admin.Post("/categories", s.CreateCategory)
	admin.Put("/categories/:id", s.UpdateCategory)
	admin.Delete("/categories/:id", s.DeleteCategory)
	admin.Post("/tags", s.CreateTag)
	admin.Put("/tags/:id", s.UpdateTag)
	admin.Delete("/tags/:id", s.DeleteTag)
	admin.Post("/cleanup", s.RunCleanup)
}

// LivenessCheck handles liveness checks
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck handles readiness checks. Redis is optional: an
// unconfigured client reports "disabled" without failing the check.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Start wires the moderation feed, starts the cleanup schedule and listens.
// It blocks until the listener stops.
func (s *Server) Start() error {
	app := s.App()

	if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
		middleware.Logger.Warn("moderation feed wiring failed", slog.String("error", err.Error()))
	}
	if s.scheduler != nil {
		s.scheduler.Start()
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port), slog.String("env", s.config.Env))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.scheduler != nil {
		if err := s.scheduler.Stop(ctx); err != nil {
			middleware.Logger.Warn("cleanup scheduler did not stop in time", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down moderation hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
