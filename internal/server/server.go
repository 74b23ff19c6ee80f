// Package server contains the HTTP handlers and routing for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "agora/docs" // swagger docs
	"agora/internal/cache"
	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/featureflags"
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/service"
	"agora/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// bodyLimitSlack leaves room for multipart framing and text fields around an upload.
const bodyLimitSlack = 1024 * 1024

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          *storage.Store
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager
	authService    *service.AuthService
	userService    *service.UserService
	followService  *service.FollowService
	postService    *service.PostService
	commentService *service.CommentService
	shareService   *service.ShareService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; without it the cache falls back to process memory.
	cache.InitRedis(cfg.RedisURL)

	store, err := storage.NewStore(cfg.UploadDir, int64(cfg.MaxUploadBytes))
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}

	return NewServerWithDeps(cfg, db, cache.GetClient(), store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store *storage.Store) (*Server, error) {
	if cfg == nil || db == nil || store == nil {
		return nil, fmt.Errorf("server: config, database and upload store are required")
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	shareRepo := repository.NewShareRepository(db)
	flags := featureflags.NewManager(cfg.FeatureFlags)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		store:          store,
		promMiddleware: middleware.InitMetrics("agora-api"),
		featureFlags:   flags,
		authService:    service.NewAuthService(userRepo),
		userService:    service.NewUserService(userRepo, followRepo, store),
		followService:  service.NewFollowService(userRepo, followRepo),
		postService:    service.NewPostService(postRepo, userRepo, followRepo, store, flags),
		commentService: service.NewCommentService(commentRepo, postRepo),
		shareService:   service.NewShareService(shareRepo, postRepo, flags),
	}, nil
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Agora API",
		BodyLimit:    s.config.MaxUploadBytes + bodyLimitSlack,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers. Uploaded images are embedded by browser clients on other origins.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS must run before the limiter so rejected requests still carry CORS headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins(),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting per IP
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many requests, please try again later.",
			})
		},
	}))

	app.Use(middleware.TracingMiddleware())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health", s.ReadinessCheck)
	app.Get("/health/live", s.LivenessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Uploaded files
	app.Static("/uploads", s.store.Dir(), fiber.Static{MaxAge: 3600})

	api := app.Group("/api")

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	api.Get("/features", s.authGate(false), s.GetFeatureFlags)

	// Auth and profile routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.authGate(true), s.Logout)
	auth.Get("/me", s.authGate(true), s.GetMe)
	auth.Get("/profile/:username", s.GetProfile)
	auth.Put("/settings", s.authGate(true), s.UpdateSettings)

	// Post routes. Specific /user and /:id/like paths come before the generic /:id.
	posts := api.Group("/posts")
	posts.Get("/", s.authGate(false), s.GetPosts)
	posts.Post("/", s.authGate(true), middleware.RateLimit(
		s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	posts.Get("/user/:username", s.authGate(false), s.GetUserPosts)
	posts.Post("/:id/like", s.authGate(true), s.ToggleLike)
	posts.Put("/:id", s.authGate(true), s.UpdatePost)
	posts.Delete("/:id", s.authGate(true), s.DeletePost)

	// Comment routes
	comments := api.Group("/comments")
	comments.Get("/", s.GetComments)
	comments.Post("/", s.authGate(true), middleware.RateLimit(
		s.redis, 20, time.Minute, "create_comment"), s.CreateComment)
	comments.Put("/:id", s.authGate(true), s.UpdateComment)
	comments.Delete("/:id", s.authGate(true), s.DeleteComment)

	// Follow routes
	follow := api.Group("/follow")
	follow.Get("/:username/followers", s.GetFollowers)
	follow.Get("/:username/following", s.GetFollowing)
	follow.Post("/:username", s.authGate(true), s.ToggleFollow)

	// Share routes
	shares := api.Group("/shares")
	shares.Get("/", s.GetShares)
	shares.Get("/count/:postId", s.GetShareCount)
	shares.Post("/", s.authGate(true), s.CreateShare)
	shares.Delete("/:id", s.authGate(true), s.DeleteShare)
}

// errorHandler routes errors that escape handlers (including fiber errors such as
// 413 Request Entity Too Large) through the standard error body.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	return s.respondError(c, err)
}

// respondError writes err with the status its code maps to. Server errors are logged
// with the request context before their cause is hidden from the client.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string}
// @Failure 503 {object} object{status=string}
// @Router /health [get]
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional; the cache degrades to process memory without it.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "degraded"
		}
	}

	status := fiber.StatusOK
	overall := "ok"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unavailable"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := database.Close(s.db); err != nil {
		middleware.Logger.Error("error closing database", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := cache.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
