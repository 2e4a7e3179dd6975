// Package server contains HTTP handlers and route wiring for the governance API.
package server

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"civica/cache"
	"civica/config"
	"civica/database"
	"civica/middleware"
	"civica/models"
	"civica/moderation"
	"civica/notifications"
	"civica/ratelimit"
	"civica/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config *config.Config
	db     *gorm.DB
	redis  *redis.Client

	userRepo      repository.UserRepository
	ideaRepo      repository.IdeaRepository
	commentRepo   repository.CommentRepository
	penaltyRepo   repository.PenaltyRepository
	appealRepo    repository.AppealRepository
	watchlistRepo repository.WatchlistRepository

	recorder  *moderation.Recorder
	lifecycle *moderation.LifecycleService
	penalties *moderation.PenaltyService
	appeals   *moderation.AppealService
	watchlist *moderation.WatchlistService

	notifier *notifications.Notifier
	gate     *ratelimit.Gate
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDB(cfg, db, redisClient), nil
}

// NewServerWithDB wires a server onto existing connections. Tests use it
// with an in-memory database and no Redis.
func NewServerWithDB(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	notifier := notifications.NewNotifier(redisClient, middleware.Logger)
	recorder := moderation.NewRecorder(repository.NewAuditRepository(db), middleware.Logger)

	watchlist := moderation.NewWatchlistService(db, recorder, notifier, cfg.WatchlistThreshold)
	penalties := moderation.NewPenaltyService(db, recorder, notifier, watchlist, middleware.Logger, cfg.EscalationWindowDays)
	lifecycle := moderation.NewLifecycleService(db, recorder, notifier, cfg.RestoreOnEditReject)
	appeals := moderation.NewAppealService(db, recorder, notifier)

	// Counters are process-local unless Redis is up; the store interface
	// keeps the two interchangeable.
	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if redisClient != nil {
		store = ratelimit.NewRedisStore(redisClient)
	}

	return &Server{
		config:        cfg,
		db:            db,
		redis:         redisClient,
		userRepo:      repository.NewUserRepository(db),
		ideaRepo:      repository.NewIdeaRepository(db),
		commentRepo:   repository.NewCommentRepository(db),
		penaltyRepo:   repository.NewPenaltyRepository(db),
		appealRepo:    repository.NewAppealRepository(db),
		watchlistRepo: repository.NewWatchlistRepository(db),
		recorder:      recorder,
		lifecycle:     lifecycle,
		penalties:     penalties,
		appeals:       appeals,
		watchlist:     watchlist,
		notifier:      notifier,
		gate:          ratelimit.NewGate(store),
	}
}

// Penalties exposes the penalty engine for the background scheduler.
func (s *Server) Penalties() *moderation.PenaltyService {
	return s.penalties
}

// DB exposes the database handle for the background scheduler and shutdown.
func (s *Server) DB() *gorm.DB {
	return s.db
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Request ID for tracing
	app.Use(requestid.New())

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware
	app.Use(middleware.StructuredLogger())

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health check
	api.Get("/", s.HealthCheck)

	// Metrics endpoint
	api.Get("/metrics", monitor.New(monitor.Config{
		Title: "Civica Governance Metrics",
	}))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.Admit(s.gate, "signup", 3, 10*time.Minute), s.Signup)
	auth.Post("/login", middleware.Admit(s.gate, "login", 10, 5*time.Minute), s.Login)

	// Registered ahead of /ideas/:id so the literal segment wins the match.
	api.Get("/ideas/my-ideas", s.AuthRequired(), s.GetMyIdeas)

	// Public idea routes (browse)
	publicIdeas := api.Group("/ideas")
	publicIdeas.Get("/", s.GetIdeas)
	publicIdeas.Get("/:id/comments", s.GetComments)
	publicIdeas.Get("/:id", s.GetIdea)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	// Content actions are closed to suspended/banned users.
	content := protected.Group("", s.NotPenalized())
	content.Post("/ideas", middleware.Admit(s.gate, "create_idea", 5, time.Hour), s.CreateIdea)
	content.Put("/ideas/:id", s.EditIdea)
	content.Post("/ideas/:id/comments", middleware.Admit(s.gate, "create_comment", 20, time.Hour), s.CreateComment)
	content.Post("/comments/:id/like", s.ToggleCommentLike)

	// Appeals stay reachable for penalized users: the penalized user is the
	// intended caller, so only authentication gates this group.
	appeals := protected.Group("/appeals")
	appeals.Post("/", s.SubmitAppeal)
	appeals.Get("/my-appeals", s.GetMyAppeals)

	admin := protected.Group("/admin")

	// Idea/comment moderation: moderator or admin.
	mod := admin.Group("", s.RequireRole(models.RoleModerator, models.RoleAdmin))
	mod.Get("/review-queue", s.GetReviewQueue)
	mod.Post("/ideas/:id/approve", s.ApproveIdea)
	mod.Post("/ideas/:id/reject", s.RejectIdea)
	mod.Get("/ideas/:id/audit", s.GetIdeaAudit)
	mod.Delete("/ideas/:id", s.DeleteIdea)
	mod.Post("/comments/:id/hide", s.HideComment)
	mod.Post("/comments/:id/unhide", s.UnhideComment)
	mod.Delete("/comments/:id", s.DeleteComment)

	// Penalties, appeals, watchlist, roles, audit export: admin only.
	adm := admin.Group("", s.RequireRole(models.RoleAdmin))
	adm.Post("/penalties", s.IssuePenalty)
	adm.Get("/users/:id/penalties", s.GetUserPenalties)
	adm.Post("/users/:id/role", s.SetUserRole)
	adm.Post("/appeals/:id/decide", s.DecideAppeal)
	adm.Get("/watchlist", s.GetWatchlist)
	adm.Post("/watchlist/:id/clear", s.ClearWatchlist)
	adm.Get("/users/:id/audit", s.ExportUserAudit)
}

// HealthCheck handles health check requests
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx := c.Context()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "Civica governance API",
		"status":  "healthy",
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
	})
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != "civica-api" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != "civica-client" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}

		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		role, _ := claims["role"].(string)
		if role == "" {
			role = models.RoleUser
		}

		c.Locals("userID", uint(userID))
		c.Locals("role", role)

		return c.Next()
	}
}

// RequireRole gates a route group on the authenticated role claim.
func (s *Server) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("Insufficient role"))
	}
}

// NotPenalized blocks content actions for users carrying an active
// suspension or ban. Appeal routes deliberately skip this middleware.
func (s *Server) NotPenalized() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userID").(uint)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		kind, err := s.penalties.HighestActiveKind(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
		if kind == models.PenaltySuspension || kind == models.PenaltyBan {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewUnauthorizedError(fmt.Sprintf("Account is under an active %s", kind)))
		}
		return c.Next()
	}
}

// optionalUserID attempts to extract userID from Authorization header but does not enforce it.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(userID), true
}

// Shutdown gracefully releases server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
