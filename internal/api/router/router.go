package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/KilloQ/StudentsClubs/config"
	"github.com/KilloQ/StudentsClubs/internal/api/handler"
	"github.com/KilloQ/StudentsClubs/internal/api/middleware"
	"github.com/KilloQ/StudentsClubs/internal/policy"
	"github.com/KilloQ/StudentsClubs/internal/service"
	"github.com/KilloQ/StudentsClubs/pkg/metrics"
	"github.com/KilloQ/StudentsClubs/pkg/redis"
)

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Setup builds the gin engine. rdb may be nil (degraded mode).
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	svc *service.Service,
	db Pinger,
	rdb *redis.Client,
	m *metrics.Metrics,
	logger *zap.Logger,
) *gin.Engine {
	r := gin.New()

	// ── global middleware ──
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error", "code": 50000})
	}))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger, m))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	if cfg.Server.MaxBodyBytes > 0 {
		r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	}

	// ── health / metrics ──
	r.GET("/health", healthHandler(db, rdb))
	if m != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	var store middleware.RateLimitStore
	if rdb != nil {
		store = rdb
	}
	authLimit := middleware.RateLimit(
		store,
		middleware.NewIPRateLimiter(cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow),
		cfg.RateLimit.AuthRequests,
		cfg.RateLimit.AuthWindow,
		logger,
	)

	requireAuth := middleware.JWTAuth(svc.Auth)
	optionalAuth := middleware.OptionalAuth(svc.Auth)

	// ── auth ──
	auth := r.Group("/auth")
	{
		auth.POST("/login", authLimit, h.Auth.Login)
		auth.POST("/register", authLimit, h.Auth.Register)
		auth.GET("/me", requireAuth, h.Auth.Me)
		auth.POST("/logout", requireAuth, h.Auth.Logout)
	}

	// ── clubs ──
	clubs := r.Group("/clubs")
	{
		clubs.GET("/", optionalAuth, h.Club.ListClubs)
		clubs.GET("/categories/list", h.Club.ListCategories)
		clubs.GET("/:id", optionalAuth, h.Club.GetClub)
		clubs.GET("/:id/schedule.ics", h.Club.Calendar)
		clubs.POST("/", requireAuth, middleware.RequireCapability(policy.Teacher), h.Club.CreateClub)
		clubs.POST("/:id/join", requireAuth, middleware.RequireCapability(policy.Student), h.Club.Join)
		clubs.DELETE("/:id/leave", requireAuth, middleware.RequireCapability(policy.Student), h.Club.Leave)
	}

	// ── management (owning teacher) ──
	management := r.Group("/management/:id")
	management.Use(requireAuth, middleware.ClubOwner(svc.Catalog.OwnerOf, "id"))
	{
		management.GET("/students", h.Management.Students)
		management.POST("/attendance", h.Management.MarkAttendance)
		management.GET("/sessions", h.Management.Sessions)
		management.GET("/attendance/export", h.Management.ExportAttendance)
		management.GET("/settings", h.Management.GetSettings)
		management.PUT("/settings", h.Management.UpdateSettings)
		management.POST("/schedule", h.Management.AddSchedule)
		management.DELETE("/schedule/:scheduleId", h.Management.DeleteSchedule)
		management.GET("/stats", h.Management.Stats)
	}

	// ── profiles ──
	profile := r.Group("/profile", requireAuth)
	{
		profile.GET("/student", middleware.RequireCapability(policy.Student), h.Profile.Student)
		profile.GET("/teacher", middleware.RequireCapability(policy.Teacher), h.Profile.Teacher)
	}

	return r
}

func healthHandler(db Pinger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := gin.H{"status": "ok", "database": "ok", "redis": "ok"}

		if db != nil {
			if err := db.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "unavailable"
				body["database"] = "down"
			}
		}

		switch {
		case rdb == nil:
			body["redis"] = "disabled"
		case rdb.Ping(ctx) != nil:
			body["redis"] = "down"
		}

		c.JSON(status, body)
	}
}
