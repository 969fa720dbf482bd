// Package httpapi wires the HTTP transport (Gin) to the profile service,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// the fixed CORS header set, security headers, compression and
// idempotency-key validation.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/qrtag-backend/docs"
	"github.com/tbourn/qrtag-backend/internal/config"
	"github.com/tbourn/qrtag-backend/internal/domain"
	"github.com/tbourn/qrtag-backend/internal/http/handlers"
	"github.com/tbourn/qrtag-backend/internal/http/middleware"
	"github.com/tbourn/qrtag-backend/internal/repo"
	"github.com/tbourn/qrtag-backend/internal/services"
)

// readyTimeout bounds the store ping behind /ready.
const readyTimeout = 2 * time.Second

// profileRepoShim adapts the repository free functions to the
// services.ProfileRepo interface expected by the ProfileService.
type profileRepoShim struct{}

// QRCodeExists proxies repo.QRCodeExists.
func (profileRepoShim) QRCodeExists(ctx context.Context, db *gorm.DB, code string) (bool, error) {
	return repo.QRCodeExists(ctx, db, code)
}

// CreateProfile proxies repo.CreateProfile.
func (profileRepoShim) CreateProfile(ctx context.Context, db *gorm.DB, p *domain.Profile) error {
	return repo.CreateProfile(ctx, db, p)
}

// GetProfileByQRCode proxies repo.GetProfileByQRCode.
func (profileRepoShim) GetProfileByQRCode(ctx context.Context, db *gorm.DB, code string) (*domain.Profile, error) {
	return repo.GetProfileByQRCode(ctx, db, code)
}

// GetIdempotency proxies repo.GetIdempotency.
func (profileRepoShim) GetIdempotency(ctx context.Context, db *gorm.DB, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, key, now)
}

// CreateIdempotency proxies repo.CreateIdempotency.
func (profileRepoShim) CreateIdempotency(ctx context.Context, db *gorm.DB, key, qrCodeID string, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, key, qrCodeID, ttl)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the profile API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. ScopedLogger: request logger in gin and request contexts
//  4. RedactingLogger: access log with PII scrubbing
//  5. Recovery: capture panics after logger
//  6. Metrics
//  7. FixedCORS: fixed header set on every response, OPTIONS answered here
//  8. Security headers
//  9. Body size limiter
//  10. gzip (JSON only; PNG and /metrics excluded)
//  11. Idempotency-Key validation
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.ScopedLogger())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.FixedCORS())
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:    cfg.Security.EnableHSTS,
		HSTSMaxAge:    cfg.Security.HSTSMaxAge,
		NoStore:       true,
		EnablePolicy:  true,
		ExposeHeaders: []string{"X-Request-ID", handlers.HeaderIdempotentReplayed},
	}))
	r.Use(limitBody(cfg.MaxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/metrics"}),
		gzip.WithExcludedPathsRegexs([]string{`/qr\.png$`}),
	))
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}))

	// Fallbacks
	r.NoRoute(handlers.NotFound)
	r.NoMethod(handlers.MethodNotAllowed)

	// Liveness / readiness / metrics
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()
		if err := repo.Ping(ctx, db); err != nil {
			handlers.Fail(c, http.StatusServiceUnavailable, handlers.ErrCodeInternal, "store unavailable: "+err.Error())
			return
		}
		st, err := repo.GetProfileStats(ctx, db)
		if err != nil {
			handlers.Fail(c, http.StatusServiceUnavailable, handlers.ErrCodeInternal, "store unavailable: "+err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "profiles": st.Count, "lastCreatedAt": st.LastCreatedAt})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.SwaggerEnabled {
		ui := ginSwagger.WrapHandler(swaggerFiles.Handler)
		r.GET("/swagger/*any", func(c *gin.Context) {
			// Swagger assets carry their own content types.
			c.Writer.Header().Del("Content-Type")
			ui(c)
		})
	}

	// Dependency injection: service ← repo/db
	svc := services.NewProfileService(db, profileRepoShim{})
	svc.MaxAttempts = cfg.QRMaxAttempts
	svc.IdempotencyTTL = cfg.IdempotencyTTL
	h := handlers.New(svc, cfg.PublicBaseURL)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/profiles", h.CreateProfile)
		api.GET("/profiles", h.GetProfileByQuery)
		api.GET("/profiles/:qrCodeId", h.GetProfile)
		api.GET("/profiles/:qrCodeId/qr.png", h.QRCodePNG)
	}
}

// NewEngine builds a Gin engine in cfg.GinMode with all routes registered.
// Both entrypoints (HTTP server and one-shot invoker) serve through it.
func NewEngine(db *gorm.DB, cfg config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	RegisterRoutes(r, db, cfg)
	return r
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil && maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
