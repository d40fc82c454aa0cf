// Package httpapi wires the HTTP transport (Gin) to the booking services,
// middleware and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, caller
// identity, compression, metrics, idempotency, rate limiting, CORS and
// security headers.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/j01232026-hub/pretty/docs"
	"github.com/j01232026-hub/pretty/internal/config"
	"github.com/j01232026-hub/pretty/internal/domain"
	"github.com/j01232026-hub/pretty/internal/events"
	"github.com/j01232026-hub/pretty/internal/http/handlers"
	"github.com/j01232026-hub/pretty/internal/http/middleware"
	"github.com/j01232026-hub/pretty/internal/repo"
	"github.com/j01232026-hub/pretty/internal/services"
)

// Deps are the process-level collaborators built by cmd/server. Notifier,
// Replier, Cache and Events are optional; leave them nil (not typed nil) to
// disable.
type Deps struct {
	DB       *gorm.DB
	Calendar services.Calendar
	Notifier services.Notifier
	Replier  handlers.Replier
	Cache    services.SlotCache
	Events   events.Publisher
}

// idempotencyShim adapts the repository free functions to
// handlers.IdempotencyStore.
type idempotencyShim struct {
	db  *gorm.DB
	ttl time.Duration
}

// Get proxies repo.GetIdempotency; a missing or expired record is (nil, nil).
func (s idempotencyShim) Get(ctx context.Context, userID, storeID, key string, now time.Time) (*domain.Idempotency, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, userID, storeID, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// Put proxies repo.CreateIdempotency. A concurrent duplicate is fine: the
// first record wins.
func (s idempotencyShim) Put(ctx context.Context, userID, storeID, key string, bookingID uint64, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, storeID, key, bookingID, status, s.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// profileShim adapts repo.GetProfile to handlers.ProfileDirectory.
type profileShim struct{ db *gorm.DB }

// DisplayName proxies repo.GetProfile.
func (s profileShim) DisplayName(ctx context.Context, storeID, userID string) (string, error) {
	p, err := repo.GetProfile(ctx, s.db, storeID, userID)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the booking API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Identity and staff secret
//  6. Body size limiter and gzip
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per store and caller, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Caller identity; staff secret marks admin requests
	r.Use(middleware.Identity())
	r.Use(middleware.AdminSecret(cfg.AdminSecret))

	// 6) Global body size limit (1 MiB), response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	idem := idempotencyShim{db: d.DB, ttl: cfg.IdempotencyTTL}
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, storeID, key string, now time.Time) (bool, error) {
			rec, err := idem.Get(ctx, userID, storeID, key, now)
			return rec != nil, err
		},
	))

	// 9) Token-bucket rate limiter per store and caller
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByStoreAndCaller())
	r.Use(rl.Handler())

	// 10) CORS posture (allow all if none configured)
	allowHeaders := []string{
		"Origin", "Content-Type", "Accept", "Authorization",
		middleware.HeaderUserID, middleware.HeaderAdminSecret, middleware.HeaderIdempotencyKey,
		"If-None-Match",
	}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", "Idempotency-Replayed"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers; bookings carry phone numbers, so nothing is cached
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/calendar
	loc := cfg.SalonLocation()
	bookingSvc := &services.BookingService{
		DB:                d.DB,
		Calendar:          d.Calendar,
		Notifier:          d.Notifier,
		Events:            d.Events,
		Cache:             d.Cache,
		DefaultCalendarID: cfg.Calendar.CalendarID,
		Location:          loc,
		CalendarTimeout:   cfg.Calendar.Timeout,
		StoreTimeout:      cfg.StoreTimeout,
	}
	slotSvc := &services.SlotService{
		DB:                d.DB,
		Calendar:          d.Calendar,
		Cache:             d.Cache,
		DefaultCalendarID: cfg.Calendar.CalendarID,
		Location:          loc,
		CalendarTimeout:   cfg.Calendar.Timeout,
		StoreTimeout:      cfg.StoreTimeout,
	}
	h := handlers.New(handlers.Deps{
		Bookings:          bookingSvc,
		Slots:             slotSvc,
		Idempotency:       idem,
		Profiles:          profileShim{db: d.DB},
		Replier:           d.Replier,
		LINEChannelSecret: cfg.LINE.ChannelSecret,
	})

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		stores := api.Group("/stores/:store_id")
		stores.POST("/bookings", h.CreateBooking)
		stores.GET("/bookings", h.ListBookings)
		stores.GET("/bookings/:id", h.GetBooking)
		stores.PATCH("/bookings/:id", h.UpdateBooking)
		stores.DELETE("/bookings/:id", h.CancelBooking)
		stores.GET("/busy-slots", h.BusySlots)

		api.POST("/webhook/line/:store_id", h.LineWebhook)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
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
