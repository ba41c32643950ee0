package server

import (
	"context"
	"net/http"
	"time"

	"coworking/internal/metrics"
	"coworking/internal/middleware"
	"coworking/internal/modules/booking"
	"coworking/internal/modules/payment"
	"coworking/internal/modules/promotion"
	"coworking/internal/modules/refund"
	"coworking/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Handlers struct {
	Booking   *booking.Handler
	Promotion *promotion.Handler
	Refund    *refund.Handler
	Payment   *payment.Handler
}

type Options struct {
	Logger         *zerolog.Logger
	Tokens         *jwt.Service
	Limiter        *middleware.RateLimiter
	AllowedOrigins []string
	// Health reports readiness of the backing stores; nil means always healthy.
	Health func(ctx context.Context) error
}

// NewRouter mounts every module under /api/v1 with the shared middleware chain.
func NewRouter(opts Options, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(opts.Logger),
		middleware.RequestLogger(opts.Logger),
		middleware.Metrics(),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.GET("/healthz", healthz(opts.Health))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")

	public := v1.Group("")
	if opts.Limiter != nil {
		public.Use(opts.Limiter.Middleware())
	}
	h.Booking.RegisterPublicRoutes(public)
	h.Payment.RegisterPublicRoutes(public)

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(opts.Tokens))
	if opts.Limiter != nil {
		protected.Use(opts.Limiter.Middleware())
	}
	h.Booking.RegisterRoutes(protected)
	h.Promotion.RegisterRoutes(protected)
	h.Refund.RegisterRoutes(protected)

	return r
}

func healthz(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
