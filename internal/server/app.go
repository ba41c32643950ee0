package server

import (
	"context"

	"coworking/internal/config"
	"coworking/internal/events"
	"coworking/internal/lock"
	"coworking/internal/middleware"
	"coworking/internal/modules/booking"
	"coworking/internal/modules/payment"
	"coworking/internal/modules/promotion"
	"coworking/internal/modules/refund"
	"coworking/internal/pkg/clock"
	"coworking/internal/pkg/jwt"
	"coworking/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Deps are the process-level collaborators the services are built from.
type Deps struct {
	Config  *config.Config
	Repos   *repository.Repos
	Locker  lock.Locker
	Gateway refund.Gateway
	Clock   clock.Clock
	Bus     *events.EventBus
	Logger  *zerolog.Logger
}

// App holds the wired services and the HTTP engine.
type App struct {
	Bookings   *booking.Service
	Promotions *promotion.Service
	Refunds    *refund.Service
	Payments   *payment.Service
	Tokens     *jwt.Service
	Router     *gin.Engine
}

func New(d Deps) *App {
	cfg := d.Config

	validator := promotion.NewValidator(d.Clock)
	bookings := booking.NewService(d.Repos, d.Locker, validator, booking.PolicyFromConfig(cfg.Policy), d.Clock, d.Bus, d.Logger)
	promotions := promotion.NewService(d.Repos.Promotions, validator, d.Clock, d.Logger)
	refunds := refund.NewService(d.Repos, bookings, d.Gateway, refund.PolicyFromConfig(cfg.Policy), d.Clock, d.Bus, d.Logger)
	payments := payment.NewService(bookings, payment.NewSigner(cfg.Gateway.Merchant, cfg.Gateway.Secret), cfg.Gateway.Provider, d.Logger)
	tokens := jwt.New(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)

	router := NewRouter(Options{
		Logger:         d.Logger,
		Tokens:         tokens,
		Limiter:        middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Health: func(ctx context.Context) error {
			sqlDB, err := d.Repos.DB().DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}, Handlers{
		Booking:   booking.NewHandler(bookings),
		Promotion: promotion.NewHandler(promotions),
		Refund:    refund.NewHandler(refunds),
		Payment:   payment.NewHandler(payments),
	})

	return &App{
		Bookings:   bookings,
		Promotions: promotions,
		Refunds:    refunds,
		Payments:   payments,
		Tokens:     tokens,
		Router:     router,
	}
}

// NewGateway picks the HTTP gateway client, or the sandbox when no base URL is configured.
func NewGateway(cfg config.GatewayConfig) refund.Gateway {
	if cfg.Sandbox() {
		return payment.Sandbox{}
	}
	return payment.NewClient(cfg)
}
