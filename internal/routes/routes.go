package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/pointwallet/pointwallet/internal/auth"
	"github.com/pointwallet/pointwallet/internal/config"
	"github.com/pointwallet/pointwallet/internal/game"
	"github.com/pointwallet/pointwallet/internal/ledger"
	"github.com/pointwallet/pointwallet/internal/member"
	"github.com/pointwallet/pointwallet/internal/middleware"
	"github.com/pointwallet/pointwallet/internal/notification"
	"github.com/pointwallet/pointwallet/internal/payment"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Without a database
// the wiring falls back to in-memory backends and the static gateway, which
// only dev mode permits.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var ledgerBackend ledger.Ledger
	var pgLedger *ledger.PostgresLedger
	if d.DB != nil {
		pgLedger = ledger.NewPostgresLedger(d.DB)
		ledgerBackend = pgLedger
	} else {
		ledgerBackend = ledger.NewInMemory()
	}

	var memberRepo member.Repository
	if d.DB != nil {
		memberRepo = member.NewPostgresRepository(d.DB)
	} else {
		memberRepo = member.NewMemoryRepository()
	}
	memberSvc := member.NewService(memberRepo, ledgerBackend)

	notifier := notification.NewLoggerNotifier(d.Logger)

	var gateway payment.Gateway
	if d.Cfg.GatewaySecret != "" {
		gateway = payment.NewPortOneGateway(d.Cfg.GatewayBaseURL, d.Cfg.GatewaySecret)
	} else {
		gateway = payment.NewStaticGateway()
	}

	var paymentRepo payment.Repository
	if d.DB != nil {
		paymentRepo = payment.NewPostgresRepository(d.DB, pgLedger)
	} else {
		paymentRepo = payment.NewMemoryRepository(ledgerBackend)
	}
	paymentSvc := payment.NewService(paymentRepo, memberSvc, gateway, notifier)
	gameSvc := game.NewService(ledgerBackend, game.NewDie(), notifier)

	authSvc := auth.NewService(d.Cfg)
	authHandler := auth.NewHandler(memberSvc, authSvc)
	paymentHandler := payment.NewHandler(paymentSvc)
	gameHandler := game.NewHandler(gameSvc)
	walletHandler := NewWalletHandler(ledgerBackend)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	jwtmw := middleware.JWTAuth(d.Cfg, memberSvc)
	protected := api.Group("", jwtmw)
	protected.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		m, err := memberSvc.Get(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "member not found")
		}
		return c.JSON(fiber.Map{
			"member_id":  m.ID,
			"email":      m.Email,
			"nickname":   m.Nickname,
			"created_at": m.CreatedAt,
		})
	})
	RegisterWalletRoutes(protected, walletHandler)
	RegisterPaymentRoutes(protected, paymentHandler)
	RegisterGameRoutes(protected, gameHandler)

	return nil
}
