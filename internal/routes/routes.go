package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/paisapay/paisapay/internal/catalog"
	"github.com/paisapay/paisapay/internal/config"
	"github.com/paisapay/paisapay/internal/events"
	"github.com/paisapay/paisapay/internal/identity"
	"github.com/paisapay/paisapay/internal/ledger"
	"github.com/paisapay/paisapay/internal/middleware"
	"github.com/paisapay/paisapay/internal/rates"
	"github.com/paisapay/paisapay/internal/statement"
	"github.com/paisapay/paisapay/internal/transfer"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg       config.Config
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Publisher events.Publisher
	Logger    *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.Logger != nil {
		app.Use(middleware.Audit(d.Logger))
	}
	if d.Cfg.IsDev() {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Stores
	var store ledger.Store
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
	} else {
		store = ledger.NewMemory()
	}

	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}

	var catalogRepo catalog.Repository
	if d.DB != nil {
		catalogRepo = catalog.NewPostgresRepository(d.DB)
	} else {
		catalogRepo = catalog.NewMemoryRepository()
	}

	// Services and handlers
	identitySvc := identity.NewService(identityRepo, store)
	catalogSvc := catalog.NewService(catalogRepo)
	transferSvc := transfer.NewService(store, identityRepo, catalogSvc, d.Publisher, d.Logger)
	reader := statement.NewReader(store)

	var rateProvider rates.Provider
	if d.Cfg.RateAPIURL != "" {
		rateProvider = rates.NewHTTPProvider(d.Cfg.RateAPIURL, d.Cfg.RateAPIKey, d.Cfg.BaseCurrency)
		if d.Cache != nil {
			rateProvider = rates.NewCachedProvider(rateProvider, d.Cache, d.Cfg.RateCacheTTL)
		}
	}

	identityHandler := identity.NewHandler(identitySvc)
	transferHandler := transfer.NewHandler(transferSvc)
	catalogHandler := catalog.NewHandler(catalogSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterIdentityRoutes(api, identityHandler, middleware.RegisterRateLimit(d.Cache, 10))

	// Protected routes
	protected := api.Group("", middleware.BasicAuth(identitySvc))
	RegisterCatalogRoutes(api, protected, catalogHandler)
	RegisterTransferRoutes(protected, transferHandler)
	RegisterAccountRoutes(protected, AccountDeps{
		Store:        store,
		Reader:       reader,
		Rates:        rateProvider,
		BaseCurrency: d.Cfg.BaseCurrency,
		Logger:       d.Logger,
	})

	return nil
}
