package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/config"
	"pos-backend/internal/database"
	"pos-backend/internal/forecast"
	"pos-backend/internal/inventory"
	"pos-backend/internal/ledger"
	"pos-backend/internal/logger"
	"pos-backend/internal/models"
	"pos-backend/internal/settlement"
	"pos-backend/internal/stockroom"
	"pos-backend/internal/waste"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.UsesDefaultDSN() {
		log.Warn("DATABASE_DSN not set, using the development default")
	}

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("database open failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	sinks := []audit.Sink{audit.DBSink{DB: db}, audit.LogSink{Log: log.Named("audit")}}
	if len(cfg.Audit.KafkaBrokers) > 0 {
		ks := audit.NewKafkaSink(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
		defer ks.Close()
		sinks = append(sinks, ks)
		log.Info("audit events published to kafka",
			zap.Strings("brokers", cfg.Audit.KafkaBrokers),
			zap.String("topic", cfg.Audit.KafkaTopic))
	}
	pub := audit.NewPublisher(log, sinks...)

	retries := cfg.Database.MaxRetries
	sales := settlement.NewService(db, retries, pub, log)
	wasteRec := waste.NewRecorder(db, retries, pub, log)
	stock := stockroom.NewService(db, retries, pub, log)

	snap, err := forecast.NewSnapshot(db)
	if err != nil {
		log.Fatal("forecast snapshot failed", zap.Error(err))
	}
	predictor, closePredictor := buildPredictor(cfg.Forecast, log)
	defer closePredictor()
	forecasts := forecast.NewService(snap, predictor, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Error("unexpected error", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "unexpected server error",
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(db))
	api.Post("/auth/login", auth.LoginHandler(db, cfg.JWTSecret))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler())

	// Catalog
	protected.Get("/products", inventory.ListProductsHandler(db))
	protected.Get("/ingredients", inventory.ListIngredientsHandler(db))

	// Sales
	protected.Post("/sales/check", settlement.CheckHandler(sales))
	protected.Post("/sales", settlement.SettleHandler(sales))

	// Waste
	protected.Post("/waste", waste.CreateWasteHandler(wasteRec))
	protected.Get("/waste", waste.ListWasteHandler(db))

	// Stock movements
	protected.Post("/stock/receive", stockroom.ReceiveHandler(stock))
	protected.Post("/stock/transfer", stockroom.TransferHandler(stock))
	protected.Post("/stock/adjust", stockroom.AdjustHandler(stock))
	protected.Post("/stock/delivery", stockroom.DeliveryHandler(stock))

	// Ledger
	protected.Get("/ledger", ledger.ListHandler(db))
	protected.Get("/ledger/summary", ledger.SummaryHandler(db))
	protected.Get("/ledger/export", ledger.ExportHandler(db))
	protected.Get("/ledger/verify/:ingredientId", ledger.VerifyHandler(db))

	// Forecast
	protected.Post("/forecast/inventory", forecast.ProjectHandler(forecasts))
	protected.Get("/forecast/inventory", forecast.PredictHandler(forecasts))

	// Admin
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/products", inventory.CreateProductHandler(db))
	adminRoutes.Put("/products/:id", inventory.UpdateProductHandler(db))
	adminRoutes.Delete("/products/:id", inventory.DeactivateProductHandler(db))
	adminRoutes.Post("/ingredients", inventory.CreateIngredientHandler(db))
	adminRoutes.Put("/ingredients/:id", inventory.UpdateIngredientHandler(db))
	adminRoutes.Delete("/ledger", ledger.ClearHandler(db, pub))
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler(db))

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.Info("server listening", zap.String("port", cfg.HTTPPort))
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Error("server stopped", zap.Error(err))
	}
}

// buildPredictor stacks article mapping and the redis cache over the remote model
// service. It returns nil when no service is configured.
func buildPredictor(cfg config.ForecastConfig, log *zap.Logger) (forecast.Predictor, func()) {
	if cfg.ServiceURL == "" {
		log.Info("forecast service not configured, predictor endpoint disabled")
		return nil, func() {}
	}

	var p forecast.Predictor = forecast.RemotePredictor{BaseURL: cfg.ServiceURL, Timeout: cfg.Timeout}
	if len(cfg.Articles) > 0 {
		p = forecast.ArticlePredictor{Next: p, Articles: cfg.Articles}
	}
	if cfg.RedisAddr == "" {
		return p, func() {}
	}

	cache := forecast.NewRedisCache(cfg.RedisAddr)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cache.Client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, forecast cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = cache.Close()
		return p, func() {}
	}
	return forecast.CachedPredictor{Next: p, Cache: cache, TTL: cfg.CacheTTL, Log: log.Named("forecast")},
		func() { _ = cache.Close() }
}
