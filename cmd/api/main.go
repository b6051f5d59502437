package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/linac-qa/backend/internal/api/handlers"
	"github.com/linac-qa/backend/internal/audit"
	"github.com/linac-qa/backend/internal/auth"
	"github.com/linac-qa/backend/internal/cache/redis"
	"github.com/linac-qa/backend/internal/export"
	"github.com/linac-qa/backend/internal/metrics"
	authmw "github.com/linac-qa/backend/internal/middleware/auth"
	"github.com/linac-qa/backend/internal/middleware/ratelimit"
	"github.com/linac-qa/backend/internal/middleware/security"
	"github.com/linac-qa/backend/internal/qa"
	"github.com/linac-qa/backend/internal/report"
	"github.com/linac-qa/backend/internal/schedule"
	"github.com/linac-qa/backend/internal/storage/sqlite"
	"github.com/linac-qa/backend/internal/trend"
	"github.com/linac-qa/backend/internal/units"
	"github.com/linac-qa/backend/pkg/config"
	appLogger "github.com/linac-qa/backend/pkg/logger"
	"github.com/linac-qa/backend/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Linac QA API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var trendCache trend.Cache
	if cfg.Redis.Enabled {
		redisClient, err := retry.DoWithResult(context.Background(), retry.Config{
			MaxAttempts:  5,
			InitialDelay: 500 * time.Millisecond,
			Logger:       appLogger.Log,
		}, func() (*redis.Client, error) {
			return redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		})
		if err != nil {
			appLogger.Warn("Redis unavailable, trend caching disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			trendCache = redisClient
		}
	}

	trail := audit.NewTrail(sqliteClient)
	authService := auth.NewService(sqliteClient, trail, cfg.Auth.Secret,
		time.Duration(cfg.Auth.SessionHours)*time.Hour)
	unitRegistry := units.NewRegistry(sqliteClient, trail)
	qaStore := qa.NewStore(sqliteClient, trail)
	trendStore := trend.NewStore(sqliteClient, trail, trendCache,
		time.Duration(cfg.Redis.TrendTTLSec)*time.Second)
	scheduler := schedule.NewScheduler(sqliteClient)
	exporter := export.NewExporter(sqliteClient)
	reportGen := report.NewGenerator(qaStore)

	if err := authService.Bootstrap(); err != nil {
		appLogger.Fatal("Failed to bootstrap default admin", zap.Error(err))
	}
	if err := unitRegistry.Bootstrap(); err != nil {
		appLogger.Fatal("Failed to bootstrap default units", zap.Error(err))
	}

	if err := sqlite.CleanupOldBackups(cfg.Backup.Directory, cfg.Backup.KeepDays, cfg.Backup.KeepMinimum); err != nil {
		appLogger.Warn("Backup cleanup failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	sessionAuth := authmw.New(authService, cfg.Auth.CookieName)
	loginLimiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Auth.LoginRatePerMinute,
		Logger:               appLogger.Log,
	})
	defer loginLimiter.Stop()

	hub := handlers.NewHub()
	authHandler := handlers.NewAuthHandler(authService, cfg.Auth.CookieName)
	unitsHandler := handlers.NewUnitsHandler(unitRegistry)
	qaHandler := handlers.NewQAHandler(qaStore, reportGen, hub)
	trendHandler := handlers.NewTrendHandler(trendStore, hub)
	dashboardHandler := handlers.NewDashboardHandler(scheduler, qaStore)
	adminHandler := handlers.NewAdminHandler(authService, trail, sqliteClient, exporter, cfg.Backup)
	eventsHandler := handlers.NewEventsHandler(hub)

	api := app.Group("/api/v1")

	api.Post("/auth/login", loginLimiter.Middleware(), authHandler.Login)
	api.Post("/auth/logout", sessionAuth.RequireLogin(), authHandler.Logout)
	api.Get("/auth/me", sessionAuth.RequireLogin(), authHandler.Me)

	protected := api.Group("", sessionAuth.RequireLogin())

	protected.Get("/dashboard/status", dashboardHandler.Status)

	protected.Get("/units", unitsHandler.List)
	protected.Post("/units", unitsHandler.Create)
	protected.Get("/units/:id", unitsHandler.Get)
	protected.Put("/units/:id", unitsHandler.Update)
	protected.Get("/units/:id/energies", unitsHandler.Energies)

	protected.Get("/checklists", qaHandler.ListChecklists)
	protected.Get("/checklists/:type", qaHandler.GetChecklist)

	protected.Post("/qa/sessions", qaHandler.CreateSession)
	protected.Get("/qa/reports", qaHandler.QuerySessions)
	protected.Get("/qa/reports/:id", qaHandler.GetSession)
	protected.Get("/qa/reports/:id/markdown", qaHandler.DownloadReport)

	protected.Post("/readings", trendHandler.RecordReading)
	protected.Get("/trends", trendHandler.GetTrend)

	admin := protected.Group("/admin")
	admin.Get("/users", sessionAuth.RequireCapability(auth.CapManageUsers), adminHandler.ListUsers)
	admin.Post("/users", sessionAuth.RequireCapability(auth.CapManageUsers), adminHandler.SaveUser)
	admin.Get("/audit", sessionAuth.RequireCapability(auth.CapViewAudit), adminHandler.AuditLog)
	admin.Post("/backup", sessionAuth.RequireCapability(auth.CapBackup), adminHandler.CreateBackup)
	admin.Get("/backups", sessionAuth.RequireCapability(auth.CapBackup), adminHandler.ListBackups)
	admin.Post("/backup/restore", sessionAuth.RequireCapability(auth.CapBackup), adminHandler.RestoreBackup)
	admin.Get("/export", sessionAuth.RequireCapability(auth.CapExport), adminHandler.Export)

	app.Use("/ws", sessionAuth.RequireLogin(), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(eventsHandler.HandleConnection))

	app.Get("/metrics", metrics.MetricsHandler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
