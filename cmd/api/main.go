package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"finassist/docs"
	"finassist/internal/auth"
	"finassist/internal/config"
	"finassist/internal/database"
	"finassist/internal/database/migration"
	"finassist/internal/extract"
	handlers "finassist/internal/http/handler"
	"finassist/internal/http/middleware"
	"finassist/internal/logger"
	"finassist/internal/otel"
	"finassist/internal/repository"
	"finassist/internal/repository/mongodb"
	"finassist/internal/repository/postgres"
	"finassist/internal/service"
	"finassist/internal/storage"
)

// multipartOverhead leaves room for form fields next to the largest accepted document.
const multipartOverhead = 1 << 20

// @title finassist API
// @version 1.0
// @description Identity and ITR document ingestion for the financial assistant.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		zl.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Error("server_stopped", zap.Error(err))
		stop()
		zl.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, zl *zap.Logger) error {
	shutdownTracing, err := otel.Init(ctx, zl)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			zl.Warn("tracing_shutdown_failed", zap.Error(err))
		}
	}()

	repo, closeStore, err := openStore(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			zl.Warn("store_close_failed", zap.Error(err))
		}
	}()

	// Archiving is optional; a nil store disables it.
	var objStore storage.Storage
	if cfg.MinIO.Endpoint != "" {
		if objStore, err = storage.NewMinIO(ctx, cfg.MinIO); err != nil {
			return fmt.Errorf("init object storage: %w", err)
		}
	}

	var conv extract.Converter = extract.PlainTextConverter{}
	if cfg.Ingest.ExtractorURL != "" {
		conv = extract.NewHTTPConverter(cfg.Ingest.ExtractorURL, cfg.Ingest.MaxBytes)
	}

	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return err
	}
	ingestor := service.NewIngestor(conv, objStore, cfg.Ingest.Timeout, zl)
	authSvc := service.NewAuthService(repo, tokens, ingestor)
	profileSvc := service.NewProfileService(repo, ingestor, objStore, cfg.MinIO.LinkTTL, zl)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "finassist",
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Ingest.MaxBytes) + multipartOverhead,
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(zl))
	app.Use(otelfiber.Middleware())
	app.Use(promMW.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{Auth: authSvc, Profile: profileSvc, Store: repo})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server_listening", zap.String("addr", ":"+cfg.Port), zap.String("db_driver", cfg.Database.Driver))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("server_shutting_down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(sctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStore connects the configured user store and prepares its schema.
func openStore(ctx context.Context, cfg *config.AppConfig, zl *zap.Logger) (repository.UserRepository, func() error, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mongo: %w", err)
		}
		repo := mongodb.NewUserMongo(client, cfg.Mongo.Database)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repo, func() error { return client.Disconnect(context.Background()) }, nil
	default:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := migration.EnsureMigrated(ctx, db, zl, cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return postgres.NewUserPostgres(db), db.Close, nil
	}
}
