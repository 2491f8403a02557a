package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"civireport/internal/config"
	"civireport/internal/database"
	"civireport/internal/database/migration"
	handlers "civireport/internal/http/handler"
	"civireport/internal/http/middleware"
	"civireport/internal/identity"
	apptrace "civireport/internal/otel"
	"civireport/internal/repository/postgres"
	"civireport/internal/storage"
	"civireport/internal/upload"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()
	loc := time.UTC

	shutdownTracing, err := apptrace.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Upload gateway spanning the two media destinations. The size ceilings
	// come from configuration, not the policy defaults.
	audioPolicy := upload.DefaultAudioPolicy(cfg.MinIO.AudioBucket)
	audioPolicy.MaxBytes = cfg.Capture.AudioMaxBytes
	imagePolicy := upload.DefaultImagePolicy(cfg.MinIO.ImageBucket)
	imagePolicy.MaxBytes = cfg.Capture.ImageMaxBytes
	gateway := upload.NewGateway(objStore, cfg.MinIO.PublicURL, audioPolicy, imagePolicy)

	reportRepo := postgres.NewReportPostgres(db)

	// Identity sources: the auth boundary pushes session state over the
	// webhook; device-local enrollments live in the in-memory registry.
	authBackend := identity.NewPushBackend()
	reconciler := identity.NewReconciler(authBackend, authBackend)
	if err := reconciler.Init(ctx); err != nil {
		log.Fatalf("failed to initialize session reconciler: %v", err)
	}
	defer reconciler.Close()

	enrollments := identity.NewEnrollmentStore()
	resolver := identity.NewResolver(reconciler, enrollments)

	sessions := handlers.NewSessionRegistry(handlers.CaptureDeps{
		Capture:  cfg.Capture,
		Uploader: gateway,
		Reports:  reportRepo,
		Resolver: resolver,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Capture.AudioMaxBytes) + (1 << 20),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	promMiddleware, err := middleware.NewPrometheusMiddleware(promRegistry)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:          db,
		Sessions:    sessions,
		Reports:     reportRepo,
		Enrollments: enrollments,
		Auth:        authBackend,
		Metrics:     promRegistry,
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
