package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"filenet/docs"
	"filenet/internal/config"
	"filenet/internal/database"
	"filenet/internal/database/migration"
	handlers "filenet/internal/http/handler"
	"filenet/internal/http/middleware"
	"filenet/internal/otel"
	"filenet/internal/repository/postgres"
	"filenet/internal/service"
	"filenet/internal/storage"
)

// @title Filenet Document API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}

	ctx := context.Background()

	// Initialize tracing; degrades to noop when the exporter is unavailable
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

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

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	verRepo := postgres.NewVersionPostgres(db)
	permRepo := postgres.NewPermissionPostgres(db)
	userRepo := postgres.NewUserPostgres(db)

	permSvc := service.NewPermissionService(docRepo, permRepo)
	verSvc := service.NewVersionService(objStore, docRepo, verRepo, permSvc)
	docSvc := service.NewDocumentService(objStore, docRepo, verSvc, permSvc, cfg.Upload)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Uploads are streamed rather than buffered; the limit leaves room
		// for multipart framing around the 50 MB payload cap.
		BodyLimit:         int(cfg.Upload.MaxBytes) + 1024*1024,
		StreamRequestBody: true,
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	// Trace every request
	app.Use(otelfiber.Middleware())

	// Prometheus request counter and /metrics endpoint
	registry := prometheus.NewRegistry()
	promMw, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to register prometheus metrics: %v", err)
	}
	app.Use(promMw.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, userRepo, docSvc, verSvc, permSvc)

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

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
