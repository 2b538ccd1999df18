package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"filenet/internal/http/middleware"
	"filenet/internal/repository"
	"filenet/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Health probes stay outside authentication; every /files route requires a
// principal resolved by the Auth middleware.
func RegisterRoutes(app *fiber.App, db *sql.DB, users repository.UserRepository, docSvc service.DocumentService, verSvc service.VersionService, permSvc service.PermissionService) {
	// Readiness: checks DB connectivity only
	app.Get("/health", HealthCheck(db))

	// Simple liveness probe
	app.Get("/healthz", LivenessProbe())

	files := app.Group("/files", middleware.Auth(users))

	files.Get("/search", SearchFiles(docSvc))
	files.Post("/", UploadFile(docSvc))
	files.Get("/:id", RetrieveFile(docSvc))
	files.Put("/:id", UpdateFile(docSvc))
	files.Delete("/:id", DeleteFile(docSvc))
	files.Get("/:id/with-metadata", RetrieveFileWithMetadata(docSvc))
	files.Get("/:id/versions", ListFileVersions(verSvc))
	files.Post("/:id/permissions", GrantPermission(permSvc))
	files.Delete("/:id/permissions", RevokePermission(permSvc))
}
