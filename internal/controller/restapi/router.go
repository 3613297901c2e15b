package restapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"github.com/civic-os/file-pipeline/config"
	v1 "github.com/civic-os/file-pipeline/internal/controller/restapi/v1"
	"github.com/civic-os/file-pipeline/internal/dto"
	"github.com/civic-os/file-pipeline/internal/usecase"
	"github.com/civic-os/file-pipeline/pkg/logger"
)

// @title File pipeline
// @version 1.0.0
// @host localhost:8080
// @BasePath /v1
func NewRouter(app *fiber.App, cfg *config.Config, files usecase.UploadOrchestrator, l logger.Interface) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	constraints := dto.Constraints{
		AllowedMimePatterns: cfg.Upload.AllowedTypes,
		MaxSizeBytes:        cfg.Upload.MaxSizeBytes,
	}

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewFileRoutes(apiV1Group, files, l, constraints)
	}
}
