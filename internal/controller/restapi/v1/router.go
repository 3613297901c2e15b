package v1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civic-os/file-pipeline/internal/dto"
	"github.com/civic-os/file-pipeline/internal/usecase"
	"github.com/civic-os/file-pipeline/pkg/logger"
)

func NewFileRoutes(apiV1Group fiber.Router, files usecase.UploadOrchestrator, l logger.Interface, constraints dto.Constraints) {
	r := &V1{files: files, logger: l, constraints: constraints}

	{
		// API
		apiV1Group.Post("/files", r.uploadFile)
		apiV1Group.Get("/files/:id", r.getFile)
		apiV1Group.Get("/files/:id/thumbnails/:size", r.getThumbnail)
		apiV1Group.Delete("/files/:id", r.deleteFile)
	}
}
