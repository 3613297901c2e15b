package v1

import (
	"github.com/civic-os/file-pipeline/internal/dto"
	"github.com/civic-os/file-pipeline/internal/usecase"
	"github.com/civic-os/file-pipeline/pkg/logger"
)

type V1 struct {
	files       usecase.UploadOrchestrator
	logger      logger.Interface
	constraints dto.Constraints
}
