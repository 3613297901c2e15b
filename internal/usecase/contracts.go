// Package usecase declares the application's business-logic contracts.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/civic-os/file-pipeline/internal/dto"
	"github.com/civic-os/file-pipeline/internal/entity"
)

type (
	// UploadOrchestrator drives a file from client bytes to a durable record:
	// validate, request a signed URL, wait for the signing worker, PUT the
	// bytes, create the record, optionally wait for thumbnails.
	UploadOrchestrator interface {
		Upload(ctx context.Context, input dto.UploadInput) (*entity.FileRecord, error)
		GetFile(ctx context.Context, id uuid.UUID) (*entity.FileRecord, error)
		DownloadThumbnail(ctx context.Context, id uuid.UUID, size entity.ThumbSize) ([]byte, error)
		DeleteFile(ctx context.Context, id uuid.UUID) error
	}

	// SigningUseCase resolves one pending upload request into a presigned URL
	// and object key.
	SigningUseCase interface {
		ProcessRequest(ctx context.Context, job dto.SigningJob) error
	}

	// ThumbnailUseCase generates renditions for one file record, and surfaces
	// the backlog of records still needing work.
	ThumbnailUseCase interface {
		ProcessFile(ctx context.Context, id uuid.UUID) error
		Backlog(ctx context.Context) ([]uuid.UUID, error)
	}
)
