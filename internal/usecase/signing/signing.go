// Package signing resolves pending upload requests: it allocates the file id,
// derives the canonical object key and mints the presigned PUT URL.
package signing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/civic-os/file-pipeline/internal/dto"
	"github.com/civic-os/file-pipeline/internal/entity"
	"github.com/civic-os/file-pipeline/internal/repo"
	"github.com/civic-os/file-pipeline/pkg/logger"
)

type UseCase struct {
	requests repo.UploadRequestRepo
	objects  repo.ObjectRepo
	l        logger.Interface

	urlTTL time.Duration
}

func New(requests repo.UploadRequestRepo, objects repo.ObjectRepo, l logger.Interface, urlTTL time.Duration) *UseCase {
	return &UseCase{
		requests: requests,
		objects:  objects,
		l:        l,
		urlTTL:   urlTTL,
	}
}

// ProcessRequest handles one signing job. The file id is a UUIDv7 allocated
// here, before the record exists, because the object key embeds it. On any
// failure the request row is failed best-effort so the waiting client gets a
// reason instead of a timeout.
func (uc *UseCase) ProcessRequest(ctx context.Context, job dto.SigningJob) error {
	fileID, err := uuid.NewV7()
	if err != nil {
		return uc.fail(ctx, job.RequestID, fmt.Errorf("SigningUseCase - ProcessRequest - uuid.NewV7: %w", err))
	}

	objectKey := entity.OriginalKey(job.EntityType, job.EntityID, fileID, job.FileName)

	url, err := uc.objects.PresignPut(ctx, objectKey, job.ContentType, uc.urlTTL)
	if err != nil {
		return uc.fail(ctx, job.RequestID, fmt.Errorf("SigningUseCase - ProcessRequest - uc.objects.PresignPut: %w", err))
	}

	claimed, err := uc.requests.Complete(ctx, job.RequestID, url, objectKey, fileID)
	if err != nil {
		return fmt.Errorf("SigningUseCase - ProcessRequest - uc.requests.Complete: %w", err)
	}

	if !claimed {
		uc.l.Info("signing request %s already handled, skipping", job.RequestID)
	}

	return nil
}

func (uc *UseCase) fail(ctx context.Context, id uuid.UUID, cause error) error {
	if err := uc.requests.Fail(ctx, id, cause.Error()); err != nil {
		uc.l.Error(err, "signing request %s not marked failed", id)
	}

	return cause
}
