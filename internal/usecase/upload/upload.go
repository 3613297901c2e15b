// Package upload implements the client-side orchestration of the pipeline:
// validate, hand off to the signing worker, carry the bytes to the store and
// register the durable record.
package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/civic-os/file-pipeline/internal/dto"
	"github.com/civic-os/file-pipeline/internal/entity"
	"github.com/civic-os/file-pipeline/internal/infrastructure"
	"github.com/civic-os/file-pipeline/internal/repo"
	"github.com/civic-os/file-pipeline/pkg/logger"
	"github.com/civic-os/file-pipeline/pkg/types/errs"
)

// Polling knobs. The signing wait is short because signing is cheap; the
// thumbnail wait is long because rendering large originals is not.
type PollPolicy struct {
	SignInterval  time.Duration
	SignAttempts  int
	ThumbInterval time.Duration
	ThumbAttempts int
}

type UseCase struct {
	requests repo.UploadRequestRepo
	files    repo.FileRecordRepo
	objects  repo.ObjectRepo
	tx       repo.Transactor
	uploader infrastructure.PresignedUploader
	l        logger.Interface

	poll PollPolicy
}

func New(
	requests repo.UploadRequestRepo,
	files repo.FileRecordRepo,
	objects repo.ObjectRepo,
	tx repo.Transactor,
	uploader infrastructure.PresignedUploader,
	l logger.Interface,
	poll PollPolicy,
) *UseCase {
	return &UseCase{
		requests: requests,
		files:    files,
		objects:  objects,
		tx:       tx,
		uploader: uploader,
		l:        l,
		poll:     poll,
	}
}

func (uc *UseCase) Upload(ctx context.Context, input dto.UploadInput) (*entity.FileRecord, error) {
	if err := validate(input); err != nil {
		return nil, fmt.Errorf("UploadUseCase - Upload: %w", err)
	}

	now := time.Now()
	req := &entity.UploadRequest{
		ID:          uuid.New(),
		FileName:    input.FileName,
		ContentType: input.ContentType,
		EntityType:  input.EntityType,
		EntityID:    input.EntityID,
		Status:      entity.RequestPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return uc.requests.Create(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("UploadUseCase - Upload - uc.requests.Create: %w", err)
	}

	signed, err := uc.waitForSigning(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("UploadUseCase - Upload: %w", err)
	}

	err = uc.uploader.Put(ctx, *signed.PresignedURL, input.Data, input.ContentType)
	if err != nil {
		return nil, fmt.Errorf("UploadUseCase - Upload: %w: %s", errs.ErrUploadTransport, err)
	}

	rec := &entity.FileRecord{
		ID:              *signed.FileID,
		EntityType:      input.EntityType,
		EntityID:        input.EntityID,
		FileName:        input.FileName,
		ContentType:     input.ContentType,
		Size:            input.Size,
		OriginalKey:     *signed.ObjectKey,
		ThumbnailStatus: entity.ThumbnailPending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return uc.files.Create(ctx, rec)
	})
	if err != nil {
		// The object was stored but no record points at it. Best effort to
		// not leave the orphan behind.
		if delErr := uc.objects.Delete(ctx, rec.OriginalKey); delErr != nil {
			uc.l.Warn("orphaned object not removed: %s: %v", rec.OriginalKey, delErr)
		}

		return nil, fmt.Errorf("UploadUseCase - Upload - uc.files.Create: %w", err)
	}

	if !input.WaitForThumbnails || entity.KindOf(input.ContentType) == entity.KindOther {
		return rec, nil
	}

	final, err := uc.waitForThumbnails(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("UploadUseCase - Upload: %w", err)
	}

	return final, nil
}

// waitForSigning polls the request row until the signing worker writes a
// terminal state or the attempts run out.
func (uc *UseCase) waitForSigning(ctx context.Context, id uuid.UUID) (*entity.UploadRequest, error) {
	for attempt := 0; attempt < uc.poll.SignAttempts; attempt++ {
		if err := sleep(ctx, uc.poll.SignInterval); err != nil {
			return nil, err
		}

		req, err := uc.requests.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("uc.requests.GetByID: %w", err)
		}

		switch req.Status {
		case entity.RequestCompleted:
			return req, nil
		case entity.RequestFailed:
			reason := "unknown"
			if req.ErrorMessage != nil {
				reason = *req.ErrorMessage
			}

			return nil, fmt.Errorf("%w: %s", errs.ErrSigningFailed, reason)
		}
	}

	return nil, errs.ErrSigningTimeout
}

// waitForThumbnails polls the record until the thumbnail worker reaches a
// terminal state. The first sleep doubles as the initial grace period.
func (uc *UseCase) waitForThumbnails(ctx context.Context, id uuid.UUID) (*entity.FileRecord, error) {
	for attempt := 0; attempt < uc.poll.ThumbAttempts; attempt++ {
		if err := sleep(ctx, uc.poll.ThumbInterval); err != nil {
			return nil, err
		}

		rec, err := uc.files.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("uc.files.GetByID: %w", err)
		}

		switch rec.ThumbnailStatus {
		case entity.ThumbnailCompleted, entity.ThumbnailNotApplicable:
			return rec, nil
		case entity.ThumbnailFailed:
			reason := "unknown"
			if rec.ThumbnailError != nil {
				reason = *rec.ThumbnailError
			}

			return nil, fmt.Errorf("%w: %s", errs.ErrThumbnailFailed, reason)
		}
	}

	return nil, errs.ErrThumbnailWaitTimeout
}

func (uc *UseCase) GetFile(ctx context.Context, id uuid.UUID) (*entity.FileRecord, error) {
	rec, err := uc.files.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("UploadUseCase - GetFile: %w", err)
	}

	return rec, nil
}

func (uc *UseCase) DownloadThumbnail(ctx context.Context, id uuid.UUID, size entity.ThumbSize) ([]byte, error) {
	rec, err := uc.files.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("UploadUseCase - DownloadThumbnail: %w", err)
	}

	key := rec.ThumbKeyFor(size)
	if key == nil {
		return nil, fmt.Errorf("UploadUseCase - DownloadThumbnail: %w: no %s rendition", errs.ErrRecordNotFound, size)
	}

	data, err := uc.objects.Download(ctx, *key)
	if err != nil {
		return nil, fmt.Errorf("UploadUseCase - DownloadThumbnail: %w", err)
	}

	return data, nil
}

// DeleteFile removes the row first, then the stored objects. Store failures
// after the row is gone are logged, not returned: the record is the source of
// truth and it no longer exists.
func (uc *UseCase) DeleteFile(ctx context.Context, id uuid.UUID) error {
	rec, err := uc.files.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("UploadUseCase - DeleteFile: %w", err)
	}

	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return uc.files.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("UploadUseCase - DeleteFile - uc.files.Delete: %w", err)
	}

	keys := []*string{&rec.OriginalKey, rec.ThumbSmallKey, rec.ThumbMediumKey, rec.ThumbLargeKey}
	for _, key := range keys {
		if key == nil {
			continue
		}

		if err := uc.objects.Delete(ctx, *key); err != nil {
			uc.l.Warn("object not removed on delete: %s: %v", *key, err)
		}
	}

	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
