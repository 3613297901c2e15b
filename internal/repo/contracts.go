package repo

import (
	"context"
	"time"

	"github.com/civic-os/file-pipeline/internal/entity"
	"github.com/google/uuid"
)

type (
	// UploadRequestRepo persists signing jobs. Create also publishes the
	// wake-up notification inside the surrounding transaction.
	UploadRequestRepo interface {
		Create(ctx context.Context, req *entity.UploadRequest) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.UploadRequest, error)
		// Complete writes the terminal success state guarded by
		// status='pending'; false means another instance already claimed
		// the row.
		Complete(ctx context.Context, id uuid.UUID, presignedURL, objectKey string, fileID uuid.UUID) (bool, error)
		Fail(ctx context.Context, id uuid.UUID, reason string) error
	}

	// FileRecordRepo persists file metadata and thumbnail state.
	FileRecordRepo interface {
		Create(ctx context.Context, rec *entity.FileRecord) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.FileRecord, error)
		// Claim transitions an eligible row (pending, or failed past the
		// cooldown) to processing; false means not eligible or already
		// owned by another worker.
		Claim(ctx context.Context, id uuid.UUID, retryCooldown time.Duration) (bool, error)
		CompleteThumbnails(ctx context.Context, id uuid.UUID, smallKey, mediumKey, largeKey *string) error
		FailThumbnails(ctx context.Context, id uuid.UUID, reason string) error
		MarkNotApplicable(ctx context.Context, id uuid.UUID) error
		// Backlog returns ids of rows needing work: pending, or failed with
		// updated_at older than the cooldown; oldest first, capped at limit.
		Backlog(ctx context.Context, limit int, retryCooldown time.Duration) ([]uuid.UUID, error)
		Delete(ctx context.Context, id uuid.UUID) error
	}

	// ObjectRepo is the object-store gateway. PresignPut must be called on
	// an instance built against the public endpoint so the URL is reachable
	// from the end user's client.
	ObjectRepo interface {
		Upload(ctx context.Context, key string, data []byte, contentType, cacheControl string) error
		Download(ctx context.Context, key string) ([]byte, error)
		Delete(ctx context.Context, key string) error
		PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
	}

	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}
)
