package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/civic-os/file-pipeline/internal/entity"
	"github.com/civic-os/file-pipeline/pkg/postgres"
	"github.com/civic-os/file-pipeline/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	uploadRequestsTable = "upload_requests"

	// Columns
	reqIDColumn           = "id"
	reqFileNameColumn     = "file_name"
	reqContentTypeColumn  = "content_type"
	reqEntityTypeColumn   = "entity_type"
	reqEntityIDColumn     = "entity_id"
	reqStatusColumn       = "status"
	reqPresignedURLColumn = "presigned_url"
	reqObjectKeyColumn    = "object_key"
	reqFileIDColumn       = "file_id"
	reqErrorMessageColumn = "error_message"
	reqCreatedAtColumn    = "created_at"
	reqUpdatedAtColumn    = "updated_at"
)

type UploadRequestRepo struct {
	*postgres.Postgres
}

func NewUploadRequestRepo(pg *postgres.Postgres) *UploadRequestRepo {
	return &UploadRequestRepo{pg}
}

func (r *UploadRequestRepo) Create(ctx context.Context, req *entity.UploadRequest) error {
	sql, args, err := r.Builder.
		Insert(uploadRequestsTable).
		Columns(
			reqIDColumn,
			reqFileNameColumn,
			reqContentTypeColumn,
			reqEntityTypeColumn,
			reqEntityIDColumn,
			reqStatusColumn,
			reqCreatedAtColumn,
			reqUpdatedAtColumn,
		).
		Values(
			req.ID,
			req.FileName,
			req.ContentType,
			req.EntityType,
			req.EntityID,
			req.Status,
			req.CreatedAt,
			req.UpdatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("UploadRequestRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("UploadRequestRepo - Create - executor.Exec: %w", err)
	}

	err = notifyJSON(ctx, executor, UploadRequestChannel, map[string]any{
		"id":           req.ID,
		"file_name":    req.FileName,
		"content_type": req.ContentType,
		"entity_type":  req.EntityType,
		"entity_id":    req.EntityID,
	})
	if err != nil {
		return fmt.Errorf("UploadRequestRepo - Create: %w", err)
	}

	return nil
}

func (r *UploadRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.UploadRequest, error) {
	sql, args, err := r.Builder.
		Select(
			reqIDColumn,
			reqFileNameColumn,
			reqContentTypeColumn,
			reqEntityTypeColumn,
			reqEntityIDColumn,
			reqStatusColumn,
			reqPresignedURLColumn,
			reqObjectKeyColumn,
			reqFileIDColumn,
			reqErrorMessageColumn,
			reqCreatedAtColumn,
			reqUpdatedAtColumn,
		).
		From(uploadRequestsTable).
		Where(squirrel.Eq{reqIDColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("UploadRequestRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var req entity.UploadRequest
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&req.ID,
		&req.FileName,
		&req.ContentType,
		&req.EntityType,
		&req.EntityID,
		&req.Status,
		&req.PresignedURL,
		&req.ObjectKey,
		&req.FileID,
		&req.ErrorMessage,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("UploadRequestRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("UploadRequestRepo - GetByID - executor.QueryRow: %w", err)
	}

	return &req, nil
}

// Complete writes the terminal success state. The status='pending' guard is
// the claim: with several signing workers on one channel, only the first
// update lands and the rest see zero affected rows.
func (r *UploadRequestRepo) Complete(ctx context.Context, id uuid.UUID, presignedURL, objectKey string, fileID uuid.UUID) (bool, error) {
	sql, args, err := r.Builder.
		Update(uploadRequestsTable).
		Set(reqStatusColumn, entity.RequestCompleted).
		Set(reqPresignedURLColumn, presignedURL).
		Set(reqObjectKeyColumn, objectKey).
		Set(reqFileIDColumn, fileID).
		Set(reqUpdatedAtColumn, time.Now()).
		Where(squirrel.Eq{
			reqIDColumn:     id,
			reqStatusColumn: entity.RequestPending,
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("UploadRequestRepo - Complete - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("UploadRequestRepo - Complete - executor.Exec: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *UploadRequestRepo) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	sql, args, err := r.Builder.
		Update(uploadRequestsTable).
		Set(reqStatusColumn, entity.RequestFailed).
		Set(reqErrorMessageColumn, reason).
		Set(reqUpdatedAtColumn, time.Now()).
		Where(squirrel.Eq{
			reqIDColumn:     id,
			reqStatusColumn: entity.RequestPending,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("UploadRequestRepo - Fail - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("UploadRequestRepo - Fail - executor.Exec: %w", err)
	}

	return nil
}
