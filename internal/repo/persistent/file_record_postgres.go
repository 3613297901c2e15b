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
	fileRecordsTable = "file_records"

	// Columns
	fileIDColumn              = "id"
	fileEntityTypeColumn      = "entity_type"
	fileEntityIDColumn        = "entity_id"
	fileNameColumn            = "file_name"
	fileContentTypeColumn     = "content_type"
	fileSizeColumn            = "size"
	fileOriginalKeyColumn     = "original_key"
	fileThumbSmallKeyColumn   = "thumb_small_key"
	fileThumbMediumKeyColumn  = "thumb_medium_key"
	fileThumbLargeKeyColumn   = "thumb_large_key"
	fileThumbnailStatusColumn = "thumbnail_status"
	fileThumbnailErrorColumn  = "thumbnail_error"
	fileCreatedAtColumn       = "created_at"
	fileUpdatedAtColumn       = "updated_at"
)

type FileRecordRepo struct {
	*postgres.Postgres
}

func NewFileRecordRepo(pg *postgres.Postgres) *FileRecordRepo {
	return &FileRecordRepo{pg}
}

func (r *FileRecordRepo) Create(ctx context.Context, rec *entity.FileRecord) error {
	sql, args, err := r.Builder.
		Insert(fileRecordsTable).
		Columns(
			fileIDColumn,
			fileEntityTypeColumn,
			fileEntityIDColumn,
			fileNameColumn,
			fileContentTypeColumn,
			fileSizeColumn,
			fileOriginalKeyColumn,
			fileThumbnailStatusColumn,
			fileCreatedAtColumn,
			fileUpdatedAtColumn,
		).
		Values(
			rec.ID,
			rec.EntityType,
			rec.EntityID,
			rec.FileName,
			rec.ContentType,
			rec.Size,
			rec.OriginalKey,
			rec.ThumbnailStatus,
			rec.CreatedAt,
			rec.UpdatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("FileRecordRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("FileRecordRepo - Create - executor.Exec: %w", err)
	}

	err = notifyJSON(ctx, executor, FileRecordChannel, map[string]any{
		"id":           rec.ID,
		"object_key":   rec.OriginalKey,
		"content_type": rec.ContentType,
		"entity_type":  rec.EntityType,
		"entity_id":    rec.EntityID,
	})
	if err != nil {
		return fmt.Errorf("FileRecordRepo - Create: %w", err)
	}

	return nil
}

func (r *FileRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.FileRecord, error) {
	sql, args, err := r.Builder.
		Select(
			fileIDColumn,
			fileEntityTypeColumn,
			fileEntityIDColumn,
			fileNameColumn,
			fileContentTypeColumn,
			fileSizeColumn,
			fileOriginalKeyColumn,
			fileThumbSmallKeyColumn,
			fileThumbMediumKeyColumn,
			fileThumbLargeKeyColumn,
			fileThumbnailStatusColumn,
			fileThumbnailErrorColumn,
			fileCreatedAtColumn,
			fileUpdatedAtColumn,
		).
		From(fileRecordsTable).
		Where(squirrel.Eq{fileIDColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("FileRecordRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var rec entity.FileRecord
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&rec.ID,
		&rec.EntityType,
		&rec.EntityID,
		&rec.FileName,
		&rec.ContentType,
		&rec.Size,
		&rec.OriginalKey,
		&rec.ThumbSmallKey,
		&rec.ThumbMediumKey,
		&rec.ThumbLargeKey,
		&rec.ThumbnailStatus,
		&rec.ThumbnailError,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("FileRecordRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("FileRecordRepo - GetByID - executor.QueryRow: %w", err)
	}

	return &rec, nil
}

// Claim establishes exclusive ownership of a unit of work: an eligible row
// (pending, or failed past the cooldown) is moved to processing, and the
// affected-row count tells the caller whether it won.
func (r *FileRecordRepo) Claim(ctx context.Context, id uuid.UUID, retryCooldown time.Duration) (bool, error) {
	sql, args, err := r.Builder.
		Update(fileRecordsTable).
		Set(fileThumbnailStatusColumn, entity.ThumbnailProcessing).
		Set(fileThumbnailErrorColumn, nil).
		Set(fileUpdatedAtColumn, time.Now()).
		Where(squirrel.And{
			squirrel.Eq{fileIDColumn: id},
			claimEligible(retryCooldown),
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("FileRecordRepo - Claim - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("FileRecordRepo - Claim - executor.Exec: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *FileRecordRepo) CompleteThumbnails(ctx context.Context, id uuid.UUID, smallKey, mediumKey, largeKey *string) error {
	sql, args, err := r.Builder.
		Update(fileRecordsTable).
		Set(fileThumbSmallKeyColumn, smallKey).
		Set(fileThumbMediumKeyColumn, mediumKey).
		Set(fileThumbLargeKeyColumn, largeKey).
		Set(fileThumbnailStatusColumn, entity.ThumbnailCompleted).
		Set(fileThumbnailErrorColumn, nil).
		Set(fileUpdatedAtColumn, time.Now()).
		Where(squirrel.Eq{
			fileIDColumn:              id,
			fileThumbnailStatusColumn: entity.ThumbnailProcessing,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("FileRecordRepo - CompleteThumbnails - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("FileRecordRepo - CompleteThumbnails - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("FileRecordRepo - CompleteThumbnails: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *FileRecordRepo) FailThumbnails(ctx context.Context, id uuid.UUID, reason string) error {
	sql, args, err := r.Builder.
		Update(fileRecordsTable).
		Set(fileThumbnailStatusColumn, entity.ThumbnailFailed).
		Set(fileThumbnailErrorColumn, reason).
		Set(fileUpdatedAtColumn, time.Now()).
		Where(squirrel.Eq{fileIDColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("FileRecordRepo - FailThumbnails - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("FileRecordRepo - FailThumbnails - executor.Exec: %w", err)
	}

	return nil
}

func (r *FileRecordRepo) MarkNotApplicable(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.Builder.
		Update(fileRecordsTable).
		Set(fileThumbnailStatusColumn, entity.ThumbnailNotApplicable).
		Set(fileUpdatedAtColumn, time.Now()).
		Where(squirrel.Eq{fileIDColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("FileRecordRepo - MarkNotApplicable - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("FileRecordRepo - MarkNotApplicable - executor.Exec: %w", err)
	}

	return nil
}

func (r *FileRecordRepo) Backlog(ctx context.Context, limit int, retryCooldown time.Duration) ([]uuid.UUID, error) {
	sql, args, err := backlogQuery(r.Builder, limit, retryCooldown).ToSql()
	if err != nil {
		return nil, fmt.Errorf("FileRecordRepo - Backlog - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("FileRecordRepo - Backlog - executor.Query: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0, limit)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("FileRecordRepo - Backlog - rows.Scan: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FileRecordRepo - Backlog - rows.Err: %w", err)
	}

	return ids, nil
}

func (r *FileRecordRepo) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.Builder.
		Delete(fileRecordsTable).
		Where(squirrel.Eq{fileIDColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("FileRecordRepo - Delete - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("FileRecordRepo - Delete - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("FileRecordRepo - Delete: %w", errs.ErrRecordNotFound)
	}

	return nil
}

// claimEligible is the shared eligibility predicate for Claim and Backlog:
// never-processed rows, plus failed rows whose cooldown has elapsed.
func claimEligible(retryCooldown time.Duration) squirrel.Or {
	cutoff := time.Now().Add(-retryCooldown)

	return squirrel.Or{
		squirrel.Eq{fileThumbnailStatusColumn: entity.ThumbnailPending},
		squirrel.And{
			squirrel.Eq{fileThumbnailStatusColumn: entity.ThumbnailFailed},
			squirrel.Lt{fileUpdatedAtColumn: cutoff},
		},
	}
}

func backlogQuery(b squirrel.StatementBuilderType, limit int, retryCooldown time.Duration) squirrel.SelectBuilder {
	return b.
		Select(fileIDColumn).
		From(fileRecordsTable).
		Where(claimEligible(retryCooldown)).
		OrderBy(fileCreatedAtColumn + " ASC").
		Limit(uint64(limit))
}
