// Package thumbnail generates renditions for uploaded files: a three-size
// set for images, a single medium preview for PDFs.
package thumbnail

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/civic-os/file-pipeline/internal/entity"
	"github.com/civic-os/file-pipeline/internal/infrastructure"
	"github.com/civic-os/file-pipeline/internal/repo"
	"github.com/civic-os/file-pipeline/pkg/logger"
)

const (
	_smallSide  = 150
	_mediumSide = 400
	_largeSide  = 800

	_smallQuality  = 75
	_mediumQuality = 80
	_largeQuality  = 85

	// First PDF page is rasterized wide, then fitted down, so text stays
	// legible in the preview.
	_pdfRasterWidth = 2048
	_pdfFitSide     = 400
	_pdfFitQuality  = 85

	// Renditions are immutable: the key embeds the file id.
	_cacheControl = "public, max-age=31536000"
)

type renditionSpec struct {
	size    entity.ThumbSize
	side    int
	quality int
}

var _renditions = []renditionSpec{
	{entity.ThumbSmall, _smallSide, _smallQuality},
	{entity.ThumbMedium, _mediumSide, _mediumQuality},
	{entity.ThumbLarge, _largeSide, _largeQuality},
}

type UseCase struct {
	files      repo.FileRecordRepo
	objects    repo.ObjectRepo
	processor  infrastructure.ImageProcessor
	rasterizer infrastructure.PageRasterizer
	events     infrastructure.EventsSender
	l          logger.Interface

	retryCooldown time.Duration
	backlogLimit  int
}

func New(
	files repo.FileRecordRepo,
	objects repo.ObjectRepo,
	processor infrastructure.ImageProcessor,
	rasterizer infrastructure.PageRasterizer,
	events infrastructure.EventsSender,
	l logger.Interface,
	retryCooldown time.Duration,
	backlogLimit int,
) *UseCase {
	return &UseCase{
		files:         files,
		objects:       objects,
		processor:     processor,
		rasterizer:    rasterizer,
		events:        events,
		l:             l,
		retryCooldown: retryCooldown,
		backlogLimit:  backlogLimit,
	}
}

// ProcessFile claims the record and produces its renditions. A lost claim is
// not an error: another worker owns the row, or it is already terminal.
func (uc *UseCase) ProcessFile(ctx context.Context, id uuid.UUID) error {
	claimed, err := uc.files.Claim(ctx, id, uc.retryCooldown)
	if err != nil {
		return fmt.Errorf("ThumbnailUseCase - ProcessFile - uc.files.Claim: %w", err)
	}

	if !claimed {
		uc.l.Debug("file %s not claimed, skipping", id)

		return nil
	}

	rec, err := uc.files.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ThumbnailUseCase - ProcessFile - uc.files.GetByID: %w", err)
	}

	switch entity.KindOf(rec.ContentType) {
	case entity.KindImage:
		err = uc.processImage(ctx, rec)
	case entity.KindPDF:
		err = uc.processPDF(ctx, rec)
	default:
		if err := uc.files.MarkNotApplicable(ctx, id); err != nil {
			return fmt.Errorf("ThumbnailUseCase - ProcessFile - uc.files.MarkNotApplicable: %w", err)
		}

		uc.publish(ctx, rec, entity.ThumbnailNotApplicable, "")

		return nil
	}

	if err != nil {
		if failErr := uc.files.FailThumbnails(ctx, id, err.Error()); failErr != nil {
			uc.l.Error(failErr, "file %s not marked failed", id)
		}

		uc.publish(ctx, rec, entity.ThumbnailFailed, err.Error())

		return fmt.Errorf("ThumbnailUseCase - ProcessFile: %w", err)
	}

	uc.publish(ctx, rec, entity.ThumbnailCompleted, "")

	return nil
}

// processImage downloads the original once and renders the three sizes
// concurrently. Any failed rendition fails the whole set: partial sets would
// leave clients guessing which keys exist.
func (uc *UseCase) processImage(ctx context.Context, rec *entity.FileRecord) error {
	original, err := uc.objects.Download(ctx, rec.OriginalKey)
	if err != nil {
		return fmt.Errorf("uc.objects.Download: %w", err)
	}

	keys := make([]string, len(_renditions))

	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range _renditions {
		g.Go(func() error {
			data, err := uc.processor.Rendition(original, spec.side, spec.side, spec.quality)
			if err != nil {
				return fmt.Errorf("%s rendition: %w", spec.size, err)
			}

			key := entity.ThumbKey(rec.OriginalKey, spec.size)
			if err := uc.objects.Upload(gctx, key, data, "image/jpeg", _cacheControl); err != nil {
				return fmt.Errorf("%s upload: %w", spec.size, err)
			}

			keys[i] = key

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	err = uc.files.CompleteThumbnails(ctx, rec.ID, &keys[0], &keys[1], &keys[2])
	if err != nil {
		return fmt.Errorf("uc.files.CompleteThumbnails: %w", err)
	}

	return nil
}

// processPDF rasterizes the first page through an external tool, then fits it
// down to a single medium rendition.
func (uc *UseCase) processPDF(ctx context.Context, rec *entity.FileRecord) error {
	original, err := uc.objects.Download(ctx, rec.OriginalKey)
	if err != nil {
		return fmt.Errorf("uc.objects.Download: %w", err)
	}

	tmp, err := os.CreateTemp("", "original-*.pdf")
	if err != nil {
		return fmt.Errorf("os.CreateTemp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(original); err != nil {
		tmp.Close()

		return fmt.Errorf("tmp.Write: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tmp.Close: %w", err)
	}

	rasterPath, err := uc.rasterizer.RasterizeFirstPage(ctx, tmp.Name(), _pdfRasterWidth)
	if err != nil {
		return fmt.Errorf("uc.rasterizer.RasterizeFirstPage: %w", err)
	}
	defer os.Remove(rasterPath)

	raster, err := os.ReadFile(rasterPath)
	if err != nil {
		return fmt.Errorf("os.ReadFile: %w", err)
	}

	data, err := uc.processor.FitRendition(raster, _pdfFitSide, _pdfFitSide, _pdfFitQuality)
	if err != nil {
		return fmt.Errorf("uc.processor.FitRendition: %w", err)
	}

	key := entity.ThumbKey(rec.OriginalKey, entity.ThumbMedium)
	if err := uc.objects.Upload(ctx, key, data, "image/jpeg", _cacheControl); err != nil {
		return fmt.Errorf("uc.objects.Upload: %w", err)
	}

	err = uc.files.CompleteThumbnails(ctx, rec.ID, nil, &key, nil)
	if err != nil {
		return fmt.Errorf("uc.files.CompleteThumbnails: %w", err)
	}

	return nil
}

// Backlog lists records still needing work, for the sweep that compensates
// for lost notifications.
func (uc *UseCase) Backlog(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := uc.files.Backlog(ctx, uc.backlogLimit, uc.retryCooldown)
	if err != nil {
		return nil, fmt.Errorf("ThumbnailUseCase - Backlog - uc.files.Backlog: %w", err)
	}

	return ids, nil
}

func (uc *UseCase) publish(ctx context.Context, rec *entity.FileRecord, status entity.ThumbnailStatus, reason string) {
	event := entity.ThumbnailEvent{
		FileID:     rec.ID,
		EntityType: rec.EntityType,
		EntityID:   rec.EntityID,
		Status:     status,
		Error:      reason,
		HappenedAt: time.Now(),
	}

	if err := uc.events.SendThumbnailEvent(ctx, event); err != nil {
		uc.l.Error(err, "thumbnail event for %s not published", rec.ID)
	}
}
