// Package infrastructure declares gateways to the non-database machinery the
// pipeline leans on: image encoding, PDF rasterization, the presigned upload
// hop, and outbound lifecycle events.
package infrastructure

import (
	"context"

	"github.com/civic-os/file-pipeline/internal/entity"
)

type (
	// ImageProcessor produces JPEG renditions from original image bytes.
	ImageProcessor interface {
		// Rendition cover-crops to exactly width x height.
		Rendition(data []byte, width, height, quality int) ([]byte, error)
		// FitRendition scales to fit within maxWidth x maxHeight, never
		// upscaling.
		FitRendition(data []byte, maxWidth, maxHeight, quality int) ([]byte, error)
	}

	// PageRasterizer renders the first page of a document to a raster image
	// on disk and returns the output path. The caller owns cleanup of both
	// input and output files.
	PageRasterizer interface {
		RasterizeFirstPage(ctx context.Context, inputPath string, targetWidth int) (string, error)
	}

	// PresignedUploader performs the client-side hop of the upload flow: a
	// plain HTTP PUT of the file bytes to a presigned URL.
	PresignedUploader interface {
		Put(ctx context.Context, url string, data []byte, contentType string) error
	}

	// EventsSender publishes thumbnail lifecycle events for downstream
	// consumers. Implementations must be safe for concurrent use.
	EventsSender interface {
		SendThumbnailEvent(ctx context.Context, event entity.ThumbnailEvent) error
		Close() error
	}
)
