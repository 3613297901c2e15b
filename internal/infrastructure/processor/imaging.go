// Package processor implements JPEG rendition generation on top of the
// imaging library.
package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

type Imaging struct{}

func New() *Imaging {
	return &Imaging{}
}

// Rendition decodes the original, cover-crops it to exactly width x height
// and encodes a JPEG. Transparent sources are flattened onto white first, so
// PNG alpha does not come out black.
func (p *Imaging) Rendition(data []byte, width, height, quality int) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("Imaging - Rendition - imaging.Decode: %w", err)
	}

	thumb := imaging.Fill(src, width, height, imaging.Center, imaging.Lanczos)

	return encodeJPEG(flattenWhite(thumb), quality)
}

// FitRendition scales the original down to fit within maxWidth x maxHeight,
// preserving aspect ratio and never upscaling.
func (p *Imaging) FitRendition(data []byte, maxWidth, maxHeight, quality int) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("Imaging - FitRendition - imaging.Decode: %w", err)
	}

	thumb := imaging.Fit(src, maxWidth, maxHeight, imaging.Lanczos)

	return encodeJPEG(flattenWhite(thumb), quality)
}

func flattenWhite(img image.Image) *image.NRGBA {
	bg := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)

	return imaging.Overlay(bg, img, image.Point{}, 1.0)
}

func encodeJPEG(img draw.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	if err != nil {
		return nil, fmt.Errorf("Imaging - imaging.Encode: %w", err)
	}

	return buf.Bytes(), nil
}
