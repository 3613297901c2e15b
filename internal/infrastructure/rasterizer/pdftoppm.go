// Package rasterizer renders PDF pages to raster images via the poppler
// pdftoppm binary.
package rasterizer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

type Pdftoppm struct {
	bin string
}

func New(bin string) *Pdftoppm {
	return &Pdftoppm{bin: bin}
}

// RasterizeFirstPage renders page one of the PDF at inputPath to a PNG scaled
// to targetWidth and returns the output path. The caller removes the file
// when done.
func (r *Pdftoppm) RasterizeFirstPage(ctx context.Context, inputPath string, targetWidth int) (string, error) {
	prefix := inputPath + "-page"

	cmd := exec.CommandContext(ctx, r.bin,
		"-png",
		"-f", "1",
		"-l", "1",
		"-scale-to-x", strconv.Itoa(targetWidth),
		"-scale-to-y", "-1",
		inputPath,
		prefix,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("Pdftoppm - RasterizeFirstPage - cmd.Run: %w: %s", err, stderr.String())
	}

	// pdftoppm appends the page number to the prefix.
	outputPath := prefix + "-1.png"
	if _, err := os.Stat(outputPath); err != nil {
		return "", fmt.Errorf("Pdftoppm - RasterizeFirstPage - os.Stat: %w", err)
	}

	return outputPath, nil
}
