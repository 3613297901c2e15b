package upload

import (
	"fmt"
	"strings"

	"github.com/civic-os/file-pipeline/internal/dto"
	"github.com/civic-os/file-pipeline/pkg/types/errs"
)

// validate applies the caller-supplied constraints before anything touches
// the database. Empty constraint fields mean unconstrained.
func validate(input dto.UploadInput) error {
	if input.FileName == "" {
		return fmt.Errorf("%w: file name is required", errs.ErrValidation)
	}

	if input.EntityType == "" || input.EntityID == "" {
		return fmt.Errorf("%w: entity type and entity id are required", errs.ErrValidation)
	}

	c := input.Constraints

	if c.MaxSizeBytes > 0 && input.Size > c.MaxSizeBytes {
		return fmt.Errorf("%w: file size %d exceeds limit %d", errs.ErrValidation, input.Size, c.MaxSizeBytes)
	}

	if len(c.AllowedMimePatterns) > 0 && !mimeAllowed(input.ContentType, c.AllowedMimePatterns) {
		return fmt.Errorf("%w: content type %q is not allowed", errs.ErrValidation, input.ContentType)
	}

	return nil
}

// mimeAllowed matches the content type against exact patterns and "type/*"
// wildcards.
func mimeAllowed(contentType string, patterns []string) bool {
	for _, pattern := range patterns {
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(contentType, prefix) {
				return true
			}
			continue
		}

		if contentType == pattern {
			return true
		}
	}

	return false
}
