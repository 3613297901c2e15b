package entity

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ThumbSize names a rendition. The size names appear verbatim in object keys.
type ThumbSize string

const (
	ThumbSmall  ThumbSize = "small"
	ThumbMedium ThumbSize = "medium"
	ThumbLarge  ThumbSize = "large"
)

// OriginalKey builds the canonical object key for an uploaded original:
// {entityType}/{entityId}/{fileId}/original.{ext}. The extension is taken
// verbatim from the declared file name's suffix, lowercased.
func OriginalKey(entityType, entityID string, fileID uuid.UUID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))

	return fmt.Sprintf("%s/%s/%s/original%s", entityType, entityID, fileID, ext)
}

// ThumbKey derives a rendition key from the original key alone: the trailing
// /original.{ext} segment is replaced with /thumb-{size}.jpg. No stored
// mapping is involved, so the derivation is reproducible anywhere.
func ThumbKey(originalKey string, size ThumbSize) string {
	prefix := originalKey
	if idx := strings.LastIndex(originalKey, "/"); idx >= 0 {
		prefix = originalKey[:idx]
	}

	return prefix + "/thumb-" + string(size) + ".jpg"
}
