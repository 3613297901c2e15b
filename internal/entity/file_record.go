package entity

import (
	"time"

	"github.com/google/uuid"
)

// FileRecord is the durable metadata row for an uploaded object. The ID is a
// UUIDv7, so records sort by creation time. Thumbnail fields are owned by the
// thumbnail worker.
type FileRecord struct {
	ID uuid.UUID `json:"id"`

	EntityType  string `json:"entity_type"`
	EntityID    string `json:"entity_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`

	OriginalKey    string  `json:"original_key"`
	ThumbSmallKey  *string `json:"thumb_small_key,omitempty"`
	ThumbMediumKey *string `json:"thumb_medium_key,omitempty"`
	ThumbLargeKey  *string `json:"thumb_large_key,omitempty"`

	ThumbnailStatus ThumbnailStatus `json:"thumbnail_status"`
	ThumbnailError  *string         `json:"thumbnail_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ThumbKeyFor returns the stored key for a rendition size, nil when the
// rendition was not produced.
func (f *FileRecord) ThumbKeyFor(size ThumbSize) *string {
	switch size {
	case ThumbSmall:
		return f.ThumbSmallKey
	case ThumbMedium:
		return f.ThumbMediumKey
	case ThumbLarge:
		return f.ThumbLargeKey
	}
	return nil
}
