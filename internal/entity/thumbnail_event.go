package entity

import (
	"time"

	"github.com/google/uuid"
)

// ThumbnailEvent is published to the event stream on every terminal
// thumbnail transition, for downstream consumers outside this pipeline.
type ThumbnailEvent struct {
	FileID     uuid.UUID       `json:"file_id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Status     ThumbnailStatus `json:"status"`
	Error      string          `json:"error,omitempty"`
	HappenedAt time.Time       `json:"happened_at"`
}
