package entity

import (
	"time"

	"github.com/google/uuid"
)

// UploadRequest is the ephemeral job row bridging the client and the signing
// worker. The client creates it and never mutates it; the signing worker
// writes the terminal state exactly once.
type UploadRequest struct {
	ID uuid.UUID `json:"id"`

	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	EntityType  string `json:"entity_type"`
	EntityID    string `json:"entity_id"`

	Status RequestStatus `json:"status"`

	PresignedURL *string    `json:"presigned_url,omitempty"`
	ObjectKey    *string    `json:"object_key,omitempty"`
	FileID       *uuid.UUID `json:"file_id,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
