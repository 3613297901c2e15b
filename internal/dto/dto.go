package dto

import "github.com/google/uuid"

// Constraints are caller-supplied local validation rules. Zero values mean
// unconstrained.
type Constraints struct {
	AllowedMimePatterns []string // exact match or "type/*" wildcard
	MaxSizeBytes        int64
}

// UploadInput carries one file through the upload orchestrator.
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Data        []byte

	EntityType string
	EntityID   string

	WaitForThumbnails bool
	Constraints       Constraints
}

// SigningJob is one unit of work for the signing worker, parsed from a
// notification payload.
type SigningJob struct {
	RequestID   uuid.UUID
	FileName    string
	ContentType string
	EntityType  string
	EntityID    string
}
