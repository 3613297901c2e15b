package response

type File struct {
	FileID          string  `json:"file_id"`
	EntityType      string  `json:"entity_type"`
	EntityID        string  `json:"entity_id"`
	FileName        string  `json:"file_name"`
	ContentType     string  `json:"content_type"`
	Size            int64   `json:"size"`
	OriginalKey     string  `json:"original_key"`
	ThumbSmallKey   *string `json:"thumb_small_key,omitempty"`
	ThumbMediumKey  *string `json:"thumb_medium_key,omitempty"`
	ThumbLargeKey   *string `json:"thumb_large_key,omitempty"`
	ThumbnailStatus string  `json:"thumbnail_status"`
	ThumbnailError  *string `json:"thumbnail_error,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

type Error struct {
	Error string `json:"error" example:"message"`
}
