package errs

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")

	// Upload pipeline error categories. Each is a distinct, errors.Is-able
	// failure the caller can react to differently: fix the input, retry
	// later, or surface the backend's reason.
	ErrValidation           = errors.New("validation failed")
	ErrSigningTimeout       = errors.New("signing request timed out")
	ErrSigningFailed        = errors.New("signing request failed")
	ErrUploadTransport      = errors.New("upload to presigned url failed")
	ErrThumbnailFailed      = errors.New("thumbnail generation failed")
	ErrThumbnailWaitTimeout = errors.New("timed out waiting for thumbnails")
)
