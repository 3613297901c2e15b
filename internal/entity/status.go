package entity

// RequestStatus is the lifecycle of an upload request. The signing worker
// moves a row out of pending exactly once.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestCompleted RequestStatus = "completed"
	RequestFailed    RequestStatus = "failed"
)

// ThumbnailStatus is the lifecycle of a file record's renditions.
type ThumbnailStatus string

const (
	ThumbnailPending       ThumbnailStatus = "pending"
	ThumbnailProcessing    ThumbnailStatus = "processing"
	ThumbnailCompleted     ThumbnailStatus = "completed"
	ThumbnailFailed        ThumbnailStatus = "failed"
	ThumbnailNotApplicable ThumbnailStatus = "not_applicable"
)

// Terminal reports whether no further worker-driven transition occurs.
// A failed record is terminal for the client, but becomes eligible for a
// backlog retry after the cooldown window.
func (s ThumbnailStatus) Terminal() bool {
	switch s {
	case ThumbnailCompleted, ThumbnailFailed, ThumbnailNotApplicable:
		return true
	}
	return false
}
