package entity

import "strings"

// MediaKind is the closed variant the thumbnail worker dispatches on,
// resolved once per file from the declared content type.
type MediaKind int

const (
	KindOther MediaKind = iota
	KindImage
	KindPDF
)

func KindOf(contentType string) MediaKind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return KindImage
	case contentType == "application/pdf":
		return KindPDF
	default:
		return KindOther
	}
}
