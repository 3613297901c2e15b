package entity

import (
	"testing"

	"github.com/google/uuid"
)

func TestOriginalKey(t *testing.T) {
	fileID := uuid.MustParse("0191b9c5-7a00-7000-8000-000000000001")

	tests := []struct {
		name     string
		fileName string
		want     string
	}{
		{
			name:     "plain extension",
			fileName: "report.pdf",
			want:     "issue/42/" + fileID.String() + "/original.pdf",
		},
		{
			name:     "extension is lowercased",
			fileName: "PHOTO.JPG",
			want:     "issue/42/" + fileID.String() + "/original.jpg",
		},
		{
			name:     "no extension",
			fileName: "README",
			want:     "issue/42/" + fileID.String() + "/original",
		},
		{
			name:     "multiple dots keep only the suffix",
			fileName: "archive.tar.gz",
			want:     "issue/42/" + fileID.String() + "/original.gz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OriginalKey("issue", "42", fileID, tt.fileName)
			if got != tt.want {
				t.Errorf("OriginalKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestThumbKey(t *testing.T) {
	original := "issue/42/abc/original.png"

	tests := []struct {
		size ThumbSize
		want string
	}{
		{ThumbSmall, "issue/42/abc/thumb-small.jpg"},
		{ThumbMedium, "issue/42/abc/thumb-medium.jpg"},
		{ThumbLarge, "issue/42/abc/thumb-large.jpg"},
	}

	for _, tt := range tests {
		t.Run(string(tt.size), func(t *testing.T) {
			got := ThumbKey(original, tt.size)
			if got != tt.want {
				t.Errorf("ThumbKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

// The rendition key must be derivable from the original key alone, whatever
// the original extension was.
func TestThumbKeyIgnoresExtension(t *testing.T) {
	for _, original := range []string{
		"doc/7/x/original.pdf",
		"doc/7/x/original.JPG",
		"doc/7/x/original",
	} {
		got := ThumbKey(original, ThumbMedium)
		if got != "doc/7/x/thumb-medium.jpg" {
			t.Errorf("ThumbKey(%q) = %q, want doc/7/x/thumb-medium.jpg", original, got)
		}
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		contentType string
		want        MediaKind
	}{
		{"image/png", KindImage},
		{"image/jpeg", KindImage},
		{"image/svg+xml", KindImage},
		{"application/pdf", KindPDF},
		{"application/zip", KindOther},
		{"text/plain", KindOther},
		{"", KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := KindOf(tt.contentType); got != tt.want {
				t.Errorf("KindOf(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

func TestThumbnailStatusTerminal(t *testing.T) {
	tests := []struct {
		status ThumbnailStatus
		want   bool
	}{
		{ThumbnailPending, false},
		{ThumbnailProcessing, false},
		{ThumbnailCompleted, true},
		{ThumbnailFailed, true},
		{ThumbnailNotApplicable, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}
