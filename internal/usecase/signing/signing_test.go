package signing

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/civic-os/file-pipeline/internal/dto"
	"github.com/civic-os/file-pipeline/internal/entity"
)

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})       {}
func (nopLogger) Warn(string, ...interface{})       {}
func (nopLogger) Error(interface{}, ...interface{}) {}
func (nopLogger) Fatal(interface{}, ...interface{}) {}

type fakeRequests struct {
	completedID  uuid.UUID
	completedURL string
	completedKey string
	completedFID uuid.UUID
	claimResult  bool

	failedID     uuid.UUID
	failedReason string
	failCalls    int
}

func (f *fakeRequests) Create(context.Context, *entity.UploadRequest) error { return nil }

func (f *fakeRequests) GetByID(context.Context, uuid.UUID) (*entity.UploadRequest, error) {
	return nil, errors.New("not used")
}

func (f *fakeRequests) Complete(_ context.Context, id uuid.UUID, url, key string, fileID uuid.UUID) (bool, error) {
	f.completedID = id
	f.completedURL = url
	f.completedKey = key
	f.completedFID = fileID
	return f.claimResult, nil
}

func (f *fakeRequests) Fail(_ context.Context, id uuid.UUID, reason string) error {
	f.failedID = id
	f.failedReason = reason
	f.failCalls++
	return nil
}

type fakeObjects struct {
	presignedKey string
	presignedCT  string
	presignedTTL time.Duration
	presignErr   error
}

func (f *fakeObjects) Upload(context.Context, string, []byte, string, string) error { return nil }

func (f *fakeObjects) Download(context.Context, string) ([]byte, error) { return nil, nil }

func (f *fakeObjects) Delete(context.Context, string) error { return nil }

func (f *fakeObjects) PresignPut(_ context.Context, key, contentType string, expiry time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	f.presignedKey = key
	f.presignedCT = contentType
	f.presignedTTL = expiry
	return "https://storage.example/" + key + "?sig=abc", nil
}

func job() dto.SigningJob {
	return dto.SigningJob{
		RequestID:   uuid.New(),
		FileName:    "Photo.PNG",
		ContentType: "image/png",
		EntityType:  "issue",
		EntityID:    "42",
	}
}

func TestProcessRequest(t *testing.T) {
	requests := &fakeRequests{claimResult: true}
	objects := &fakeObjects{}

	uc := New(requests, objects, nopLogger{}, time.Hour)

	j := job()
	if err := uc.ProcessRequest(context.Background(), j); err != nil {
		t.Fatalf("ProcessRequest() error = %v", err)
	}

	// Key layout: {entityType}/{entityId}/{fileId}/original{.ext}, extension
	// lowercased.
	keyPattern := regexp.MustCompile(`^issue/42/[0-9a-f-]{36}/original\.png$`)
	if !keyPattern.MatchString(objects.presignedKey) {
		t.Errorf("presigned key = %q, want match of %s", objects.presignedKey, keyPattern)
	}
	if objects.presignedCT != "image/png" {
		t.Errorf("presigned content type = %q", objects.presignedCT)
	}
	if objects.presignedTTL != time.Hour {
		t.Errorf("presigned ttl = %s, want 1h", objects.presignedTTL)
	}

	if requests.completedID != j.RequestID {
		t.Errorf("completed id = %s, want %s", requests.completedID, j.RequestID)
	}
	if requests.completedKey != objects.presignedKey {
		t.Errorf("completed key = %q, want %q", requests.completedKey, objects.presignedKey)
	}
	if requests.completedFID == uuid.Nil {
		t.Error("completed file id is zero")
	}
	if requests.failCalls != 0 {
		t.Errorf("Fail calls = %d, want 0", requests.failCalls)
	}
}

// The allocated file id must sort by creation time, which UUIDv7 encodes in
// its leading bits.
func TestProcessRequestAllocatesTimeSortableID(t *testing.T) {
	requests := &fakeRequests{claimResult: true}

	uc := New(requests, &fakeObjects{}, nopLogger{}, time.Hour)

	if err := uc.ProcessRequest(context.Background(), job()); err != nil {
		t.Fatalf("ProcessRequest() error = %v", err)
	}

	if requests.completedFID.Version() != 7 {
		t.Errorf("file id version = %d, want 7", requests.completedFID.Version())
	}
}

func TestProcessRequestFailsRequestOnPresignError(t *testing.T) {
	requests := &fakeRequests{}
	objects := &fakeObjects{presignErr: errors.New("no such bucket")}

	uc := New(requests, objects, nopLogger{}, time.Hour)

	j := job()
	err := uc.ProcessRequest(context.Background(), j)
	if err == nil {
		t.Fatal("ProcessRequest() expected error")
	}

	if requests.failCalls != 1 {
		t.Fatalf("Fail calls = %d, want 1", requests.failCalls)
	}
	if requests.failedID != j.RequestID {
		t.Errorf("failed id = %s, want %s", requests.failedID, j.RequestID)
	}
	if !strings.Contains(requests.failedReason, "no such bucket") {
		t.Errorf("failed reason %q does not carry the cause", requests.failedReason)
	}
}

func TestProcessRequestLostClaimIsNotAnError(t *testing.T) {
	requests := &fakeRequests{claimResult: false}

	uc := New(requests, &fakeObjects{}, nopLogger{}, time.Hour)

	if err := uc.ProcessRequest(context.Background(), job()); err != nil {
		t.Fatalf("ProcessRequest() error = %v, want nil on lost claim", err)
	}
}
