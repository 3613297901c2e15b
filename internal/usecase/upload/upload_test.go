package upload

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/civic-os/file-pipeline/internal/dto"
	"github.com/civic-os/file-pipeline/internal/entity"
	"github.com/civic-os/file-pipeline/pkg/types/errs"
)

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})       {}
func (nopLogger) Warn(string, ...interface{})       {}
func (nopLogger) Error(interface{}, ...interface{}) {}
func (nopLogger) Fatal(interface{}, ...interface{}) {}

// fakeRequests replays a scripted sequence of request states: call N of
// GetByID returns states[N], the last state repeating.
type fakeRequests struct {
	created  *entity.UploadRequest
	states   []entity.UploadRequest
	getCalls int
}

func (f *fakeRequests) Create(_ context.Context, req *entity.UploadRequest) error {
	f.created = req
	return nil
}

func (f *fakeRequests) GetByID(context.Context, uuid.UUID) (*entity.UploadRequest, error) {
	i := f.getCalls
	if i >= len(f.states) {
		i = len(f.states) - 1
	}
	f.getCalls++

	state := f.states[i]
	return &state, nil
}

func (f *fakeRequests) Complete(context.Context, uuid.UUID, string, string, uuid.UUID) (bool, error) {
	return true, nil
}

func (f *fakeRequests) Fail(context.Context, uuid.UUID, string) error { return nil }

type fakeFiles struct {
	created   *entity.FileRecord
	createErr error
	states    []entity.FileRecord
	getCalls  int
	deleted   []uuid.UUID
}

func (f *fakeFiles) Create(_ context.Context, rec *entity.FileRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = rec
	return nil
}

func (f *fakeFiles) GetByID(context.Context, uuid.UUID) (*entity.FileRecord, error) {
	i := f.getCalls
	if i >= len(f.states) {
		i = len(f.states) - 1
	}
	f.getCalls++

	state := f.states[i]
	return &state, nil
}

func (f *fakeFiles) Claim(context.Context, uuid.UUID, time.Duration) (bool, error) {
	return false, nil
}

func (f *fakeFiles) CompleteThumbnails(context.Context, uuid.UUID, *string, *string, *string) error {
	return nil
}

func (f *fakeFiles) FailThumbnails(context.Context, uuid.UUID, string) error { return nil }

func (f *fakeFiles) MarkNotApplicable(context.Context, uuid.UUID) error { return nil }

func (f *fakeFiles) Backlog(context.Context, int, time.Duration) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeFiles) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeObjects struct {
	deleted   []string
	downloads map[string][]byte
}

func (f *fakeObjects) Upload(context.Context, string, []byte, string, string) error { return nil }

func (f *fakeObjects) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := f.downloads[key]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}
	return data, nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjects) PresignPut(context.Context, string, string, time.Duration) (string, error) {
	return "https://example.invalid/put", nil
}

type fakeTx struct{}

func (fakeTx) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	return f(ctx)
}

type fakeUploader struct {
	url         string
	contentType string
	size        int
	err         error
}

func (f *fakeUploader) Put(_ context.Context, url string, data []byte, contentType string) error {
	f.url = url
	f.contentType = contentType
	f.size = len(data)
	return f.err
}

func strptr(s string) *string { return &s }

func signedRequest(fileID uuid.UUID) entity.UploadRequest {
	return entity.UploadRequest{
		Status:       entity.RequestCompleted,
		PresignedURL: strptr("https://storage.example/put?sig=abc"),
		ObjectKey:    strptr("issue/42/" + fileID.String() + "/original.png"),
		FileID:       &fileID,
	}
}

func fastPolicy() PollPolicy {
	return PollPolicy{
		SignInterval:  time.Millisecond,
		SignAttempts:  3,
		ThumbInterval: time.Millisecond,
		ThumbAttempts: 3,
	}
}

func pngInput() dto.UploadInput {
	return dto.UploadInput{
		FileName:    "photo.png",
		ContentType: "image/png",
		Size:        4,
		Data:        []byte("data"),
		EntityType:  "issue",
		EntityID:    "42",
	}
}

func TestUploadHappyPath(t *testing.T) {
	fileID := uuid.New()

	requests := &fakeRequests{states: []entity.UploadRequest{signedRequest(fileID)}}
	files := &fakeFiles{states: []entity.FileRecord{{
		ID:              fileID,
		ThumbnailStatus: entity.ThumbnailCompleted,
		ThumbSmallKey:   strptr("issue/42/" + fileID.String() + "/thumb-small.jpg"),
	}}}
	objects := &fakeObjects{}
	uploader := &fakeUploader{}

	uc := New(requests, files, objects, fakeTx{}, uploader, nopLogger{}, fastPolicy())

	input := pngInput()
	input.WaitForThumbnails = true

	rec, err := uc.Upload(context.Background(), input)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if requests.created == nil {
		t.Fatal("upload request was not created")
	}
	if uploader.url != "https://storage.example/put?sig=abc" {
		t.Errorf("uploader url = %q", uploader.url)
	}
	if uploader.contentType != "image/png" {
		t.Errorf("uploader content type = %q", uploader.contentType)
	}
	if files.created == nil {
		t.Fatal("file record was not created")
	}
	if files.created.ID != fileID {
		t.Errorf("record id = %s, want %s", files.created.ID, fileID)
	}
	if files.created.OriginalKey != "issue/42/"+fileID.String()+"/original.png" {
		t.Errorf("record key = %q", files.created.OriginalKey)
	}
	if rec.ThumbnailStatus != entity.ThumbnailCompleted {
		t.Errorf("returned status = %s, want completed", rec.ThumbnailStatus)
	}
}

func TestUploadSigningTimeout(t *testing.T) {
	requests := &fakeRequests{states: []entity.UploadRequest{{Status: entity.RequestPending}}}

	uc := New(requests, &fakeFiles{}, &fakeObjects{}, fakeTx{}, &fakeUploader{}, nopLogger{}, fastPolicy())

	_, err := uc.Upload(context.Background(), pngInput())
	if !errors.Is(err, errs.ErrSigningTimeout) {
		t.Fatalf("Upload() error = %v, want ErrSigningTimeout", err)
	}

	// One poll per attempt, no more.
	if requests.getCalls != 3 {
		t.Errorf("GetByID calls = %d, want 3", requests.getCalls)
	}
}

func TestUploadSigningFailurePropagatesReason(t *testing.T) {
	requests := &fakeRequests{states: []entity.UploadRequest{{
		Status:       entity.RequestFailed,
		ErrorMessage: strptr("bucket does not exist"),
	}}}

	uc := New(requests, &fakeFiles{}, &fakeObjects{}, fakeTx{}, &fakeUploader{}, nopLogger{}, fastPolicy())

	_, err := uc.Upload(context.Background(), pngInput())
	if !errors.Is(err, errs.ErrSigningFailed) {
		t.Fatalf("Upload() error = %v, want ErrSigningFailed", err)
	}
	if !strings.Contains(err.Error(), "bucket does not exist") {
		t.Errorf("error %q does not carry the worker's reason", err)
	}
}

func TestUploadTransportFailure(t *testing.T) {
	fileID := uuid.New()
	requests := &fakeRequests{states: []entity.UploadRequest{signedRequest(fileID)}}
	uploader := &fakeUploader{err: errors.New("connection reset")}

	uc := New(requests, &fakeFiles{}, &fakeObjects{}, fakeTx{}, uploader, nopLogger{}, fastPolicy())

	_, err := uc.Upload(context.Background(), pngInput())
	if !errors.Is(err, errs.ErrUploadTransport) {
		t.Fatalf("Upload() error = %v, want ErrUploadTransport", err)
	}
}

// When the record insert fails after the object is stored, the orphaned
// object must be removed.
func TestUploadCompensatesOrphanedObject(t *testing.T) {
	fileID := uuid.New()
	requests := &fakeRequests{states: []entity.UploadRequest{signedRequest(fileID)}}
	files := &fakeFiles{createErr: errors.New("unique violation")}
	objects := &fakeObjects{}

	uc := New(requests, files, objects, fakeTx{}, &fakeUploader{}, nopLogger{}, fastPolicy())

	_, err := uc.Upload(context.Background(), pngInput())
	if err == nil {
		t.Fatal("Upload() expected error")
	}

	wantKey := "issue/42/" + fileID.String() + "/original.png"
	if len(objects.deleted) != 1 || objects.deleted[0] != wantKey {
		t.Errorf("deleted objects = %v, want [%s]", objects.deleted, wantKey)
	}
}

// Non-media files never get thumbnails, so there is nothing to wait for even
// when the caller asked.
func TestUploadSkipsThumbnailWaitForOtherKinds(t *testing.T) {
	fileID := uuid.New()
	requests := &fakeRequests{states: []entity.UploadRequest{signedRequest(fileID)}}
	files := &fakeFiles{states: []entity.FileRecord{{ThumbnailStatus: entity.ThumbnailPending}}}

	uc := New(requests, files, &fakeObjects{}, fakeTx{}, &fakeUploader{}, nopLogger{}, fastPolicy())

	input := pngInput()
	input.FileName = "archive.zip"
	input.ContentType = "application/zip"
	input.WaitForThumbnails = true

	rec, err := uc.Upload(context.Background(), input)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if rec.ThumbnailStatus != entity.ThumbnailPending {
		t.Errorf("returned status = %s, want pending", rec.ThumbnailStatus)
	}
	if files.getCalls != 0 {
		t.Errorf("GetByID calls = %d, want 0", files.getCalls)
	}
}

func TestUploadThumbnailWaitTimeout(t *testing.T) {
	fileID := uuid.New()
	requests := &fakeRequests{states: []entity.UploadRequest{signedRequest(fileID)}}
	files := &fakeFiles{states: []entity.FileRecord{{ThumbnailStatus: entity.ThumbnailProcessing}}}

	uc := New(requests, files, &fakeObjects{}, fakeTx{}, &fakeUploader{}, nopLogger{}, fastPolicy())

	input := pngInput()
	input.WaitForThumbnails = true

	_, err := uc.Upload(context.Background(), input)
	if !errors.Is(err, errs.ErrThumbnailWaitTimeout) {
		t.Fatalf("Upload() error = %v, want ErrThumbnailWaitTimeout", err)
	}
}

func TestUploadThumbnailFailurePropagatesReason(t *testing.T) {
	fileID := uuid.New()
	requests := &fakeRequests{states: []entity.UploadRequest{signedRequest(fileID)}}
	files := &fakeFiles{states: []entity.FileRecord{{
		ThumbnailStatus: entity.ThumbnailFailed,
		ThumbnailError:  strptr("corrupt image data"),
	}}}

	uc := New(requests, files, &fakeObjects{}, fakeTx{}, &fakeUploader{}, nopLogger{}, fastPolicy())

	input := pngInput()
	input.WaitForThumbnails = true

	_, err := uc.Upload(context.Background(), input)
	if !errors.Is(err, errs.ErrThumbnailFailed) {
		t.Fatalf("Upload() error = %v, want ErrThumbnailFailed", err)
	}
	if !strings.Contains(err.Error(), "corrupt image data") {
		t.Errorf("error %q does not carry the worker's reason", err)
	}
}

func TestDownloadThumbnailMissingRendition(t *testing.T) {
	files := &fakeFiles{states: []entity.FileRecord{{
		ThumbnailStatus: entity.ThumbnailCompleted,
		ThumbMediumKey:  strptr("doc/7/x/thumb-medium.jpg"),
	}}}

	uc := New(&fakeRequests{}, files, &fakeObjects{}, fakeTx{}, &fakeUploader{}, nopLogger{}, fastPolicy())

	_, err := uc.DownloadThumbnail(context.Background(), uuid.New(), entity.ThumbLarge)
	if !errors.Is(err, errs.ErrRecordNotFound) {
		t.Fatalf("DownloadThumbnail() error = %v, want ErrRecordNotFound", err)
	}
}

func TestDeleteFileRemovesRowAndObjects(t *testing.T) {
	id := uuid.New()
	files := &fakeFiles{states: []entity.FileRecord{{
		ID:            id,
		OriginalKey:   "doc/7/x/original.png",
		ThumbSmallKey: strptr("doc/7/x/thumb-small.jpg"),
	}}}
	objects := &fakeObjects{}

	uc := New(&fakeRequests{}, files, objects, fakeTx{}, &fakeUploader{}, nopLogger{}, fastPolicy())

	if err := uc.DeleteFile(context.Background(), id); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}

	if len(files.deleted) != 1 || files.deleted[0] != id {
		t.Errorf("deleted rows = %v, want [%s]", files.deleted, id)
	}

	// Original plus the single existing rendition; nil keys are skipped.
	want := []string{"doc/7/x/original.png", "doc/7/x/thumb-small.jpg"}
	if len(objects.deleted) != len(want) {
		t.Fatalf("deleted objects = %v, want %v", objects.deleted, want)
	}
	for i := range want {
		if objects.deleted[i] != want[i] {
			t.Errorf("deleted[%d] = %q, want %q", i, objects.deleted[i], want[i])
		}
	}
}
