package signer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/civic-os/file-pipeline/internal/dto"
)

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})       {}
func (nopLogger) Warn(string, ...interface{})       {}
func (nopLogger) Error(interface{}, ...interface{}) {}
func (nopLogger) Fatal(interface{}, ...interface{}) {}

type fakeSigning struct {
	jobs []dto.SigningJob
}

func (f *fakeSigning) ProcessRequest(_ context.Context, job dto.SigningJob) error {
	f.jobs = append(f.jobs, job)
	return nil
}

func TestHandleParsesNotificationPayload(t *testing.T) {
	signing := &fakeSigning{}
	w := New(signing, nil, nopLogger{}, time.Second)

	id := uuid.New()
	raw := `{"id":"` + id.String() + `","file_name":"photo.png","content_type":"image/png","entity_type":"issue","entity_id":"42"}`

	w.handle(context.Background(), raw)

	if len(signing.jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(signing.jobs))
	}

	job := signing.jobs[0]
	if job.RequestID != id {
		t.Errorf("request id = %s, want %s", job.RequestID, id)
	}
	if job.FileName != "photo.png" || job.ContentType != "image/png" {
		t.Errorf("job = %+v", job)
	}
	if job.EntityType != "issue" || job.EntityID != "42" {
		t.Errorf("job = %+v", job)
	}
}

func TestHandleIgnoresMalformedPayload(t *testing.T) {
	signing := &fakeSigning{}
	w := New(signing, nil, nopLogger{}, time.Second)

	w.handle(context.Background(), "{not json")

	if len(signing.jobs) != 0 {
		t.Errorf("jobs = %d, want 0", len(signing.jobs))
	}
}
