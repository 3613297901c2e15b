package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPut(t *testing.T) {
	var (
		gotMethod      string
		gotContentType string
		gotBody        []byte
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u := NewHTTPUploader(5 * time.Second)

	err := u.Put(context.Background(), srv.URL, []byte("file bytes"), "image/png")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
	if gotContentType != "image/png" {
		t.Errorf("content type = %q, want image/png", gotContentType)
	}
	if string(gotBody) != "file bytes" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestPutRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("SignatureDoesNotMatch"))
	}))
	defer srv.Close()

	u := NewHTTPUploader(5 * time.Second)

	err := u.Put(context.Background(), srv.URL, []byte("x"), "image/png")
	if err == nil {
		t.Fatal("Put() expected error for 403")
	}
}

func TestPutContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	u := NewHTTPUploader(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := u.Put(ctx, srv.URL, []byte("x"), "image/png"); err == nil {
		t.Fatal("Put() expected error on cancelled context")
	}
}
