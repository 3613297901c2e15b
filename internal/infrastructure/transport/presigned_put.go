// Package transport carries file bytes over the presigned-URL hop.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

type HTTPUploader struct {
	client *http.Client
}

func NewHTTPUploader(timeout time.Duration) *HTTPUploader {
	return &HTTPUploader{
		client: &http.Client{Timeout: timeout},
	}
}

// Put sends the file bytes to the presigned URL. Content-Type must match the
// value the URL was signed for or the store rejects the request.
func (u *HTTPUploader) Put(ctx context.Context, url string, data []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("HTTPUploader - Put - http.NewRequestWithContext: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTPUploader - Put - u.client.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return fmt.Errorf("HTTPUploader - Put - unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
