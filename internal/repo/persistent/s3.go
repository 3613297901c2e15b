package persistent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/civic-os/file-pipeline/pkg/s3client"
)

type ObjectRepo struct {
	client *s3client.S3Client
	bucket string
}

func NewObjectRepo(client *s3client.S3Client, bucket string) *ObjectRepo {
	return &ObjectRepo{
		client: client,
		bucket: bucket,
	}
}

func (r *ObjectRepo) Upload(ctx context.Context, key string, data []byte, contentType, cacheControl string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	if cacheControl != "" {
		input.CacheControl = aws.String(cacheControl)
	}

	_, err := r.client.Client.PutObject(ctx, input)
	if err != nil {
		return fmt.Errorf("ObjectRepo - Upload - r.client.Client.PutObject: %w", err)
	}

	return nil
}

func (r *ObjectRepo) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := r.client.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("ObjectRepo - Download - r.client.Client.GetObject: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("ObjectRepo - Download - io.ReadAll: %w", err)
	}

	return data, nil
}

func (r *ObjectRepo) Delete(ctx context.Context, key string) error {
	_, err := r.client.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("ObjectRepo - Delete - r.client.Client.DeleteObject: %w", err)
	}

	return nil
}

// PresignPut mints a URL the end user's client PUTs the file bytes to. The
// signature covers the Content-Type header, so the client must send the same
// value it declared when requesting the upload.
func (r *ObjectRepo) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	req, err := r.client.Presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("ObjectRepo - PresignPut - r.client.Presign.PresignPutObject: %w", err)
	}

	return req.URL, nil
}
