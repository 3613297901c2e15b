// Package signer is the notification-driven worker that resolves upload
// requests into presigned URLs.
package signer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/civic-os/file-pipeline/internal/dto"
	"github.com/civic-os/file-pipeline/internal/usecase"
	"github.com/civic-os/file-pipeline/pkg/logger"
	"github.com/civic-os/file-pipeline/pkg/pglisten"
)

const _listenRetryDelay = time.Second

// payload mirrors the JSON published on the upload-request channel.
type payload struct {
	ID          uuid.UUID `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	EntityType  string    `json:"entity_type"`
	EntityID    string    `json:"entity_id"`
}

type Worker struct {
	signing  usecase.SigningUseCase
	listener *pglisten.Listener
	l        logger.Interface

	processTimeout time.Duration

	started atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(signing usecase.SigningUseCase, listener *pglisten.Listener, l logger.Interface, processTimeout time.Duration) *Worker {
	return &Worker{
		signing:        signing,
		listener:       listener,
		l:              l,
		processTimeout: processTimeout,
	}
}

func (w *Worker) Start() {
	if !w.started.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go w.run(ctx)
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		n, err := w.listener.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}

			w.l.Error(err, "signer - notification wait failed")
			time.Sleep(_listenRetryDelay)

			continue
		}

		w.handle(ctx, n.Payload)
	}
}

func (w *Worker) handle(ctx context.Context, raw string) {
	defer func() {
		if r := recover(); r != nil {
			w.l.Error(fmt.Errorf("signer - panic recovered: %v", r))
		}
	}()

	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		w.l.Error(err, "signer - malformed notification payload")

		return
	}

	ctx, cancel := context.WithTimeout(ctx, w.processTimeout)
	defer cancel()

	job := dto.SigningJob{
		RequestID:   p.ID,
		FileName:    p.FileName,
		ContentType: p.ContentType,
		EntityType:  p.EntityType,
		EntityID:    p.EntityID,
	}

	if err := w.signing.ProcessRequest(ctx, job); err != nil {
		w.l.Error(err, "signer - request %s failed", p.ID)
	}
}

func (w *Worker) Shutdown(ctx context.Context) error {
	if !w.started.Load() {
		return nil
	}

	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("SignerWorker - Shutdown: %w", ctx.Err())
	}

	return w.listener.Close(ctx)
}
