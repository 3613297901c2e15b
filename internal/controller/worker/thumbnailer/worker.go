// Package thumbnailer is the worker that renders thumbnails. It is woken by
// notifications and backstopped by a periodic backlog sweep, so records
// created while the worker was down still get processed.
package thumbnailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/civic-os/file-pipeline/internal/usecase"
	"github.com/civic-os/file-pipeline/pkg/logger"
	"github.com/civic-os/file-pipeline/pkg/pglisten"
)

const _listenRetryDelay = time.Second

// payload mirrors the JSON published on the file-record channel.
type payload struct {
	ID uuid.UUID `json:"id"`
}

type Worker struct {
	thumbnails usecase.ThumbnailUseCase
	listener   *pglisten.Listener
	l          logger.Interface

	processTimeout time.Duration
	sweepInterval  time.Duration

	started atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(
	thumbnails usecase.ThumbnailUseCase,
	listener *pglisten.Listener,
	l logger.Interface,
	processTimeout, sweepInterval time.Duration,
) *Worker {
	return &Worker{
		thumbnails:     thumbnails,
		listener:       listener,
		l:              l,
		processTimeout: processTimeout,
		sweepInterval:  sweepInterval,
	}
}

func (w *Worker) Start() {
	if !w.started.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(2)
	go w.runListener(ctx)
	go w.runSweeper(ctx)
}

// runListener drains the startup backlog first. Notifications arriving during
// the drain queue on the dedicated connection, so nothing slips between the
// two phases.
func (w *Worker) runListener(ctx context.Context) {
	defer w.wg.Done()

	w.sweep(ctx)

	for {
		n, err := w.listener.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}

			w.l.Error(err, "thumbnailer - notification wait failed")
			time.Sleep(_listenRetryDelay)

			continue
		}

		var p payload
		if err := json.Unmarshal([]byte(n.Payload), &p); err != nil {
			w.l.Error(err, "thumbnailer - malformed notification payload")

			continue
		}

		w.process(ctx, p.ID)
	}
}

func (w *Worker) runSweeper(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	ids, err := w.thumbnails.Backlog(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.l.Error(err, "thumbnailer - backlog scan failed")
		}

		return
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}

		w.process(ctx, id)
	}
}

func (w *Worker) process(ctx context.Context, id uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			w.l.Error(fmt.Errorf("thumbnailer - panic recovered: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, w.processTimeout)
	defer cancel()

	if err := w.thumbnails.ProcessFile(ctx, id); err != nil {
		w.l.Error(err, "thumbnailer - file %s failed", id)
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
		return fmt.Errorf("ThumbnailerWorker - Shutdown: %w", ctx.Err())
	}

	return w.listener.Close(ctx)
}
