// Package app wires and runs the three pipeline processes: the HTTP API, the
// signing worker and the thumbnail worker.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/civic-os/file-pipeline/config"
	"github.com/civic-os/file-pipeline/internal/controller/restapi"
	"github.com/civic-os/file-pipeline/internal/infrastructure/transport"
	"github.com/civic-os/file-pipeline/internal/repo/persistent"
	"github.com/civic-os/file-pipeline/internal/usecase/upload"
	"github.com/civic-os/file-pipeline/pkg/httpserver"
	"github.com/civic-os/file-pipeline/pkg/logger"
	"github.com/civic-os/file-pipeline/pkg/postgres"
	"github.com/civic-os/file-pipeline/pkg/s3client"
)

func RunAPI(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository

	// s3
	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
	defer s3Cancel()
	s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey,
		s3client.Region(cfg.S3.Region),
	)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunAPI - s3client.New: %w", err))
	}

	// postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunAPI - postgres.New: %w", err))
	}
	defer pg.Close()

	// Use-Case
	uploadUseCase := upload.New(
		persistent.NewUploadRequestRepo(pg),
		persistent.NewFileRecordRepo(pg),
		persistent.NewObjectRepo(s3c, cfg.S3.Bucket),
		pg,
		transport.NewHTTPUploader(cfg.Upload.PutTimeout),
		l,
		upload.PollPolicy{
			SignInterval:  cfg.Upload.SignPollInterval,
			SignAttempts:  cfg.Upload.SignPollAttempts,
			ThumbInterval: cfg.Upload.ThumbPollInterval,
			ThumbAttempts: cfg.Upload.ThumbPollAttempts,
		},
	)

	// HTTP Server
	httpServer := httpserver.New(l,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.Prefork(cfg.HTTP.UsePreforkMode),
		httpserver.ShutdownTimeout(cfg.HTTP.ShutdownWait),
	)
	restapi.NewRouter(httpServer.App, cfg, uploadUseCase, l)

	// Start Components
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - RunAPI - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - RunAPI - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - RunAPI - httpServer.Shutdown: %w", err))
	}
}
