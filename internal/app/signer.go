package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/civic-os/file-pipeline/config"
	signerctrl "github.com/civic-os/file-pipeline/internal/controller/worker/signer"
	"github.com/civic-os/file-pipeline/internal/repo/persistent"
	"github.com/civic-os/file-pipeline/internal/usecase/signing"
	"github.com/civic-os/file-pipeline/pkg/logger"
	"github.com/civic-os/file-pipeline/pkg/pglisten"
	"github.com/civic-os/file-pipeline/pkg/postgres"
	"github.com/civic-os/file-pipeline/pkg/s3client"
)

func RunSigner(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository

	// s3, built against the public endpoint so presigned URLs are reachable
	// from the client side. The endpoint may not answer from here, so the
	// connect ping is skipped.
	endpoint := cfg.S3.PublicEndpoint
	if endpoint == "" {
		endpoint = cfg.S3.Endpoint
	}

	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
	defer s3Cancel()
	s3c, err := s3client.New(s3Ctx, endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey,
		s3client.Region(cfg.S3.Region),
		s3client.SkipPing(true),
	)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunSigner - s3client.New: %w", err))
	}

	// postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunSigner - postgres.New: %w", err))
	}
	defer pg.Close()

	// listener
	listener, err := pglisten.New(ctx, cfg.PG.URL, []string{persistent.UploadRequestChannel})
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunSigner - pglisten.New: %w", err))
	}

	// Use-Case
	signingUseCase := signing.New(
		persistent.NewUploadRequestRepo(pg),
		persistent.NewObjectRepo(s3c, cfg.S3.Bucket),
		l,
		cfg.Signer.URLTTL,
	)

	// Worker
	worker := signerctrl.New(signingUseCase, listener, l, cfg.Signer.ProcessTimeout)

	// Start Components
	worker.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	s := <-interrupt
	l.Info("app - RunSigner - signal: %s", s.String())

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Signer.ShutdownTimeout)
	defer shutdownCancel()
	err = worker.Shutdown(shutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - RunSigner - worker.Shutdown: %w", err))
	}
}
