package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/civic-os/file-pipeline/config"
	thumbctrl "github.com/civic-os/file-pipeline/internal/controller/worker/thumbnailer"
	"github.com/civic-os/file-pipeline/internal/infrastructure"
	infrakafka "github.com/civic-os/file-pipeline/internal/infrastructure/kafka"
	"github.com/civic-os/file-pipeline/internal/infrastructure/processor"
	"github.com/civic-os/file-pipeline/internal/infrastructure/rasterizer"
	"github.com/civic-os/file-pipeline/internal/repo/persistent"
	"github.com/civic-os/file-pipeline/internal/usecase/thumbnail"
	"github.com/civic-os/file-pipeline/pkg/kafka/producer"
	"github.com/civic-os/file-pipeline/pkg/logger"
	"github.com/civic-os/file-pipeline/pkg/pglisten"
	"github.com/civic-os/file-pipeline/pkg/postgres"
	"github.com/civic-os/file-pipeline/pkg/s3client"
)

func RunThumbnailer(cfg *config.Config) {
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
		l.Fatal(fmt.Errorf("app - RunThumbnailer - s3client.New: %w", err))
	}

	// postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunThumbnailer - postgres.New: %w", err))
	}
	defer pg.Close()

	// listener
	listener, err := pglisten.New(ctx, cfg.PG.URL, []string{persistent.FileRecordChannel})
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunThumbnailer - pglisten.New: %w", err))
	}

	// Events
	var events infrastructure.EventsSender = infrakafka.NopSender{}
	if cfg.Kafka.Enabled {
		kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
		if err != nil {
			l.Fatal(fmt.Errorf("app - RunThumbnailer - producer.New: %w", err))
		}

		events = infrakafka.NewEventProducer(kafkaProducer, cfg.Kafka.Topic)
	}
	defer func() {
		if err := events.Close(); err != nil {
			l.Error(fmt.Errorf("app - RunThumbnailer - events.Close: %w", err))
		}
	}()

	// Use-Case
	thumbnailUseCase := thumbnail.New(
		persistent.NewFileRecordRepo(pg),
		persistent.NewObjectRepo(s3c, cfg.S3.Bucket),
		processor.New(),
		rasterizer.New(cfg.Thumbnailer.PdftoppmBin),
		events,
		l,
		cfg.Thumbnailer.RetryCooldown,
		cfg.Thumbnailer.BacklogLimit,
	)

	// Worker
	worker := thumbctrl.New(
		thumbnailUseCase,
		listener,
		l,
		cfg.Thumbnailer.ProcessTimeout,
		cfg.Thumbnailer.SweepInterval,
	)

	// Start Components
	worker.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	s := <-interrupt
	l.Info("app - RunThumbnailer - signal: %s", s.String())

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Thumbnailer.ShutdownTimeout)
	defer shutdownCancel()
	err = worker.Shutdown(shutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - RunThumbnailer - worker.Shutdown: %w", err))
	}
}
