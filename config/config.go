package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP        HTTP
		Log         Log
		PG          PG
		S3          S3
		Kafka       Kafka
		Signer      Signer
		Thumbnailer Thumbnailer
		Upload      Upload
		Swagger     Swagger
	}

	HTTP struct {
		Port           string        `env:"HTTP_PORT" envDefault:"8080"`
		UsePreforkMode bool          `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
		ShutdownWait   time.Duration `env:"HTTP_SHUTDOWN_WAIT" envDefault:"5s"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}

	PG struct {
		PoolMax int    `env:"PG_POOL_MAX" envDefault:"10"`
		URL     string `env:"PG_URL,required"`
	}

	S3 struct {
		Endpoint string `env:"S3_ENDPOINT,required"`
		// PublicEndpoint is what presigned URLs are minted against; it must
		// be reachable from the end user's client. Falls back to Endpoint.
		PublicEndpoint string        `env:"S3_PUBLIC_ENDPOINT"`
		AccessKey      string        `env:"S3_ACCESS_KEY,required"`
		SecretKey      string        `env:"S3_SECRET_KEY,required"`
		Bucket         string        `env:"S3_BUCKET,required"`
		Region         string        `env:"S3_REGION" envDefault:"us-east-1"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Kafka struct {
		Enabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
		Brokers []string `env:"KAFKA_BROKERS"`
		Topic   string   `env:"KAFKA_TOPIC" envDefault:"file.thumbnails"`
	}

	Signer struct {
		URLTTL          time.Duration `env:"SIGNER_URL_TTL" envDefault:"1h"`
		ProcessTimeout  time.Duration `env:"SIGNER_PROCESS_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout time.Duration `env:"SIGNER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	}

	Thumbnailer struct {
		ProcessTimeout  time.Duration `env:"THUMBNAILER_PROCESS_TIMEOUT" envDefault:"60s"`
		RetryCooldown   time.Duration `env:"THUMBNAILER_RETRY_COOLDOWN" envDefault:"1h"`
		BacklogLimit    int           `env:"THUMBNAILER_BACKLOG_LIMIT" envDefault:"100"`
		SweepInterval   time.Duration `env:"THUMBNAILER_SWEEP_INTERVAL" envDefault:"5m"`
		PdftoppmBin     string        `env:"THUMBNAILER_PDFTOPPM_BIN" envDefault:"pdftoppm"`
		ShutdownTimeout time.Duration `env:"THUMBNAILER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	}

	Upload struct {
		SignPollInterval  time.Duration `env:"UPLOAD_SIGN_POLL_INTERVAL" envDefault:"500ms"`
		SignPollAttempts  int           `env:"UPLOAD_SIGN_POLL_ATTEMPTS" envDefault:"20"`
		ThumbPollInterval time.Duration `env:"UPLOAD_THUMB_POLL_INTERVAL" envDefault:"1s"`
		ThumbPollAttempts int           `env:"UPLOAD_THUMB_POLL_ATTEMPTS" envDefault:"120"`
		PutTimeout        time.Duration `env:"UPLOAD_PUT_TIMEOUT" envDefault:"60s"`
		AllowedTypes      []string      `env:"UPLOAD_ALLOWED_TYPES" envSeparator:","`
		MaxSizeBytes      int64         `env:"UPLOAD_MAX_SIZE_BYTES" envDefault:"0"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
