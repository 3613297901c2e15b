package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/civic-os/file-pipeline/config"
	"github.com/civic-os/file-pipeline/internal/app"
)

func main() {
	// Config
	if _, err := os.Stat(".env"); err == nil {
		err = godotenv.Load()
		if err != nil {
			log.Fatalf("config error: %s", err)
		}
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	// Run
	app.RunThumbnailer(cfg)
}
