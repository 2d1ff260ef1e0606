// @title Hunt Answers API
// @version 1.0
// @description Answer submission, evaluation and results for the location hunt.

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"errors"
	"flag"
	"hunt_backend/internal/app"
	"hunt_backend/internal/config"
	"hunt_backend/pkg/logger"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configDir := flag.String("config", "configs", "directory containing config.yaml")
	migrateOnly := flag.Bool("migrate-only", false, "run database migrations and exit")
	sweepOnce := flag.Bool("sweep-once", false, "run one re-evaluation sweep and exit")
	flag.Parse()

	// .env is optional and only fills HUNT_* variables that are not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.MigrateOnly = *migrateOnly
	cfg.SweepOnce = *sweepOnce

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	if cfg.MigrateOnly {
		logger.Log.Info("Database migration finished")
		application.Close()
		return
	}

	if cfg.SweepOnce {
		report, err := application.RunSweepOnce(context.Background())
		if err != nil {
			logger.Log.Error("Sweep failed", zap.Error(err))
		} else {
			logger.Log.Info("Sweep finished",
				zap.Int("candidates", report.Candidates),
				zap.Int("evaluated", report.Evaluated),
				zap.Int("failed", report.Failed))
		}
		application.Close()
		if err != nil {
			os.Exit(1)
		}
		return
	}

	application.Run()
}
