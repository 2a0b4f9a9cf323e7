package main

import (
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/oplogtools/logquery/internal/app"
	"github.com/oplogtools/logquery/internal/config"
	"github.com/oplogtools/logquery/internal/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the query configuration file")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	dev := flag.Bool("dev", false, "Use human-readable console log output")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *dev {
		cfg.Logging.Development = true
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		os.Exit(1)
	}

	if err := a.Run(); err != nil {
		logger.Error("run finished with errors", zap.Error(err))
		os.Exit(1)
	}
}
