package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"creditrisk/config"
	qhttp "creditrisk/http"
	"creditrisk/inference"
	"creditrisk/logging"
	"creditrisk/monitoring"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// 2. Load artifacts; nothing is served if either is unusable
	metrics := monitoring.NewMetrics()
	service, err := inference.Load(cfg.Model,
		inference.WithLogger(logger.Named("inference")),
		inference.WithMetrics(metrics),
	)
	if err != nil {
		logger.Fatal("failed to load model artifacts", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Model.WatchArtifacts {
		watcher, err := inference.NewWatcher(service.Artifacts(), logger.Named("watcher"))
		if err != nil {
			logger.Fatal("failed to watch artifacts", zap.Error(err))
		}
		defer watcher.Close()
		go watcher.Run(ctx)
	}

	// 3. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.HTTP.Port,
		Timeout:        cfg.HTTP.Timeout,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
	}, service, metrics, logger.Named("http"))
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 4. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
}
