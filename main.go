package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/FACorreiaa/medilive-templui/internal/pkg/config"
	"github.com/FACorreiaa/medilive-templui/internal/pkg/logger"
	"github.com/FACorreiaa/medilive-templui/internal/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize logger
	if err := logger.Init(logger.ParseLevel(cfg.LogLevel), zap.String("service", cfg.Observability.ServiceName)); err != nil {
		return err
	}
	log := logger.Log
	defer func() { _ = log.Sync() }()

	// Initialize observability
	otelShutdown, err := server.InitObservability(cfg.Observability, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			log.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	srv, err := server.New(cfg, log)
	if err != nil {
		return err
	}
	defer srv.Close()

	router := server.SetupRouter(cfg, srv.GetAPIClient(), srv.GetCaches(), log)

	if err := server.SetupAssets(router); err != nil {
		log.Error("Failed to setup assets", zap.Error(err))
		return err
	}

	srv.SetRouter(router)

	// pprof stays on its own port, never the public one
	server.StartPprofServer(cfg.Observability.PprofAddr, log)

	httpServer := srv.HTTPServer()

	done := make(chan bool, 1)
	go server.GracefulShutdown(httpServer, log, done)

	log.Info("Server starting",
		zap.String("port", cfg.ServerPort),
		zap.String("env", cfg.Env),
		zap.String("api", cfg.API.BaseURL))
	if err := server.Serve(httpServer, log, done); err != nil {
		return err
	}
	log.Info("Graceful shutdown complete")

	return nil
}
