package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/medilive-templui/internal/app/client"
	"github.com/FACorreiaa/medilive-templui/internal/pkg/cache"
	"github.com/FACorreiaa/medilive-templui/internal/pkg/config"
)

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	api    *client.Client
	caches *cache.CacheManager
	router http.Handler
}

// New creates a new Server instance with all dependencies
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		api:    client.New(cfg.API.BaseURL, cfg.API.Timeout, logger),
		caches: cache.NewCacheManager(cfg.DirectoryCacheTTL, logger),
	}

	logger.Info("Backend API configured",
		zap.String("base_url", cfg.API.BaseURL),
		zap.Duration("timeout", cfg.API.Timeout),
	)

	return s, nil
}

// HTTPServer creates and configures the HTTP server
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         ":" + s.cfg.ServerPort,
		Handler:      s.router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// SetRouter sets the HTTP router/handler
func (s *Server) SetRouter(router http.Handler) {
	s.router = router
}

// GetAPIClient returns the backend API client
func (s *Server) GetAPIClient() *client.Client {
	return s.api
}

// GetCaches returns the application caches
func (s *Server) GetCaches() *cache.CacheManager {
	return s.caches
}

// GetLogger returns the logger instance
func (s *Server) GetLogger() *zap.Logger {
	return s.logger
}

// GetConfig returns the configuration
func (s *Server) GetConfig() *config.Config {
	return s.cfg
}

// Close releases server resources
func (s *Server) Close() {
	for name, m := range s.caches.GetAllMetrics() {
		s.logger.Info("Cache stats",
			zap.String("cache", name),
			zap.Int64("hits", m.Hits),
			zap.Int64("misses", m.Misses),
			zap.Int64("sets", m.Sets),
		)
	}
	s.caches.ClearAll()
}
