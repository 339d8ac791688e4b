package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const drainTimeout = 5 * time.Second

// GracefulShutdown waits for SIGINT or SIGTERM, then gives in-flight requests
// drainTimeout to finish. done is signalled once the server has stopped.
func GracefulShutdown(srv *http.Server, logger *zap.Logger, done chan<- bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("Shutting down gracefully, press Ctrl+C again to force")

	// A second signal now kills the process
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}

// Serve runs srv until it is shut down and then waits for GracefulShutdown to
// finish draining. A listener failure returns at once; nothing will signal done.
func Serve(srv *http.Server, logger *zap.Logger, done <-chan bool) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", zap.String("addr", srv.Addr), zap.Error(err))
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}
	<-done
	return nil
}
