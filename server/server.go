// server/server.go

// Package server runs the dev HTTP server with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dalemusser/termsite/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// WithShutdownSignals returns a context canceled on SIGINT or SIGTERM.
// The returned cancel function also stops the signal delivery.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		if parent.Err() == nil {
			logger.Info("shutdown signal received")
		}
	}()
	return ctx, stop
}

// ListenAndServeWithContext listens on cfg.HTTPPort and serves handler until
// ctx is canceled, then shuts down within cfg.ShutdownTimeout.
func ListenAndServeWithContext(ctx context.Context, cfg config.HTTPConfig, handler http.Handler, logger *zap.Logger) error {
	addr := ":" + strconv.Itoa(cfg.HTTPPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", addr, err)
	}
	return Serve(ctx, ln, cfg.ShutdownTimeout, handler, logger)
}

// Serve serves handler on ln until ctx is canceled or the server fails.
// It owns ln and closes it on return.
func Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration, handler http.Handler, logger *zap.Logger) error {
	if handler == nil {
		_ = ln.Close()
		return errors.New("serve: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	if stdlog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = stdlog
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	logger.Info("HTTP server listening", zap.String("addr", "http://"+ln.Addr().String()))

	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("server shutdown: %w", err)
		}
		logger.Info("server stopped gracefully")
		return nil

	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}
