package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Timeouts shared by the API and metrics listeners. Batch decrypts are bounded by
// BATCH_TIMEOUT_SECONDS well below the write timeout.
const (
	readTimeout  = 15 * time.Second
	writeTimeout = 15 * time.Second
	idleTimeout  = 60 * time.Second
)

func newHTTPServer(host string, port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// listen serves srv until it is shut down. A clean shutdown returns nil.
func listen(srv *http.Server, name string, logger *slog.Logger) error {
	logger.Info("starting "+name, slog.String("addr", srv.Addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}

func shutdown(ctx context.Context, srv *http.Server, name string, logger *slog.Logger) error {
	logger.Info("shutting down " + name)
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down %s: %w", name, err)
	}
	return nil
}
