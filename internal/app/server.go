package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start launches the HTTP server and returns a channel closed on the first
// termination signal. A second signal exits without draining.
func (a *App) Start() <-chan struct{} {
	terminate := make(chan struct{})

	slog.Info("otphub starting",
		"otp_enabled", a.config.GetBool("modules.otp.enabled"),
		"notification_enabled", a.config.GetBool("modules.notification.enabled"),
		"messaging_driver", a.config.GetString("messaging.driver"),
		"hash_algorithm", a.config.GetString("hash.algorithm"),
	)

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)

		if err := a.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen and serve http server", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		sig := make(chan os.Signal, 2)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

		s := <-sig
		slog.Info("shutdown requested", "signal", s.String())
		close(terminate)

		s = <-sig
		slog.Error("shutdown forced before draining finished", "signal", s.String())
		os.Exit(1)
	}()

	return terminate
}

// Stop drains the service in dependency order. The sweep ticker and queue
// subscriptions stop first, then HTTP, then the in-flight sweeps and
// deliveries, and only then the connections they were using.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	slog.InfoContext(ctx, "waiting for in-flight background work")
	if err := a.waitBackground(ctx); err != nil {
		slog.ErrorContext(ctx, "background work did not finish cleanly", "error", err)
	}

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application gracefully shutdown")
}

// waitBackground waits for the goroutine manager but gives up at the
// shutdown deadline so a stuck store call cannot hold the process.
func (a *App) waitBackground(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- a.goroutine.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("gave up waiting: %w", ctx.Err())
	}
}
