package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/regsplit/internal/api"
	"github.com/dgallion1/regsplit/internal/config"
	"github.com/dgallion1/regsplit/internal/pdfdoc"
	"github.com/dgallion1/regsplit/internal/pipeline"
	"github.com/dgallion1/regsplit/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("load configuration", "error", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Error("open storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}

	opener := &pdfdoc.FitzOpener{
		Validate:     cfg.ValidatePDF,
		TextFallback: cfg.TextFallbackMuPDF,
		Log:          log,
	}

	// Initialize pipeline.
	runner := pipeline.NewRunner(cfg, opener, store, log)
	orch := pipeline.NewOrchestrator(cfg, runner, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		log.Error("listen", "addr", httpServer.Addr, "error", err)
		os.Exit(1)
	}

	log.Info("starting regsplit",
		"port", cfg.Port,
		"storage", cfg.StorageBackend,
		"marker_mode", cfg.MarkerMode,
		"dpi", cfg.RenderDPI,
	)
	err = serve(sigCtx, httpServer, ln, log, func() {
		orch.Stop()
		if err := closeStore(); err != nil {
			log.Warn("close storage", "error", err)
		}
	})
	if err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// serve runs srv on ln until ctx is done. It then drains in-flight requests
// and calls release, returning only after both have finished.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, log *slog.Logger, release func()) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		release()
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn("serve returned", "error", err)
	}

	// Queued and running jobs are cancelled only after HTTP is drained.
	release()
	return nil
}
