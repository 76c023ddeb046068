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

	"github.com/dgallion1/docnest/internal/api"
	"github.com/dgallion1/docnest/internal/config"
	"github.com/dgallion1/docnest/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch := pipeline.NewOrchestrator(cfg, log)
	orch.Start(context.Background())

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewServer(orch, log, cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		log.Error("listen", "addr", httpServer.Addr, "error", err)
		orch.Stop()
		os.Exit(1)
	}

	log.Info("starting docnest",
		"port", cfg.Port,
		"workers", cfg.WorkerCount,
		"warn_malformed_head", cfg.WarnMalformedHead,
	)
	if err := run(ctx, log, httpServer, ln, orch, 10*time.Second); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// run serves on ln until ctx is done or serving fails, then drains HTTP
// connections and stops the worker pool. It returns only after the workers
// have exited.
func run(ctx context.Context, log *slog.Logger, srv *http.Server, ln net.Listener, orch *pipeline.Orchestrator, timeout time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	var err error
	select {
	case <-ctx.Done():
		log.Info("shutting down...")
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.Error("http shutdown", "error", serr)
	}
	orch.Stop()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
