package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"heating_scheduler/internal/handlers"
	"heating_scheduler/internal/server"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the operator API and optionally run heaters periodically",
	Long:  `Starts the HTTP API (ledger, events, manual runs, metrics). When api.interval is set, heaters are reconciled on that interval until shutdown.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.services.SyncOperators(ctx, a.cfg.API.Operators); err != nil {
		return err
	}
	if len(a.cfg.API.Operators) == 0 {
		a.log.Warnw("no_operators_configured", "hint", "protected routes will reject every request")
	}

	if every := a.cfg.API.Interval; every > 0 {
		a.log.Infow("loop_started", "interval", every)
		go a.services.Loop.Run(ctx, every)
	}

	h := handlers.NewHandler(a.services, a.registry, a.log)
	srv := server.New(a.cfg.API.Port, h.InitRoutes())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()
	a.log.Infow("api_listening", "port", a.cfg.API.Port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Infow("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
