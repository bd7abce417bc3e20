package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpserver "github.com/fyrsmithlabs/agentmesh/internal/http"
)

func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversation HTTP API",
		Long: `Serve the conversation HTTP API until interrupted.

Endpoints:
  POST   /api/v1/conversations
  GET    /api/v1/conversations
  POST   /api/v1/conversations/:id/messages
  GET    /api/v1/conversations/:id/messages
  GET    /api/v1/conversations/:id/events   (when NATS notifications are enabled)
  DELETE /api/v1/conversations/:id
  GET    /health
  GET    /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// No terminal to render progress on.
			a, err := newApp(ctx, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			return serve(ctx, a)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down
// within the configured timeout.
func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	srv, err := httpserver.NewServer(a.services.Assistant(), a.logger, &httpserver.Config{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		TurnTimeout:   cfg.Server.TurnTimeout.Duration(),
		Events:        a.nc,
		SubjectPrefix: cfg.Notifications.NATS.SubjectPrefix,
		Meter:         a.telemetry.Meter("github.com/fyrsmithlabs/agentmesh/internal/http"),
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	a.logger.Info(ctx, "starting agentmesh",
		zap.String("version", version),
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()),
		zap.Bool("events", a.nc != nil),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info(context.Background(), "server shutdown complete")
	return nil
}
