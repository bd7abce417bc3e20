package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agentmesh/internal/config"
	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"github.com/fyrsmithlabs/agentmesh/internal/progress"
	"github.com/fyrsmithlabs/agentmesh/internal/services"
	"github.com/fyrsmithlabs/agentmesh/internal/telemetry"
)

// app holds the process-wide dependencies of a command.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	nc        *nats.Conn
	services  services.Registry
}

// newApp loads configuration and builds the service graph. console receives
// progress output when console notifications are enabled; nil disables it.
func newApp(ctx context.Context, console io.Writer) (*app, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, err
	}

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Observability))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logger, err := initLogger(cfg, tel)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, telemetry: tel}

	if cfg.Notifications.NATS.Enabled {
		nc, err := nats.Connect(cfg.Notifications.NATS.URL, nats.Name("agentmesh"))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		a.nc = nc
	}

	if quiet {
		console = nil
	}
	reg, err := services.NewRegistry(cfg, services.Options{
		Logger:   logger,
		Notifier: progress.FromConfig(cfg.Notifications, console, a.nc, logger),
		Meter:    tel.Meter("github.com/fyrsmithlabs/agentmesh"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.services = reg

	logger.Debug(ctx, "agentmesh initialized",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.Bool("nats_connected", a.nc != nil),
		zap.Bool("telemetry", tel.IsEnabled()),
	)
	return a, nil
}

func initLogger(cfg *config.Config, tel *telemetry.Telemetry) (*logging.Logger, error) {
	lcfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return nil, err
	}
	if cfg.Logging.OTEL {
		return logging.NewLogger(lcfg, tel.LoggerProvider())
	}
	return logging.NewLogger(lcfg, nil)
}

// Close releases all infrastructure resources.
func (a *app) Close() {
	if a.nc != nil {
		_ = a.nc.Drain()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.telemetry != nil {
		_ = a.telemetry.Shutdown(ctx)
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
