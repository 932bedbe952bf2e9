package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/dayplan/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct{}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	interval, err := cfg.Rollover.ParsedInterval()
	if err != nil {
		return err
	}

	p, registry, err := root.openPlanner(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	opts := daemon.Options{
		ConfigPath:       root.Config,
		RolloverInterval: interval,
	}
	if cfg.Metrics.Enabled {
		opts.MetricsAddr = cfg.Metrics.Addr
		opts.MetricsRegistry = registry
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dm, err := daemon.New(p, opts)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}
	if err := dm.Start(ctx); err != nil {
		return fmt.Errorf("daemon error: %w", err)
	}

	slog.Info("Daemon started, waiting for shutdown signal...")
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping daemon...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	return dm.Stop(stopCtx)
}
