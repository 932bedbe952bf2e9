// Package daemon runs the planner unattended: a periodic rollover
// job, an optional metrics/health HTTP endpoint, and a config watcher
// that applies tuning changes without a restart.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/dayplan/internal/config"
	"git.home.luguber.info/inful/dayplan/internal/logfields"
	"git.home.luguber.info/inful/dayplan/internal/planner"
)

// Daemon owns the background jobs around one Planner.
type Daemon struct {
	planner   *planner.Planner
	scheduler gocron.Scheduler
	watcher   *ConfigWatcher
	http      *HTTPServer

	mu       sync.Mutex
	interval time.Duration
	job      gocron.Job
	running  bool
}

// Options configures a Daemon.
type Options struct {
	// ConfigPath enables hot reload when non-empty.
	ConfigPath string
	// RolloverInterval is the period between rollover passes.
	RolloverInterval time.Duration
	// MetricsAddr serves /metrics and /healthz when non-empty.
	MetricsAddr string
	// MetricsRegistry backs /metrics so recorders registered by the
	// planner show up on the same endpoint. Optional.
	MetricsRegistry *prom.Registry
}

// New creates a Daemon around the given planner.
func New(p *planner.Planner, opts Options) (*Daemon, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	d := &Daemon{
		planner:   p,
		scheduler: s,
		interval:  opts.RolloverInterval,
	}
	if d.interval <= 0 {
		d.interval = 15 * time.Minute
	}
	if opts.MetricsAddr != "" {
		d.http = NewHTTPServer(opts.MetricsAddr, opts.MetricsRegistry, d)
	}
	if opts.ConfigPath != "" {
		w, err := NewConfigWatcher(opts.ConfigPath, d)
		if err != nil {
			return nil, err
		}
		d.watcher = w
	}
	return d, nil
}

// Start launches the rollover schedule and auxiliary servers. It runs
// one rollover pass immediately so a freshly started daemon catches up
// before the first tick.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon already running")
	}
	d.running = true
	d.mu.Unlock()

	if err := d.scheduleRollover(d.interval); err != nil {
		return err
	}
	d.scheduler.Start()
	slog.Info("Daemon started", slog.Duration("rollover_interval", d.interval))

	if d.http != nil {
		d.http.Start()
	}
	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			return err
		}
	}

	d.runRollover(ctx)
	return nil
}

// Stop shuts everything down, waiting for in-flight work.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return nil
	}
	d.running = false

	slog.Info("Stopping daemon")
	if d.watcher != nil {
		if err := d.watcher.Stop(ctx); err != nil {
			slog.Warn("Failed to stop config watcher", logfields.Error(err))
		}
	}
	if d.http != nil {
		if err := d.http.Stop(ctx); err != nil {
			slog.Warn("Failed to stop metrics server", logfields.Error(err))
		}
	}
	if err := d.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	return nil
}

func (d *Daemon) scheduleRollover(interval time.Duration) error {
	job, err := d.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(d.runRollover, context.Background()),
		gocron.WithName("rollover"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule rollover job: %w", err)
	}
	d.job = job
	return nil
}

func (d *Daemon) runRollover(ctx context.Context) {
	updates, creations, err := d.planner.Rollover(ctx)
	if err != nil {
		slog.Error("Rollover pass failed", logfields.Error(err))
		return
	}
	if updates == 0 && creations == 0 {
		slog.Debug("Rollover pass made no changes")
		return
	}
	slog.Info("Rollover pass finished",
		slog.Int("updates", updates),
		slog.Int("creations", creations))
}

// applyConfig retunes the daemon from a freshly loaded config. Only
// the rollover interval is hot-swappable; store path and listen
// address changes need a restart.
func (d *Daemon) applyConfig(cfg *config.Config) error {
	interval, err := cfg.Rollover.ParsedInterval()
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if interval == d.interval {
		return nil
	}

	if d.job != nil {
		if err := d.scheduler.RemoveJob(d.job.ID()); err != nil {
			slog.Warn("Failed to remove old rollover job", logfields.Error(err))
		}
	}
	if err := d.scheduleRollover(interval); err != nil {
		return err
	}
	slog.Info("Rollover interval updated",
		slog.Duration("old", d.interval),
		slog.Duration("new", interval))
	d.interval = interval
	return nil
}
