package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/dayplan/internal/config"
	"git.home.luguber.info/inful/dayplan/internal/eventbus"
	"git.home.luguber.info/inful/dayplan/internal/metrics"
	"git.home.luguber.info/inful/dayplan/internal/planner"
	"git.home.luguber.info/inful/dayplan/internal/store"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"dayplan.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init       InitCmd       `cmd:"" help:"Initialize a new configuration file"`
	Add        AddCmd        `cmd:"" help:"Add a new task"`
	Agenda     AgendaCmd     `cmd:"" help:"Show the agenda for the coming days"`
	Complete   CompleteCmd   `cmd:"" help:"Mark a task or occurrence as done"`
	Uncomplete UncompleteCmd `cmd:"" help:"Undo a completion"`
	Delete     DeleteCmd     `cmd:"" help:"Delete a task or skip one occurrence"`
	Detach     DetachCmd     `cmd:"" help:"Break an occurrence out of its series"`
	Subtask    SubtaskCmd    `cmd:"" help:"Toggle a subtask on a task or occurrence"`
	Progress   ProgressCmd   `cmd:"" help:"Record progress on a task or occurrence"`
	Rollover   RolloverCmd   `cmd:"" help:"Roll overdue tasks forward to today"`
	Daemon     DaemonCmd     `cmd:"" help:"Run unattended with periodic rollover"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads the config file. A missing file at the default
// location falls back to built-in defaults; an explicitly named file
// must exist.
func (c *CLI) loadConfig() (*config.Config, error) {
	if _, err := os.Stat(c.Config); os.IsNotExist(err) {
		if c.Config == "dayplan.yaml" {
			return config.Default(), nil
		}
	}
	return config.Load(c.Config)
}

// withPlanner opens the configured planner, runs fn, and closes it.
func (c *CLI) withPlanner(fn func(context.Context, *planner.Planner) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	p, _, err := c.openPlanner(cfg)
	if err != nil {
		return err
	}
	defer p.Close()
	return fn(context.Background(), p)
}

// openPlanner builds the planner over the configured store. The caller
// owns the returned planner and must Close it. The returned registry
// is non-nil when metrics are enabled; the daemon serves it.
func (c *CLI) openPlanner(cfg *config.Config) (*planner.Planner, *prom.Registry, error) {
	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}

	opts := []planner.Option{
		planner.WithLookbackDays(cfg.Rollover.LookbackDays),
		planner.WithBufferDays(cfg.Projection.BufferDays),
	}
	var registry *prom.Registry
	if cfg.Metrics.Enabled {
		registry = prom.NewRegistry()
		rec := metrics.NewPrometheusRecorder(registry)
		st.SetMetrics(rec)
		opts = append(opts, planner.WithMetrics(rec))
	}
	if cfg.Events.Enabled {
		bus, err := eventbus.NewNATSPublisher(context.Background(), eventbus.Options{
			URL:           cfg.Events.NATSURL,
			SubjectPrefix: cfg.Events.SubjectPrefix,
			Stream:        cfg.Events.Stream,
		})
		if err != nil {
			slog.Warn("Event publishing disabled", slog.String("error", err.Error()))
		} else {
			opts = append(opts, planner.WithEventBus(bus))
		}
	}
	return planner.New(st, opts...), registry, nil
}
