package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/dayplan/internal/agenda"
	"git.home.luguber.info/inful/dayplan/internal/clock"
	"git.home.luguber.info/inful/dayplan/internal/task"
)

// AgendaCmd implements the 'agenda' command.
type AgendaCmd struct {
	From    string `short:"f" help:"Start date (YYYY-MM-DD), defaults to today"`
	Days    int    `short:"d" help:"Number of days to show (default from config)"`
	Overdue bool   `help:"Surface incomplete past tasks on today"`
	HTML    bool   `help:"Render HTML instead of plain text"`
}

func (a *AgendaCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	p, _, err := root.openPlanner(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	start := a.From
	if start == "" {
		start = clock.System{}.Today()
	}
	days := a.Days
	if days <= 0 {
		days = cfg.Projection.DefaultDays
	}

	ctx := context.Background()
	var occs []task.Occurrence
	if a.Overdue {
		occs, err = p.AgendaWithOverdue(ctx, start, days)
	} else {
		occs, err = p.Agenda(ctx, start, days)
	}
	if err != nil {
		return err
	}

	if a.HTML {
		out, err := agenda.RenderHTML(occs)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}
	fmt.Print(agenda.RenderText(occs))
	return nil
}
