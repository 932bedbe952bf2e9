package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/dayplan/internal/planner"
	"git.home.luguber.info/inful/dayplan/internal/task"
)

// CompleteCmd implements the 'complete' command.
type CompleteCmd struct {
	ID string `arg:"" help:"Task or occurrence id"`
}

func (c *CompleteCmd) Run(_ *Global, root *CLI) error {
	return root.withPlanner(func(ctx context.Context, p *planner.Planner) error {
		return p.Complete(ctx, c.ID)
	})
}

// UncompleteCmd implements the 'uncomplete' command.
type UncompleteCmd struct {
	ID string `arg:"" help:"Task or occurrence id"`
}

func (u *UncompleteCmd) Run(_ *Global, root *CLI) error {
	return root.withPlanner(func(ctx context.Context, p *planner.Planner) error {
		return p.Uncomplete(ctx, u.ID)
	})
}

// DeleteCmd implements the 'delete' command.
type DeleteCmd struct {
	ID string `arg:"" help:"Task id, or occurrence id to skip one date"`
}

func (d *DeleteCmd) Run(_ *Global, root *CLI) error {
	return root.withPlanner(func(ctx context.Context, p *planner.Planner) error {
		return p.Delete(ctx, d.ID)
	})
}

// DetachCmd implements the 'detach' command.
type DetachCmd struct {
	ID    string `arg:"" help:"Occurrence id to break out of its series"`
	Title string `short:"t" help:"New title for the detached task"`
}

func (d *DetachCmd) Run(_ *Global, root *CLI) error {
	return root.withPlanner(func(ctx context.Context, p *planner.Planner) error {
		var edit func(*task.MasterTask)
		if d.Title != "" {
			edit = func(t *task.MasterTask) { t.Title = d.Title }
		}
		newID, err := p.Detach(ctx, d.ID, edit)
		if err != nil {
			return err
		}
		fmt.Printf("detached %s\n", newID)
		return nil
	})
}

// ProgressCmd implements the 'progress' command.
type ProgressCmd struct {
	ID      string `arg:"" help:"Task or occurrence id"`
	Percent int    `arg:"" help:"Progress percentage (0..100)"`
}

func (pc *ProgressCmd) Run(_ *Global, root *CLI) error {
	return root.withPlanner(func(ctx context.Context, p *planner.Planner) error {
		return p.SetProgress(ctx, pc.ID, pc.Percent)
	})
}

// RolloverCmd implements the 'rollover' command.
type RolloverCmd struct{}

func (r *RolloverCmd) Run(_ *Global, root *CLI) error {
	return root.withPlanner(func(ctx context.Context, p *planner.Planner) error {
		updates, creations, err := p.Rollover(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("rolled forward: %d updated, %d created\n", updates, creations)
		return nil
	})
}
