package commands

import (
	"context"

	"git.home.luguber.info/inful/dayplan/internal/planner"
)

// SubtaskCmd implements the 'subtask' command.
type SubtaskCmd struct {
	ID        string `arg:"" help:"Task or occurrence id"`
	SubtaskID string `arg:"" help:"Subtask id"`
	Undone    bool   `help:"Mark the subtask as not done instead"`
}

func (s *SubtaskCmd) Run(_ *Global, root *CLI) error {
	return root.withPlanner(func(ctx context.Context, p *planner.Planner) error {
		return p.SetSubtaskDone(ctx, s.ID, s.SubtaskID, !s.Undone)
	})
}
