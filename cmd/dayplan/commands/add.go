package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/dayplan/internal/foundation/errors"
	"git.home.luguber.info/inful/dayplan/internal/task"
)

// AddCmd implements the 'add' command.
type AddCmd struct {
	Title    string   `arg:"" help:"Task title"`
	Date     string   `short:"d" help:"Date (YYYY-MM-DD, optional time YYYY-MM-DDTHH:MM), defaults to today"`
	Notes    string   `short:"n" help:"Free-form notes (Markdown)"`
	Deadline string   `help:"Deadline date"`
	Estimate string   `help:"Estimated effort, e.g. 1h30m"`
	Repeat   string   `short:"r" help:"Recurrence rule, e.g. FREQ=WEEKLY;BYDAY=MO,FR"`
	Subtask  []string `short:"s" help:"Subtask title (repeatable)"`
}

func (a *AddCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	p, _, err := root.openPlanner(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	estimate, err := parseEstimate(a.Estimate)
	if err != nil {
		return err
	}

	t := &task.MasterTask{
		Title:          a.Title,
		Date:           a.Date,
		Notes:          a.Notes,
		Deadline:       a.Deadline,
		EstimatedTime:  estimate,
		RecurrenceRule: a.Repeat,
	}
	for _, title := range a.Subtask {
		t.Subtasks = append(t.Subtasks, task.Subtask{Title: title})
	}
	t.Subtasks = task.FreshSubtasks(t.Subtasks)

	id, err := p.Add(context.Background(), t)
	if err != nil {
		return err
	}
	fmt.Printf("added %s\n", id)
	return nil
}

// parseEstimate converts a duration flag like "1h30m" into whole
// minutes. Empty means no estimate.
func parseEstimate(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, errors.NewError(errors.CategoryValidation, "invalid estimate, expected a duration like 1h30m").
			WithContext("estimate", s).
			Build()
	}
	return int(d.Minutes()), nil
}
