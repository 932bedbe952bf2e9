// Package agenda renders projected occurrences for humans: a plain
// text listing for the terminal and an HTML view with task notes
// treated as Markdown.
package agenda

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/dayplan/internal/task"
)

// Day groups the occurrences that fall on one calendar date.
type Day struct {
	Date        string
	Occurrences []task.Occurrence
}

// GroupByDay splits an already sorted projection into per-date groups,
// preserving order.
func GroupByDay(occs []task.Occurrence) []Day {
	var days []Day
	for _, o := range occs {
		if len(days) == 0 || days[len(days)-1].Date != o.Date {
			days = append(days, Day{Date: o.Date})
		}
		d := &days[len(days)-1]
		d.Occurrences = append(d.Occurrences, o)
	}
	return days
}

// RenderText writes a terminal agenda. Each day gets a header line and
// one line per occurrence with its id, time slot, and lateness marker.
func RenderText(occs []task.Occurrence) string {
	if len(occs) == 0 {
		return "No tasks scheduled.\n"
	}

	var b strings.Builder
	for _, day := range GroupByDay(occs) {
		fmt.Fprintf(&b, "%s\n", day.Date)
		for _, o := range day.Occurrences {
			fmt.Fprintf(&b, "  %s\n", lineFor(o))
		}
	}
	return b.String()
}

func lineFor(o task.Occurrence) string {
	var parts []string
	if o.Time != "" {
		parts = append(parts, o.Time)
	} else {
		parts = append(parts, "     ")
	}
	parts = append(parts, o.Title)
	if o.DaysRolled > 0 {
		parts = append(parts, fmt.Sprintf("(%d days late)", o.DaysRolled))
	}
	if o.IsGhost() {
		parts = append(parts, "[recurring]")
	}
	done := doneCount(o.Subtasks)
	if len(o.Subtasks) > 0 {
		parts = append(parts, fmt.Sprintf("[%d/%d]", done, len(o.Subtasks)))
	}
	if o.Progress > 0 {
		parts = append(parts, fmt.Sprintf("%d%%", o.Progress))
	}
	return strings.Join(parts, " ") + "  #" + o.ID()
}

func doneCount(subs []task.Subtask) int {
	n := 0
	for _, s := range subs {
		if s.Done {
			n++
		}
	}
	return n
}

// RenderHTML writes a minimal standalone HTML agenda. Notes are
// rendered as Markdown; everything else is escaped.
func RenderHTML(occs []task.Occurrence) (string, error) {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Agenda</title></head><body>\n")

	if len(occs) == 0 {
		b.WriteString("<p>No tasks scheduled.</p>\n")
	}
	for _, day := range GroupByDay(occs) {
		fmt.Fprintf(&b, "<h2>%s</h2>\n<ul>\n", html.EscapeString(day.Date))
		for _, o := range day.Occurrences {
			entry, err := htmlEntry(o)
			if err != nil {
				return "", err
			}
			b.WriteString(entry)
		}
		b.WriteString("</ul>\n")
	}

	b.WriteString("</body></html>\n")
	return b.String(), nil
}

func htmlEntry(o task.Occurrence) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "<li id=%q>", o.ID())
	if o.Time != "" {
		fmt.Fprintf(&b, "<strong>%s</strong> ", html.EscapeString(o.Time))
	}
	b.WriteString(html.EscapeString(o.Title))
	if o.DaysRolled > 0 {
		fmt.Fprintf(&b, " <em>(%d days late)</em>", o.DaysRolled)
	}
	if o.Notes != "" {
		rendered, err := NotesHTML(o.Notes)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "<div class=\"notes\">%s</div>", rendered)
	}
	b.WriteString("</li>\n")
	return b.String(), nil
}

// NotesHTML converts one task's Markdown notes to HTML.
func NotesHTML(notes string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(notes), &buf); err != nil {
		return "", fmt.Errorf("rendering notes: %w", err)
	}
	return buf.String(), nil
}
