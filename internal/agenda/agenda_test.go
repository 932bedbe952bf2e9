package agenda

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/dayplan/internal/task"
)

func TestGroupByDayPreservesOrder(t *testing.T) {
	occs := []task.Occurrence{
		{MasterID: "a", Date: "2024-03-10", Title: "one"},
		{MasterID: "b", Date: "2024-03-10", Title: "two"},
		{MasterID: "c", Date: "2024-03-11", Title: "three"},
	}

	days := GroupByDay(occs)
	require.Len(t, days, 2)
	require.Equal(t, "2024-03-10", days[0].Date)
	require.Len(t, days[0].Occurrences, 2)
	require.Equal(t, "2024-03-11", days[1].Date)
	require.Len(t, days[1].Occurrences, 1)
}

func TestRenderTextEmpty(t *testing.T) {
	require.Equal(t, "No tasks scheduled.\n", RenderText(nil))
}

func TestRenderTextMarkers(t *testing.T) {
	out := RenderText([]task.Occurrence{
		{
			Kind:     task.Ghost,
			MasterID: "m1",
			Date:     "2024-03-10",
			Time:     "09:00",
			Title:    "daily review",
			Subtasks: []task.Subtask{{Done: true}, {}},
		},
		{
			MasterID:   "t1",
			Date:       "2024-03-10",
			Title:      "mail package",
			DaysRolled: 3,
		},
	})

	require.Contains(t, out, "2024-03-10\n")
	require.Contains(t, out, "09:00 daily review [recurring] [1/2]  #m1_2024-03-10")
	require.Contains(t, out, "mail package (3 days late)  #t1")
}

func TestRenderHTMLRendersNotesAsMarkdown(t *testing.T) {
	out, err := RenderHTML([]task.Occurrence{
		{
			MasterID: "t1",
			Date:     "2024-03-10",
			Title:    "write report",
			Notes:    "see **draft** first",
		},
	})
	require.NoError(t, err)
	require.Contains(t, out, "<h2>2024-03-10</h2>")
	require.Contains(t, out, "<li id=\"t1\">")
	require.Contains(t, out, "<strong>draft</strong>")
}

func TestRenderHTMLEscapesTitles(t *testing.T) {
	out, err := RenderHTML([]task.Occurrence{
		{MasterID: "t1", Date: "2024-03-10", Title: "a <b> title"},
	})
	require.NoError(t, err)
	require.Contains(t, out, "a &lt;b&gt; title")
	require.NotContains(t, out, "a <b> title")
}
