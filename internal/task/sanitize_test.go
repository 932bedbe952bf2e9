package task

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/dayplan/internal/foundation/errors"
)

func TestSanitizeRejectsMissingFields(t *testing.T) {
	_, err := Sanitize(map[string]any{"title": "no id"})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryRecord))

	_, err = Sanitize(map[string]any{"id": "t1"})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryRecord))

	_, err = Sanitize(nil)
	require.Error(t, err)
}

func TestSanitizeSplitsEmbeddedTime(t *testing.T) {
	got, err := Sanitize(map[string]any{
		"id":       "t1",
		"title":    "dentist",
		"date":     "2024-01-02T15:04",
		"deadline": "2024-01-05T09:00",
	})
	require.NoError(t, err)
	require.Equal(t, "2024-01-02", got.Date)
	require.Equal(t, "15:04", got.Time)
	require.Equal(t, "2024-01-05", got.Deadline)
}

func TestSanitizeKeepsExplicitTimeField(t *testing.T) {
	got, err := Sanitize(map[string]any{
		"id":    "t1",
		"title": "call",
		"date":  "2024-01-02T15:04",
		"time":  "08:00",
	})
	require.NoError(t, err)
	require.Equal(t, "08:00", got.Time)
}

func TestSanitizeFillsDefaults(t *testing.T) {
	got, err := Sanitize(map[string]any{"id": "t1", "title": "x", "date": "2024-01-02"})
	require.NoError(t, err)
	require.NotNil(t, got.CompletedDates)
	require.NotNil(t, got.ExceptionDates)
	require.NotNil(t, got.Subtasks)
	require.Empty(t, got.CompletedDates)
}

func TestSanitizeNormalizesDateSets(t *testing.T) {
	got, err := Sanitize(map[string]any{
		"id":             "t1",
		"title":          "x",
		"date":           "2024-01-02",
		"completedDates": []any{"2024-01-03T10:00", "2024-01-01", "2024-01-01", "garbage"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"2024-01-01", "2024-01-03"}, got.CompletedDates)
}

func TestSanitizeAllDropsRejectsPreservingOrder(t *testing.T) {
	batch := []map[string]any{
		{"id": "a", "title": "first", "date": "2024-01-01"},
		{"title": "broken"},
		{"id": "b", "title": "second", "date": "2024-01-02"},
	}
	got, dropped := SanitizeAll(batch)
	require.Len(t, got, 2)
	require.Equal(t, 1, dropped)
	require.Equal(t, "a", got[0].ID)
	require.Equal(t, "b", got[1].ID)
}

func TestSubtasksForResetsTemplate(t *testing.T) {
	m := &MasterTask{
		ID:       "m",
		Title:    "series",
		Subtasks: []Subtask{{ID: "s1", Title: "step", Done: true}},
		InstanceSubtasks: map[string][]Subtask{
			"2024-01-10": {{ID: "s2", Title: "diverged", Done: true}},
		},
	}
	fresh := m.SubtasksFor("2024-01-11")
	require.Len(t, fresh, 1)
	require.False(t, fresh[0].Done, "template completion must reset per occurrence")

	override := m.SubtasksFor("2024-01-10")
	require.Equal(t, "diverged", override[0].Title)
	require.True(t, override[0].Done)
}

func TestFreshSubtasksMintsNewIDs(t *testing.T) {
	src := []Subtask{{ID: "s1", Title: "a", Done: true}}
	fresh := FreshSubtasks(src)
	require.Len(t, fresh, 1)
	require.NotEqual(t, "s1", fresh[0].ID)
	require.Equal(t, "a", fresh[0].Title)
	require.True(t, fresh[0].Done)
}

func TestCloneIsDeep(t *testing.T) {
	m := &MasterTask{
		ID:               "m",
		Title:            "x",
		CompletedDates:   []string{"2024-01-01"},
		ExceptionDates:   []string{},
		InstanceProgress: map[string]int{"2024-01-01": 50},
	}
	c := m.Clone()
	c.MarkCompleted("2024-01-02")
	c.InstanceProgress["2024-01-02"] = 10
	require.Len(t, m.CompletedDates, 1)
	require.Len(t, m.InstanceProgress, 1)
}

func TestClonePreservesEmptyButPresentCollections(t *testing.T) {
	m := &MasterTask{ID: "m", Title: "x", Date: "2024-01-02"}
	Normalize(m)
	require.NotNil(t, m.Subtasks)

	c := m.Clone()
	require.NotNil(t, c.Subtasks)
	require.NotNil(t, c.CompletedDates)
	require.NotNil(t, c.ExceptionDates)

	// And it holds through repeated cloning, so store round-trips
	// never decay present sets to absent.
	cc := c.Clone()
	require.NotNil(t, cc.Subtasks)
	require.NotNil(t, cc.CompletedDates)
	require.NotNil(t, cc.ExceptionDates)

	// Absent stays absent.
	bare := (&MasterTask{ID: "m2", Title: "y"}).Clone()
	require.Nil(t, bare.InstanceProgress)
	require.Nil(t, bare.InstanceSubtasks)
}
