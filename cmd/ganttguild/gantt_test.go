package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/ganttguild/internal/schedule"
)

func TestScale(t *testing.T) {
	assert.Equal(t, 1, scale(10, 60))
	assert.Equal(t, 1, scale(60, 60))
	assert.Equal(t, 2, scale(61, 60))
	assert.Equal(t, 4, scale(10, 3))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Design", truncate("Design", 6))
	assert.Equal(t, "Des…", truncate("Design", 4))
	assert.Equal(t, "設計…", truncate("設計レビュー", 3))
}

func TestRenderGantt_PartialDaysAndLongNames(t *testing.T) {
	set := schedule.NewTaskSet()
	base := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, set.AddTask(schedule.Task{
		ID: "a", Name: "A very long task name that will not fit",
		Start: base, End: base.Add(36 * time.Hour),
	}))
	require.NoError(t, set.AddTask(schedule.Task{
		ID: "b", Name: "Short",
		Start: base.AddDate(0, 0, 2), End: base.AddDate(0, 0, 3),
	}))

	var buf bytes.Buffer
	renderGantt(&buf, "plan", set, schedule.CriticalPath{}, 60, false)
	assert.Equal(t, "plan  2024-05-01..2024-05-04  (1 column = day)\n"+
		"A very long task name t…  ██·\n"+
		"Short                     ··█\n", buf.String())
}
