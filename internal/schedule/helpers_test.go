package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// jan returns midnight UTC on the given day of January 2024.
func jan(d int) time.Time {
	return date(2024, time.January, d)
}

// span builds a task starting on jan(startDay) lasting days days.
func span(id string, startDay, days int) Task {
	return Task{
		ID:    id,
		Name:  "Task " + id,
		Start: jan(startDay),
		End:   jan(startDay).AddDate(0, 0, days),
	}
}

func newSet(t *testing.T, tasks ...Task) *TaskSet {
	t.Helper()
	s := NewTaskSet()
	for _, task := range tasks {
		require.NoError(t, s.AddTask(task))
	}
	return s
}

// sequentialIDs makes dependency ids deterministic: d1, d2, ...
func sequentialIDs() GraphOption {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("d%d", n)
	})
}

func link(t *testing.T, g *DependencyGraph, source, target string, typ DependencyType, lag int) Dependency {
	t.Helper()
	d, err := g.AddDependency(source, target, typ, lag)
	require.NoError(t, err)
	return d
}
