package schedule

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddDependency(t *testing.T) {
	s := newSet(t, span("a", 1, 2), span("b", 3, 2))
	g := NewDependencyGraph(s, sequentialIDs())

	d, err := g.AddDependency("a", "b", FinishToStart, 1)
	require.NoError(t, err)
	assert.Equal(t, Dependency{ID: "d1", SourceID: "a", TargetID: "b", Type: FinishToStart, LagDays: 1}, d)
	assert.Equal(t, []Dependency{d}, s.Outgoing("a"))
	assert.Equal(t, []Dependency{d}, s.Incoming("b"))
	assert.Empty(t, s.Outgoing("b"))
}

func TestAddDependency_DefaultsToFinishToStart(t *testing.T) {
	s := newSet(t, span("a", 1, 2), span("b", 3, 2))
	g := NewDependencyGraph(s)

	d, err := g.AddDependency("a", "b", "", 0)
	require.NoError(t, err)
	assert.Equal(t, FinishToStart, d.Type)
	assert.NotEmpty(t, d.ID)
}

func TestAddDependency_SelfDependency(t *testing.T) {
	s := newSet(t, span("a", 1, 2))
	g := NewDependencyGraph(s)

	for _, id := range []string{"a", "missing", ""} {
		_, err := g.AddDependency(id, id, FinishToStart, 0)
		var selfErr *SelfDependencyError
		require.ErrorAs(t, err, &selfErr, "id %q", id)
		assert.Equal(t, id, selfErr.TaskID)
	}
	assert.Empty(t, s.Dependencies())
}

func TestAddDependency_UnknownTask(t *testing.T) {
	s := newSet(t, span("a", 1, 2))
	g := NewDependencyGraph(s)

	_, err := g.AddDependency("a", "ghost", FinishToStart, 0)
	var nf *TaskNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost", nf.TaskID)

	_, err = g.AddDependency("ghost", "a", FinishToStart, 0)
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost", nf.TaskID)
}

func TestAddDependency_UnknownType(t *testing.T) {
	s := newSet(t, span("a", 1, 2), span("b", 3, 2))
	g := NewDependencyGraph(s)

	_, err := g.AddDependency("a", "b", DependencyType("before"), 0)
	var invalid *InvalidDependencyError
	require.ErrorAs(t, err, &invalid)
	assert.Empty(t, s.Dependencies())
}

func TestAddDependency_Duplicate(t *testing.T) {
	s := newSet(t, span("a", 1, 2), span("b", 3, 2))
	g := NewDependencyGraph(s, sequentialIDs())
	link(t, g, "a", "b", FinishToStart, 0)

	_, err := g.AddDependency("a", "b", StartToStart, 0)
	var dup *DuplicateDependencyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "d1", dup.DependencyID)
	assert.Len(t, s.Dependencies(), 1)
}

func TestAddDependency_Cycle(t *testing.T) {
	s := newSet(t, span("a", 1, 2), span("b", 3, 2), span("c", 5, 2))
	g := NewDependencyGraph(s, sequentialIDs())
	link(t, g, "a", "b", FinishToStart, 0)
	link(t, g, "b", "c", FinishToStart, 0)
	before := s.Dependencies()

	_, err := g.AddDependency("c", "a", FinishToStart, 0)
	var cycleErr *CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a", "b", "c"}, cycleErr.Cycle)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, cycleErr.Cycle)
	assert.Equal(t, "c", cycleErr.SourceID)
	assert.Equal(t, "a", cycleErr.TargetID)
	assert.Contains(t, err.Error(), "a -> b -> c -> a")

	assert.Equal(t, before, s.Dependencies(), "rejected edge must leave the graph unchanged")
}

func TestAddDependency_TwoCycle(t *testing.T) {
	s := newSet(t, span("a", 1, 2), span("b", 3, 2))
	g := NewDependencyGraph(s)
	link(t, g, "a", "b", FinishToStart, 0)

	_, err := g.AddDependency("b", "a", StartToStart, 0)
	var cycleErr *CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a", "b"}, cycleErr.Cycle)
}

func TestAddDependency_DiamondIsNotACycle(t *testing.T) {
	s := newSet(t, span("a", 1, 1), span("b", 2, 1), span("c", 2, 1), span("d", 3, 1))
	g := NewDependencyGraph(s)
	link(t, g, "a", "b", FinishToStart, 0)
	link(t, g, "a", "c", FinishToStart, 0)
	link(t, g, "b", "d", FinishToStart, 0)

	_, err := g.AddDependency("c", "d", FinishToStart, 0)
	require.NoError(t, err)
	require.NoError(t, g.Validate())
}

// Every successful insertion keeps the graph acyclic, whatever the order of
// attempts.
func TestAddDependency_NoCycleInvariant(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	var tasks []Task
	for i, id := range ids {
		tasks = append(tasks, span(id, i+1, 1))
	}
	s := newSet(t, tasks...)
	g := NewDependencyGraph(s)

	for _, src := range ids {
		for _, dst := range ids {
			before := len(s.Dependencies())
			_, err := g.AddDependency(src, dst, FinishToStart, 0)
			if err != nil {
				var cycleErr *CircularDependencyError
				var selfErr *SelfDependencyError
				var dupErr *DuplicateDependencyError
				assert.True(t, errors.As(err, &cycleErr) || errors.As(err, &selfErr) || errors.As(err, &dupErr), "unexpected error %v", err)
				assert.Len(t, s.Dependencies(), before)
			}
			require.NoError(t, g.Validate())
		}
	}
	// a complete order on five tasks has 10 edges.
	assert.Len(t, s.Dependencies(), 10)
}

func TestRemoveDependency(t *testing.T) {
	s := newSet(t, span("a", 1, 2), span("b", 3, 2), span("c", 5, 2))
	g := NewDependencyGraph(s, sequentialIDs())
	ab := link(t, g, "a", "b", FinishToStart, 0)
	bc := link(t, g, "b", "c", FinishToStart, 0)

	require.NoError(t, g.RemoveDependency(ab.ID))
	assert.Equal(t, []Dependency{bc}, s.Dependencies())
	assert.Empty(t, s.Outgoing("a"))
	assert.Empty(t, s.Incoming("b"))

	// the edge can be re-added in the opposite direction now.
	_, err := g.AddDependency("b", "a", FinishToStart, 0)
	require.NoError(t, err)
}

func TestRemoveDependency_NotFound(t *testing.T) {
	s := newSet(t, span("a", 1, 2))
	g := NewDependencyGraph(s)

	err := g.RemoveDependency("nope")
	var nf *DependencyNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nope", nf.DependencyID)
}

func TestUpdateDependency(t *testing.T) {
	s := newSet(t, span("a", 1, 2), span("b", 3, 2))
	g := NewDependencyGraph(s, sequentialIDs())
	link(t, g, "a", "b", FinishToStart, 0)

	d, err := g.UpdateDependency("d1", StartToStart, -1)
	require.NoError(t, err)
	assert.Equal(t, StartToStart, d.Type)
	assert.Equal(t, -1, d.LagDays)
	stored, ok := s.Dependency("d1")
	require.True(t, ok)
	assert.Equal(t, d, stored)

	_, err = g.UpdateDependency("d9", StartToStart, 0)
	var nf *DependencyNotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestInsert_KeepsGivenID(t *testing.T) {
	s := newSet(t, span("a", 1, 2), span("b", 3, 2))
	g := NewDependencyGraph(s)

	d, err := g.Insert(Dependency{ID: "dep-1", SourceID: "a", TargetID: "b"})
	require.NoError(t, err)
	assert.Equal(t, "dep-1", d.ID)

	_, err = g.Insert(Dependency{ID: "dep-1", SourceID: "b", TargetID: "a"})
	var dup *DuplicateDependencyError
	require.ErrorAs(t, err, &dup)
}

func TestValidate_DetectsCycleBehindGraph(t *testing.T) {
	s := newSet(t, span("a", 1, 2), span("b", 3, 2), span("c", 5, 2))
	g := NewDependencyGraph(s)
	link(t, g, "a", "b", FinishToStart, 0)
	link(t, g, "b", "c", FinishToStart, 0)
	s.attach(Dependency{ID: "x", SourceID: "c", TargetID: "b"})

	err := g.Validate()
	var cycleErr *CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"b", "c"}, cycleErr.Cycle)
}

func TestPathBetween_LongChain(t *testing.T) {
	const n = 20000
	s := NewTaskSet()
	ids := make([]string, n)
	for i := range ids {
		ids[i] = "t" + strconv.Itoa(i)
		require.NoError(t, s.AddTask(Task{ID: ids[i], Start: jan(1), End: jan(2)}))
	}
	for i := 1; i < n; i++ {
		s.attach(Dependency{ID: "e" + strconv.Itoa(i), SourceID: ids[i-1], TargetID: ids[i], Type: FinishToStart})
	}
	g := NewDependencyGraph(s)

	_, err := g.AddDependency(ids[n-1], ids[0], FinishToStart, 0)
	var cycleErr *CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.Len(t, cycleErr.Cycle, n)
}
