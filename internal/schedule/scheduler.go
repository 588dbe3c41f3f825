package schedule

// Scheduler propagates date changes from a task to everything downstream
// of it.
type Scheduler struct {
	set *TaskSet
}

func NewScheduler(set *TaskSet) *Scheduler {
	return &Scheduler{set: set}
}

// Reschedule re-places every task reachable from anchorID so that each
// dependency's relation and lag hold again, keeping task durations fixed.
// Only tasks whose start actually moves are updated, and only their
// dependents are visited further. Each task is moved at most once per call,
// which bounds the walk even on a cyclic set and makes a second call on an
// unchanged set return no updates. A task reached through several
// predecessors is placed by the first edge that moves it; later edges into
// it are not rechecked in the same call.
//
// The returned updates are in the order they were applied. If an edge points
// at a task missing from the set, the walk stops with a *TaskNotFoundError
// and the updates applied so far are returned alongside it.
func (s *Scheduler) Reschedule(anchorID string) ([]TaskUpdate, error) {
	if !s.set.HasTask(anchorID) {
		return nil, &TaskNotFoundError{TaskID: anchorID}
	}

	var updates []TaskUpdate
	visited := map[string]bool{anchorID: true}
	stack := []frame{{id: anchorID}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		out := s.set.outgoing[top.id]
		if top.next == len(out) {
			stack = stack[:len(stack)-1]
			continue
		}
		dep := out[top.next]
		top.next++
		if visited[dep.TargetID] {
			continue
		}

		source := s.set.task(dep.SourceID)
		if source == nil {
			return updates, &TaskNotFoundError{TaskID: dep.SourceID}
		}
		target := s.set.task(dep.TargetID)
		if target == nil {
			return updates, &TaskNotFoundError{TaskID: dep.TargetID}
		}

		start, end := dep.placement(*source, *target)
		if start.Equal(target.Start) {
			continue
		}
		u := TaskUpdate{
			TaskID:   target.ID,
			OldStart: target.Start,
			OldEnd:   target.End,
			NewStart: start,
			NewEnd:   end,
		}
		target.Start, target.End = start, end
		u.Task = *target
		updates = append(updates, u)

		visited[target.ID] = true
		stack = append(stack, frame{id: target.ID})
	}
	return updates, nil
}

// RescheduleAll runs Reschedule from every source task (one with outgoing
// but no incoming edges) in task-array order. It is meant for freshly loaded
// views whose stored dates may not satisfy their dependencies.
func (s *Scheduler) RescheduleAll() ([]TaskUpdate, error) {
	var all []TaskUpdate
	for _, t := range s.set.Tasks() {
		if len(s.set.incoming[t.ID]) > 0 || len(s.set.outgoing[t.ID]) == 0 {
			continue
		}
		updates, err := s.Reschedule(t.ID)
		all = append(all, updates...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}
