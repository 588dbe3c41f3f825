package schedule

// ComputeCriticalPath returns the chain of dependent tasks, from a source
// (no incoming edge) to a sink (no outgoing edge), with the largest sum of
// task durations in days.
//
// Ties are broken by discovery order: sources are tried in task-array order
// and dependents in dependency-array order, and the first chain found with
// the maximum length wins. The tie-break is arbitrary but stable, so the
// same set always yields the same path.
func ComputeCriticalPath(set *TaskSet) (CriticalPath, error) {
	if set.Len() == 0 {
		return CriticalPath{}, &NoPathError{}
	}

	// longest[id] is the length of the longest chain starting at id, and
	// via[id] the dependent that chain continues with.
	longest := make(map[string]int, set.Len())
	via := make(map[string]string, set.Len())
	color := make(map[string]int, set.Len())

	var sources []string
	for _, t := range set.tasks {
		if len(set.incoming[t.ID]) == 0 {
			sources = append(sources, t.ID)
		}
	}
	if len(sources) == 0 {
		return CriticalPath{}, &CircularDependencyError{Cycle: findCycle(set)}
	}

	for _, src := range sources {
		if color[src] == black {
			continue
		}
		color[src] = gray
		stack := []frame{{id: src}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			out := set.outgoing[top.id]
			if top.next < len(out) {
				next := out[top.next].TargetID
				top.next++
				switch color[next] {
				case gray:
					return CriticalPath{}, &CircularDependencyError{Cycle: findCycle(set)}
				case white:
					color[next] = gray
					stack = append(stack, frame{id: next})
				}
				continue
			}

			best, bestNext := -1, ""
			for _, d := range out {
				if l := longest[d.TargetID]; l > best {
					best, bestNext = l, d.TargetID
				}
			}
			if best < 0 {
				best = 0
			}
			t := set.task(top.id)
			longest[top.id] = t.DurationDays() + best
			via[top.id] = bestNext
			color[top.id] = black
			stack = stack[:len(stack)-1]
		}
	}

	start, best := "", -1
	for _, src := range sources {
		if longest[src] > best {
			start, best = src, longest[src]
		}
	}

	path := CriticalPath{TotalDuration: best}
	for id := start; id != ""; id = via[id] {
		t := set.task(id)
		if len(path.TaskIDs) == 0 || t.Start.Before(path.StartDate) {
			path.StartDate = t.Start
		}
		if len(path.TaskIDs) == 0 || t.End.After(path.EndDate) {
			path.EndDate = t.End
		}
		path.TaskIDs = append(path.TaskIDs, id)
	}
	return path, nil
}
