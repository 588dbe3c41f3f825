package schedule

import (
	"slices"
	"sort"
	"time"
)

type booking struct {
	order      int
	taskID     string
	start, end time.Time
	allocation int
}

// CheckConflicts reports every window in which two or more tasks booked on a
// resource together exceed its capacity. Each maximal over-allocated window
// yields one ResourceConflict naming every task active in it (in assignment
// order) and the peak combined allocation.
//
// Conflicts are warnings for the caller to surface; they never block
// anything.
func CheckConflicts(set *TaskSet, resourceID string) ([]ResourceConflict, error) {
	res, ok := set.Resource(resourceID)
	if !ok {
		return nil, &ResourceNotFoundError{ResourceID: resourceID}
	}
	capacity := res.EffectiveCapacity()

	var bookings []booking
	for i, a := range set.AssignmentsForResource(resourceID) {
		t := set.task(a.TaskID)
		if t == nil {
			return nil, &TaskNotFoundError{TaskID: a.TaskID}
		}
		if !t.Start.Before(t.End) {
			continue
		}
		bookings = append(bookings, booking{
			order:      i,
			taskID:     t.ID,
			start:      t.Start,
			end:        t.End,
			allocation: a.Allocation,
		})
	}
	instants := make([]time.Time, 0, 2*len(bookings))
	for _, b := range bookings {
		instants = append(instants, b.start, b.end)
	}
	sort.Slice(instants, func(i, j int) bool { return instants[i].Before(instants[j]) })
	instants = slices.CompactFunc(instants, func(a, b time.Time) bool { return a.Equal(b) })

	var (
		conflicts []ResourceConflict
		open      *ResourceConflict
		members   map[int]bool
	)
	closeWindow := func(at time.Time) {
		open.WindowEnd = at
		open.Overallocation = open.TotalAllocation - capacity
		order := make([]int, 0, len(members))
		for i := range members {
			order = append(order, i)
		}
		sort.Ints(order)
		for _, i := range order {
			open.ConflictingTaskIDs = append(open.ConflictingTaskIDs, bookings[i].taskID)
		}
		conflicts = append(conflicts, *open)
		open, members = nil, nil
	}

	for _, at := range instants {
		// Bookings are half-open, so one that ends at `at` is already gone.
		sum := 0
		var active []int
		for i, b := range bookings {
			if !b.start.After(at) && b.end.After(at) {
				sum += b.allocation
				active = append(active, i)
			}
		}
		// A task booked above capacity on its own is not a conflict; only
		// overlapping tasks can contend for a resource.
		over := sum > capacity && len(active) >= 2
		switch {
		case over && open == nil:
			open = &ResourceConflict{
				ResourceID:      resourceID,
				Capacity:        capacity,
				TotalAllocation: sum,
				WindowStart:     at,
			}
			members = make(map[int]bool, len(active))
			for _, i := range active {
				members[i] = true
			}
		case over:
			open.TotalAllocation = max(open.TotalAllocation, sum)
			for _, i := range active {
				members[i] = true
			}
		case open != nil:
			closeWindow(at)
		}
	}
	// The last instant is always an end, after which nothing is active.
	return conflicts, nil
}

// CheckConflictsForTask scans only the resources booked by taskID and keeps
// the conflicts that involve it.
func CheckConflictsForTask(set *TaskSet, taskID string) ([]ResourceConflict, error) {
	if !set.HasTask(taskID) {
		return nil, &TaskNotFoundError{TaskID: taskID}
	}
	var out []ResourceConflict
	seen := make(map[string]bool)
	for _, a := range set.AssignmentsForTask(taskID) {
		if seen[a.ResourceID] {
			continue
		}
		seen[a.ResourceID] = true
		conflicts, err := CheckConflicts(set, a.ResourceID)
		if err != nil {
			return nil, err
		}
		for _, c := range conflicts {
			if slices.Contains(c.ConflictingTaskIDs, taskID) {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// CheckAllConflicts runs CheckConflicts for every resource in the set, in
// resource order.
func CheckAllConflicts(set *TaskSet) ([]ResourceConflict, error) {
	var out []ResourceConflict
	for _, r := range set.resources {
		conflicts, err := CheckConflicts(set, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, conflicts...)
	}
	return out, nil
}
