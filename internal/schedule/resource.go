package schedule

import "time"

type ResourceType string

const (
	ResourceTypePerson    ResourceType = "person"
	ResourceTypeEquipment ResourceType = "equipment"
	ResourceTypeMaterial  ResourceType = "material"
)

func (t ResourceType) Valid() bool {
	switch t {
	case ResourceTypePerson, ResourceTypeEquipment, ResourceTypeMaterial:
		return true
	}
	return false
}

// DefaultCapacity is used when a resource is stored without a capacity.
const DefaultCapacity = 100

type Resource struct {
	ID         string       `yaml:"id" json:"id" toml:"id"`
	Name       string       `yaml:"name" json:"name" toml:"name"`
	Type       ResourceType `yaml:"type" json:"type" toml:"type"`
	Capacity   int          `yaml:"capacity" json:"capacity" toml:"capacity"`
	HourlyCost *float64     `yaml:"hourly_cost,omitempty" json:"hourlyCost,omitempty" toml:"hourly_cost,omitempty"`
}

// EffectiveCapacity is Capacity, or DefaultCapacity when unset.
func (r Resource) EffectiveCapacity() int {
	if r.Capacity <= 0 {
		return DefaultCapacity
	}
	return r.Capacity
}

// Assignment books Allocation percent of a resource for the whole interval
// of a task.
type Assignment struct {
	TaskID     string `yaml:"task_id" json:"taskId" toml:"task_id"`
	ResourceID string `yaml:"resource_id" json:"resourceId" toml:"resource_id"`
	Allocation int    `yaml:"allocation" json:"allocation" toml:"allocation"`
}

// ResourceConflict is an advisory value, not an error: during
// [WindowStart, WindowEnd) the tasks in ConflictingTaskIDs together book more
// than the resource's capacity.
type ResourceConflict struct {
	ResourceID         string    `yaml:"resource_id" json:"resourceId"`
	ConflictingTaskIDs []string  `yaml:"conflicting_task_ids" json:"conflictingTaskIds"`
	TotalAllocation    int       `yaml:"total_allocation" json:"totalAllocation"`
	Capacity           int       `yaml:"capacity" json:"capacity"`
	Overallocation     int       `yaml:"overallocation" json:"overallocation"`
	WindowStart        time.Time `yaml:"window_start" json:"windowStart"`
	WindowEnd          time.Time `yaml:"window_end" json:"windowEnd"`
}

// CriticalPath is derived data and is always replaced wholesale.
type CriticalPath struct {
	TaskIDs       []string  `yaml:"task_ids" json:"taskIds"`
	TotalDuration int       `yaml:"total_duration" json:"totalDuration"`
	StartDate     time.Time `yaml:"start_date" json:"startDate"`
	EndDate       time.Time `yaml:"end_date" json:"endDate"`
}

func (p CriticalPath) Contains(taskID string) bool {
	for _, id := range p.TaskIDs {
		if id == taskID {
			return true
		}
	}
	return false
}

// Equal reports whether two paths name the same tasks with the same totals.
func (p CriticalPath) Equal(o CriticalPath) bool {
	if len(p.TaskIDs) != len(o.TaskIDs) || p.TotalDuration != o.TotalDuration {
		return false
	}
	for i := range p.TaskIDs {
		if p.TaskIDs[i] != o.TaskIDs[i] {
			return false
		}
	}
	return p.StartDate.Equal(o.StartDate) && p.EndDate.Equal(o.EndDate)
}
