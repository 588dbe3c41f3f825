package view

import (
	"time"

	"github.com/kazz187/ganttguild/internal/schedule"
)

// Request and response messages of ScheduleService. They travel as JSON.

type Empty struct{}

type CreateViewRequest struct {
	Name string `json:"name"`
	schedule.ViewData
}

type ViewRequest struct {
	ViewID string `json:"viewId"`
}

type ViewResponse struct {
	View *View `json:"view"`
}

type ListViewsRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type ListViewsResponse struct {
	Views []*View `json:"views"`
	Total int     `json:"total"`
}

type TaskRequest struct {
	ViewID string        `json:"viewId"`
	Task   schedule.Task `json:"task"`
}

type TaskResponse struct {
	Task    schedule.Task         `json:"task"`
	Updates []schedule.TaskUpdate `json:"updates,omitempty"`
}

type SetTaskDatesRequest struct {
	ViewID string    `json:"viewId"`
	TaskID string    `json:"taskId"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

type DeleteTaskRequest struct {
	ViewID string `json:"viewId"`
	TaskID string `json:"taskId"`
}

type DeleteTaskResponse struct {
	RemovedDependencies []schedule.Dependency `json:"removedDependencies"`
}

type AddDependencyRequest struct {
	ViewID   string                  `json:"viewId"`
	SourceID string                  `json:"sourceId"`
	TargetID string                  `json:"targetId"`
	Type     schedule.DependencyType `json:"type,omitempty"`
	LagDays  int                     `json:"lagDays,omitempty"`
}

type UpdateDependencyRequest struct {
	ViewID       string                  `json:"viewId"`
	DependencyID string                  `json:"dependencyId"`
	Type         schedule.DependencyType `json:"type,omitempty"`
	LagDays      int                     `json:"lagDays,omitempty"`
}

type RemoveDependencyRequest struct {
	ViewID       string `json:"viewId"`
	DependencyID string `json:"dependencyId"`
}

type DependencyResponse struct {
	Dependency schedule.Dependency   `json:"dependency"`
	Updates    []schedule.TaskUpdate `json:"updates"`
}

// RescheduleRequest with an empty AnchorID reschedules from every source
// task.
type RescheduleRequest struct {
	ViewID   string `json:"viewId"`
	AnchorID string `json:"anchorId,omitempty"`
}

type RescheduleResponse struct {
	Updates []schedule.TaskUpdate `json:"updates"`
}

type CriticalPathResponse struct {
	CriticalPath schedule.CriticalPath `json:"criticalPath"`
}

// CheckConflictsRequest narrows the check to one task or one resource; with
// neither set every resource of the view is checked.
type CheckConflictsRequest struct {
	ViewID     string `json:"viewId"`
	ResourceID string `json:"resourceId,omitempty"`
	TaskID     string `json:"taskId,omitempty"`
}

type ConflictsResponse struct {
	Conflicts []schedule.ResourceConflict `json:"conflicts"`
}

type ResourceRequest struct {
	ViewID   string            `json:"viewId"`
	Resource schedule.Resource `json:"resource"`
}

type ResourceResponse struct {
	Resource schedule.Resource `json:"resource"`
}

type AssignResourceRequest struct {
	ViewID     string `json:"viewId"`
	TaskID     string `json:"taskId"`
	ResourceID string `json:"resourceId"`
	Allocation int    `json:"allocation"`
}
