// Package schedule is the task-dependency engine behind a project view: it
// keeps the dependency graph acyclic, propagates date changes along it,
// computes the critical path and reports resource over-allocation.
//
// Everything in this package works on an in-memory TaskSet and performs no
// I/O. Callers must serialise mutations of a TaskSet; read-only analyses may
// run concurrently against a snapshot (see TaskSet.Clone).
package schedule

import (
	"fmt"
	"time"
)

type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "not_started"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
	TaskStatusOnHold     TaskStatus = "on_hold"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled, TaskStatusOnHold:
		return true
	}
	return false
}

const day = 24 * time.Hour

// Task is a single bar on the timeline. End is exclusive.
type Task struct {
	ID          string     `yaml:"id" json:"id" toml:"id"`
	Name        string     `yaml:"name" json:"name" toml:"name"`
	Start       time.Time  `yaml:"start" json:"start" toml:"start"`
	End         time.Time  `yaml:"end" json:"end" toml:"end"`
	Progress    int        `yaml:"progress" json:"progress" toml:"progress"`
	ParentID    string     `yaml:"parent_id,omitempty" json:"parentId,omitempty" toml:"parent_id,omitempty"`
	OrderIndex  int        `yaml:"order_index" json:"orderIndex" toml:"order_index"`
	IsMilestone bool       `yaml:"is_milestone" json:"isMilestone" toml:"is_milestone"`
	Status      TaskStatus `yaml:"status" json:"status" toml:"status"`
}

// Validate checks the invariants every task in a TaskSet must hold. An empty
// status is normalised to not_started.
func (t *Task) Validate() error {
	if t.ID == "" {
		return &InvalidTaskError{Reason: "id is required"}
	}
	if t.Status == "" {
		t.Status = TaskStatusNotStarted
	}
	if !t.Status.Valid() {
		return &InvalidTaskError{TaskID: t.ID, Reason: fmt.Sprintf("unknown status %q", t.Status)}
	}
	if t.Progress < 0 || t.Progress > 100 {
		return &InvalidTaskError{TaskID: t.ID, Reason: fmt.Sprintf("progress %d out of range 0-100", t.Progress)}
	}
	switch {
	case t.IsMilestone && t.End.Before(t.Start):
		return &InvalidTaskError{TaskID: t.ID, Reason: "milestone end must not be before start"}
	case !t.IsMilestone && !t.Start.Before(t.End):
		return &InvalidTaskError{TaskID: t.ID, Reason: "start must be before end"}
	}
	return nil
}

func (t Task) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// DurationDays is the task length in whole days. Partial days count as a
// full day; milestones are zero.
func (t Task) DurationDays() int {
	d := t.Duration()
	if d <= 0 {
		return 0
	}
	days := int(d / day)
	if d%day != 0 {
		days++
	}
	return days
}

// Overlaps reports whether the half-open intervals of t and o intersect.
func (t Task) Overlaps(o Task) bool {
	return t.Start.Before(o.End) && t.End.After(o.Start)
}

// TaskUpdate records one task moved by the scheduler.
type TaskUpdate struct {
	TaskID   string    `yaml:"task_id" json:"taskId"`
	OldStart time.Time `yaml:"old_start" json:"oldStart"`
	OldEnd   time.Time `yaml:"old_end" json:"oldEnd"`
	NewStart time.Time `yaml:"new_start" json:"newStart"`
	NewEnd   time.Time `yaml:"new_end" json:"newEnd"`
	Task     Task      `yaml:"task" json:"task"`
}
