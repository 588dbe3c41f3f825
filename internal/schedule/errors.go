package schedule

import (
	"fmt"
	"strings"
)

// SelfDependencyError rejects an edge from a task to itself.
type SelfDependencyError struct {
	TaskID string
}

func (e *SelfDependencyError) Error() string {
	return fmt.Sprintf("task %s cannot depend on itself", e.TaskID)
}

// CircularDependencyError rejects an edge that would close a cycle. Cycle
// lists the members starting at the target of the rejected edge and ending
// at its source.
type CircularDependencyError struct {
	SourceID string
	TargetID string
	Cycle    []string
}

func (e *CircularDependencyError) Error() string {
	if e.SourceID == "" {
		return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Cycle, " -> "))
	}
	return fmt.Sprintf("dependency %s -> %s would create a cycle: %s -> %s",
		e.SourceID, e.TargetID, strings.Join(e.Cycle, " -> "), e.TargetID)
}

type TaskNotFoundError struct {
	TaskID string
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.TaskID)
}

type DependencyNotFoundError struct {
	DependencyID string
}

func (e *DependencyNotFoundError) Error() string {
	return fmt.Sprintf("dependency %s not found", e.DependencyID)
}

type ResourceNotFoundError struct {
	ResourceID string
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("resource %s not found", e.ResourceID)
}

// NoPathError is returned when a critical path is requested on an empty set.
type NoPathError struct{}

func (e *NoPathError) Error() string {
	return "no critical path: task set is empty"
}

type DuplicateTaskError struct {
	TaskID string
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task %s already exists", e.TaskID)
}

type DuplicateResourceError struct {
	ResourceID string
}

func (e *DuplicateResourceError) Error() string {
	return fmt.Sprintf("resource %s already exists", e.ResourceID)
}

// DuplicateDependencyError rejects a second edge between the same pair, or
// a reused dependency id.
type DuplicateDependencyError struct {
	DependencyID string
	SourceID     string
	TargetID     string
}

func (e *DuplicateDependencyError) Error() string {
	if e.SourceID == "" {
		return fmt.Sprintf("dependency %s already exists", e.DependencyID)
	}
	return fmt.Sprintf("dependency %s -> %s already exists (%s)", e.SourceID, e.TargetID, e.DependencyID)
}

type InvalidTaskError struct {
	TaskID string
	Reason string
}

func (e *InvalidTaskError) Error() string {
	if e.TaskID == "" {
		return "invalid task: " + e.Reason
	}
	return fmt.Sprintf("invalid task %s: %s", e.TaskID, e.Reason)
}

type InvalidAssignmentError struct {
	TaskID     string
	ResourceID string
	Reason     string
}

func (e *InvalidAssignmentError) Error() string {
	return fmt.Sprintf("invalid assignment of %s to %s: %s", e.ResourceID, e.TaskID, e.Reason)
}

type InvalidDependencyError struct {
	Reason string
}

func (e *InvalidDependencyError) Error() string {
	return "invalid dependency: " + e.Reason
}
