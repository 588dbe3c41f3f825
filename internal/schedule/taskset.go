package schedule

import (
	"slices"
	"time"
)

// ViewData is the plain record form of a TaskSet, as loaded from and
// written back to the host's store.
type ViewData struct {
	Tasks        []Task       `yaml:"tasks" json:"tasks" toml:"tasks"`
	Dependencies []Dependency `yaml:"dependencies" json:"dependencies" toml:"dependencies"`
	Resources    []Resource   `yaml:"resources" json:"resources" toml:"resources"`
	Assignments  []Assignment `yaml:"assignments" json:"assignments" toml:"assignments"`
}

// TaskSet holds the tasks, dependencies, resources and assignments of one
// view. Insertion order is preserved and drives every deterministic
// traversal in this package.
type TaskSet struct {
	tasks   []*Task
	taskIdx map[string]int

	deps     []*Dependency
	depIdx   map[string]int
	outgoing map[string][]*Dependency
	incoming map[string][]*Dependency

	resources   []*Resource
	resourceIdx map[string]int
	assignments []*Assignment
}

func NewTaskSet() *TaskSet {
	return &TaskSet{
		taskIdx:     make(map[string]int),
		depIdx:      make(map[string]int),
		outgoing:    make(map[string][]*Dependency),
		incoming:    make(map[string][]*Dependency),
		resourceIdx: make(map[string]int),
	}
}

// Load builds a TaskSet from persisted records. Every record goes through
// the same validation as an interactive insert, so a corrupt view (dangling
// edge, cycle, bad dates) is rejected as a whole.
func Load(data ViewData) (*TaskSet, error) {
	s := NewTaskSet()
	for _, t := range data.Tasks {
		if err := s.AddTask(t); err != nil {
			return nil, err
		}
	}
	for _, r := range data.Resources {
		if err := s.AddResource(r); err != nil {
			return nil, err
		}
	}
	g := NewDependencyGraph(s)
	for _, d := range data.Dependencies {
		if _, err := g.Insert(d); err != nil {
			return nil, err
		}
	}
	for _, a := range data.Assignments {
		if err := s.Assign(a.TaskID, a.ResourceID, a.Allocation); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Snapshot returns the records of the set in insertion order.
func (s *TaskSet) Snapshot() ViewData {
	data := ViewData{
		Tasks:        s.Tasks(),
		Dependencies: s.Dependencies(),
		Resources:    make([]Resource, 0, len(s.resources)),
		Assignments:  make([]Assignment, 0, len(s.assignments)),
	}
	for _, r := range s.resources {
		data.Resources = append(data.Resources, *r)
	}
	for _, a := range s.assignments {
		data.Assignments = append(data.Assignments, *a)
	}
	return data
}

// Clone returns an independent deep copy, suitable for handing to readers
// while the original keeps being mutated.
func (s *TaskSet) Clone() *TaskSet {
	c, err := Load(s.Snapshot())
	if err != nil {
		// s already satisfied every invariant Load checks.
		panic("schedule: clone of a valid task set failed: " + err.Error())
	}
	return c
}

func (s *TaskSet) Len() int {
	return len(s.tasks)
}

// AddTask validates t and appends it.
func (s *TaskSet) AddTask(t Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, ok := s.taskIdx[t.ID]; ok {
		return &DuplicateTaskError{TaskID: t.ID}
	}
	s.taskIdx[t.ID] = len(s.tasks)
	s.tasks = append(s.tasks, &t)
	return nil
}

func (s *TaskSet) HasTask(id string) bool {
	_, ok := s.taskIdx[id]
	return ok
}

// Task returns a copy of the task with the given id.
func (s *TaskSet) Task(id string) (Task, bool) {
	t := s.task(id)
	if t == nil {
		return Task{}, false
	}
	return *t, true
}

func (s *TaskSet) task(id string) *Task {
	i, ok := s.taskIdx[id]
	if !ok {
		return nil
	}
	return s.tasks[i]
}

// Tasks returns copies of all tasks in task-array order.
func (s *TaskSet) Tasks() []Task {
	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	return out
}

// UpdateTask replaces the stored task with the same id.
func (s *TaskSet) UpdateTask(t Task) error {
	cur := s.task(t.ID)
	if cur == nil {
		return &TaskNotFoundError{TaskID: t.ID}
	}
	if err := t.Validate(); err != nil {
		return err
	}
	*cur = t
	return nil
}

// SetTaskDates moves a task. Dependents are not touched; run the Scheduler
// afterwards.
func (s *TaskSet) SetTaskDates(id string, start, end time.Time) error {
	cur := s.task(id)
	if cur == nil {
		return &TaskNotFoundError{TaskID: id}
	}
	next := *cur
	next.Start, next.End = start, end
	if err := next.Validate(); err != nil {
		return err
	}
	*cur = next
	return nil
}

// RemoveTask deletes a task together with every incident dependency and
// every assignment referencing it. The removed dependencies are returned so
// the caller can delete them from its store.
func (s *TaskSet) RemoveTask(id string) ([]Dependency, error) {
	i, ok := s.taskIdx[id]
	if !ok {
		return nil, &TaskNotFoundError{TaskID: id}
	}
	var removed []Dependency
	for _, d := range slices.Clone(s.deps) {
		if d.SourceID == id || d.TargetID == id {
			removed = append(removed, *d)
			s.detach(d.ID)
		}
	}
	s.assignments = slices.DeleteFunc(s.assignments, func(a *Assignment) bool {
		return a.TaskID == id
	})
	s.tasks = slices.Delete(s.tasks, i, i+1)
	delete(s.taskIdx, id)
	for j := i; j < len(s.tasks); j++ {
		s.taskIdx[s.tasks[j].ID] = j
	}
	return removed, nil
}

// Dependency returns a copy of the dependency with the given id.
func (s *TaskSet) Dependency(id string) (Dependency, bool) {
	i, ok := s.depIdx[id]
	if !ok {
		return Dependency{}, false
	}
	return *s.deps[i], true
}

// Dependencies returns copies of all edges in dependency-array order.
func (s *TaskSet) Dependencies() []Dependency {
	out := make([]Dependency, 0, len(s.deps))
	for _, d := range s.deps {
		out = append(out, *d)
	}
	return out
}

// Outgoing returns the edges whose source is taskID, in dependency-array
// order.
func (s *TaskSet) Outgoing(taskID string) []Dependency {
	return copyDeps(s.outgoing[taskID])
}

// Incoming returns the edges whose target is taskID, in dependency-array
// order.
func (s *TaskSet) Incoming(taskID string) []Dependency {
	return copyDeps(s.incoming[taskID])
}

func copyDeps(in []*Dependency) []Dependency {
	if len(in) == 0 {
		return nil
	}
	out := make([]Dependency, len(in))
	for i, d := range in {
		out[i] = *d
	}
	return out
}

func (s *TaskSet) edgeBetween(source, target string) *Dependency {
	for _, d := range s.outgoing[source] {
		if d.TargetID == target {
			return d
		}
	}
	return nil
}

// attach appends an already validated edge.
func (s *TaskSet) attach(d Dependency) {
	p := &d
	s.depIdx[d.ID] = len(s.deps)
	s.deps = append(s.deps, p)
	s.outgoing[d.SourceID] = append(s.outgoing[d.SourceID], p)
	s.incoming[d.TargetID] = append(s.incoming[d.TargetID], p)
}

func (s *TaskSet) detach(id string) bool {
	i, ok := s.depIdx[id]
	if !ok {
		return false
	}
	d := s.deps[i]
	s.deps = slices.Delete(s.deps, i, i+1)
	delete(s.depIdx, id)
	for j := i; j < len(s.deps); j++ {
		s.depIdx[s.deps[j].ID] = j
	}
	s.outgoing[d.SourceID] = slices.DeleteFunc(s.outgoing[d.SourceID], func(x *Dependency) bool { return x == d })
	s.incoming[d.TargetID] = slices.DeleteFunc(s.incoming[d.TargetID], func(x *Dependency) bool { return x == d })
	if len(s.outgoing[d.SourceID]) == 0 {
		delete(s.outgoing, d.SourceID)
	}
	if len(s.incoming[d.TargetID]) == 0 {
		delete(s.incoming, d.TargetID)
	}
	return true
}

func (s *TaskSet) AddResource(r Resource) error {
	if r.ID == "" {
		return &InvalidAssignmentError{ResourceID: r.ID, Reason: "resource id is required"}
	}
	if _, ok := s.resourceIdx[r.ID]; ok {
		return &DuplicateResourceError{ResourceID: r.ID}
	}
	if r.Type == "" {
		r.Type = ResourceTypePerson
	}
	if !r.Type.Valid() {
		return &InvalidAssignmentError{ResourceID: r.ID, Reason: "unknown resource type " + string(r.Type)}
	}
	if r.Capacity <= 0 {
		r.Capacity = DefaultCapacity
	}
	s.resourceIdx[r.ID] = len(s.resources)
	s.resources = append(s.resources, &r)
	return nil
}

func (s *TaskSet) Resource(id string) (Resource, bool) {
	i, ok := s.resourceIdx[id]
	if !ok {
		return Resource{}, false
	}
	return *s.resources[i], true
}

func (s *TaskSet) Resources() []Resource {
	out := make([]Resource, 0, len(s.resources))
	for _, r := range s.resources {
		out = append(out, *r)
	}
	return out
}

// Assign books allocation percent of a resource for a task. Assigning the
// same pair again replaces the allocation.
func (s *TaskSet) Assign(taskID, resourceID string, allocation int) error {
	if !s.HasTask(taskID) {
		return &TaskNotFoundError{TaskID: taskID}
	}
	if _, ok := s.resourceIdx[resourceID]; !ok {
		return &ResourceNotFoundError{ResourceID: resourceID}
	}
	if allocation <= 0 {
		return &InvalidAssignmentError{TaskID: taskID, ResourceID: resourceID, Reason: "allocation must be positive"}
	}
	for _, a := range s.assignments {
		if a.TaskID == taskID && a.ResourceID == resourceID {
			a.Allocation = allocation
			return nil
		}
	}
	s.assignments = append(s.assignments, &Assignment{TaskID: taskID, ResourceID: resourceID, Allocation: allocation})
	return nil
}

// Unassign reports whether an assignment was removed.
func (s *TaskSet) Unassign(taskID, resourceID string) bool {
	n := len(s.assignments)
	s.assignments = slices.DeleteFunc(s.assignments, func(a *Assignment) bool {
		return a.TaskID == taskID && a.ResourceID == resourceID
	})
	return len(s.assignments) != n
}

// AssignmentsForResource returns the resource's bookings in assignment order.
func (s *TaskSet) AssignmentsForResource(resourceID string) []Assignment {
	var out []Assignment
	for _, a := range s.assignments {
		if a.ResourceID == resourceID {
			out = append(out, *a)
		}
	}
	return out
}

// AssignmentsForTask returns the task's bookings in assignment order.
func (s *TaskSet) AssignmentsForTask(taskID string) []Assignment {
	var out []Assignment
	for _, a := range s.assignments {
		if a.TaskID == taskID {
			out = append(out, *a)
		}
	}
	return out
}
