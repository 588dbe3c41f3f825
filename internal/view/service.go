package view

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sourcegraph/conc/iter"

	"github.com/kazz187/ganttguild/internal/eventbus"
	"github.com/kazz187/ganttguild/internal/metrics"
	"github.com/kazz187/ganttguild/internal/schedule"
	"github.com/kazz187/ganttguild/pkg/cerr"
)

// Service is the single entry point for reading and changing views. Every
// mutation runs under the view's write lock, is persisted before it
// returns, and is announced on the bus afterwards.
type Service struct {
	repo    Repository
	arena   *Arena
	bus     *eventbus.Bus
	metrics *metrics.Metrics
	newID   func() string
	now     func() time.Time
}

type ServiceOption func(*Service)

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		s.newID = fn
	}
}

func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = fn
		s.arena.now = fn
	}
}

func NewService(repo Repository, arena *Arena, bus *eventbus.Bus, opts ...ServiceOption) *Service {
	s := &Service{
		repo:  repo,
		arena: arena,
		bus:   bus,
		newID: func() string { return ulid.Make().String() },
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type event struct {
	typ        eventbus.EventType
	resourceID string
	payload    any
}

func (s *Service) emit(viewID string, events ...event) {
	for _, e := range events {
		s.bus.PublishNew(e.typ, viewID, e.resourceID, e.payload, nil)
	}
}

// moved announces each moved task and, if anything moved, the schedule
// change as a whole.
func moved(anchorID string, updates []schedule.TaskUpdate, always bool) []event {
	events := make([]event, 0, len(updates)+1)
	for _, u := range updates {
		events = append(events, event{typ: eventbus.EventTaskUpdated, resourceID: u.TaskID, payload: u})
	}
	if always || len(updates) > 0 {
		events = append(events, event{
			typ:        eventbus.EventScheduleChanged,
			resourceID: anchorID,
			payload:    ScheduleChange{AnchorID: anchorID, Moved: len(updates)},
		})
	}
	return events
}

// ScheduleChange is the payload of ScheduleChanged events.
type ScheduleChange struct {
	AnchorID string `json:"anchorId,omitempty"`
	Moved    int    `json:"moved"`
}

func (s *Service) reschedule(set *schedule.TaskSet, anchorID string) ([]schedule.TaskUpdate, error) {
	started := time.Now()
	updates, err := schedule.NewScheduler(set).Reschedule(anchorID)
	s.metrics.ObserveReschedule(len(updates), time.Since(started))
	return updates, err
}

func rejectReason(err error) string {
	var (
		cycle  *schedule.CircularDependencyError
		self   *schedule.SelfDependencyError
		dup    *schedule.DuplicateDependencyError
		taskNF *schedule.TaskNotFoundError
	)
	switch {
	case errors.As(err, &cycle):
		return "cycle"
	case errors.As(err, &self):
		return "self"
	case errors.As(err, &dup):
		return "duplicate"
	case errors.As(err, &taskNF):
		return "unknown_task"
	}
	return "invalid"
}

func (s *Service) CreateView(ctx context.Context, name string, data schedule.ViewData) (*View, error) {
	if name == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "name is required", nil)
	}
	if err := s.arena.tooLarge(len(data.Tasks)); err != nil {
		return nil, err
	}
	set, err := schedule.Load(data)
	if err != nil {
		return nil, ToError(err)
	}
	now := s.now()
	v := &View{ID: s.newID(), Name: name, CreatedAt: now, UpdatedAt: now}
	v.SetData(set.Snapshot())
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	s.emit(v.ID, event{typ: eventbus.EventViewCreated, resourceID: v.ID, payload: v.Summary()})
	if len(data.Dependencies) > 0 || len(data.Assignments) > 0 {
		s.emit(v.ID, event{typ: eventbus.EventScheduleChanged, payload: ScheduleChange{}})
	}
	return v, nil
}

func (s *Service) GetView(ctx context.Context, id string) (*View, error) {
	var out *View
	err := s.arena.Read(ctx, id, func(v *View, set *schedule.TaskSet) error {
		cp := *v
		cp.SetData(set.Snapshot())
		out = &cp
		return nil
	})
	return out, err
}

func (s *Service) ListViews(ctx context.Context, limit, offset int) ([]*View, int, error) {
	views, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*View, 0, len(views))
	for _, v := range views {
		out = append(out, v.Summary())
	}
	return out, total, nil
}

func (s *Service) DeleteView(ctx context.Context, id string) error {
	if err := s.arena.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.ForgetView(id)
	s.emit(id, event{typ: eventbus.EventViewDeleted, resourceID: id})
	return nil
}

// AddTask appends a task. An empty ID is generated.
func (s *Service) AddTask(ctx context.Context, viewID string, task schedule.Task) (schedule.Task, error) {
	if task.ID == "" {
		task.ID = s.newID()
	}
	var created schedule.Task
	err := s.arena.Update(ctx, viewID, func(_ *View, set *schedule.TaskSet) error {
		if err := set.AddTask(task); err != nil {
			return err
		}
		created, _ = set.Task(task.ID)
		return nil
	})
	if err != nil {
		return schedule.Task{}, ToError(err)
	}
	s.emit(viewID, event{typ: eventbus.EventTaskCreated, resourceID: created.ID, payload: created})
	return created, nil
}

// UpdateTask replaces a task. When its dates change its dependents are
// rescheduled; on a propagation failure nothing is persisted and the
// updates computed before the failure are returned with the error.
func (s *Service) UpdateTask(ctx context.Context, viewID string, task schedule.Task) (schedule.Task, []schedule.TaskUpdate, error) {
	var (
		updated      schedule.Task
		updates      []schedule.TaskUpdate
		datesChanged bool
	)
	err := s.arena.Update(ctx, viewID, func(_ *View, set *schedule.TaskSet) error {
		old, ok := set.Task(task.ID)
		if !ok {
			return &schedule.TaskNotFoundError{TaskID: task.ID}
		}
		if err := set.UpdateTask(task); err != nil {
			return err
		}
		updated, _ = set.Task(task.ID)
		datesChanged = !old.Start.Equal(updated.Start) || !old.End.Equal(updated.End)
		if !datesChanged {
			return nil
		}
		var err error
		updates, err = s.reschedule(set, task.ID)
		return err
	})
	if err != nil {
		return schedule.Task{}, updates, ToError(err)
	}
	events := []event{{typ: eventbus.EventTaskUpdated, resourceID: updated.ID, payload: updated}}
	s.emit(viewID, append(events, moved(task.ID, updates, datesChanged)...)...)
	return updated, updates, nil
}

// SetTaskDates moves one task and reschedules its dependents. The first
// update returned is the moved task itself.
func (s *Service) SetTaskDates(ctx context.Context, viewID, taskID string, start, end time.Time) ([]schedule.TaskUpdate, error) {
	var updates []schedule.TaskUpdate
	err := s.arena.Update(ctx, viewID, func(_ *View, set *schedule.TaskSet) error {
		old, ok := set.Task(taskID)
		if !ok {
			return &schedule.TaskNotFoundError{TaskID: taskID}
		}
		if err := set.SetTaskDates(taskID, start, end); err != nil {
			return err
		}
		cur, _ := set.Task(taskID)
		updates = append(updates, schedule.TaskUpdate{
			TaskID:   taskID,
			OldStart: old.Start,
			OldEnd:   old.End,
			NewStart: cur.Start,
			NewEnd:   cur.End,
			Task:     cur,
		})
		propagated, err := s.reschedule(set, taskID)
		updates = append(updates, propagated...)
		return err
	})
	if err != nil {
		return updates, ToError(err)
	}
	s.emit(viewID, moved(taskID, updates, true)...)
	return updates, nil
}

// DeleteTask removes a task with its dependencies and assignments and
// returns the dependencies removed.
func (s *Service) DeleteTask(ctx context.Context, viewID, taskID string) ([]schedule.Dependency, error) {
	var removed []schedule.Dependency
	err := s.arena.Update(ctx, viewID, func(_ *View, set *schedule.TaskSet) error {
		var err error
		removed, err = set.RemoveTask(taskID)
		return err
	})
	if err != nil {
		return nil, ToError(err)
	}
	events := []event{{typ: eventbus.EventTaskDeleted, resourceID: taskID}}
	for _, d := range removed {
		events = append(events, event{typ: eventbus.EventDependencyDeleted, resourceID: d.ID, payload: d})
	}
	events = append(events, event{typ: eventbus.EventScheduleChanged, payload: ScheduleChange{}})
	s.emit(viewID, events...)
	return removed, nil
}

// AddDependency validates the edge, persists it and reschedules from its
// source.
func (s *Service) AddDependency(ctx context.Context, viewID, sourceID, targetID string, typ schedule.DependencyType, lagDays int) (schedule.Dependency, []schedule.TaskUpdate, error) {
	var (
		dep     schedule.Dependency
		updates []schedule.TaskUpdate
	)
	err := s.arena.Update(ctx, viewID, func(_ *View, set *schedule.TaskSet) error {
		var err error
		dep, err = schedule.NewDependencyGraph(set, schedule.WithIDGenerator(s.newID)).
			AddDependency(sourceID, targetID, typ, lagDays)
		if err != nil {
			s.metrics.RejectDependency(rejectReason(err))
			return err
		}
		updates, err = s.reschedule(set, sourceID)
		return err
	})
	if err != nil {
		return schedule.Dependency{}, updates, ToError(err)
	}
	events := []event{{typ: eventbus.EventDependencyCreated, resourceID: dep.ID, payload: dep}}
	s.emit(viewID, append(events, moved(sourceID, updates, true)...)...)
	return dep, updates, nil
}

func (s *Service) UpdateDependency(ctx context.Context, viewID, depID string, typ schedule.DependencyType, lagDays int) (schedule.Dependency, []schedule.TaskUpdate, error) {
	var (
		dep     schedule.Dependency
		updates []schedule.TaskUpdate
	)
	err := s.arena.Update(ctx, viewID, func(_ *View, set *schedule.TaskSet) error {
		var err error
		dep, err = schedule.NewDependencyGraph(set).UpdateDependency(depID, typ, lagDays)
		if err != nil {
			return err
		}
		updates, err = s.reschedule(set, dep.SourceID)
		return err
	})
	if err != nil {
		return schedule.Dependency{}, updates, ToError(err)
	}
	events := []event{{typ: eventbus.EventDependencyUpdated, resourceID: dep.ID, payload: dep}}
	s.emit(viewID, append(events, moved(dep.SourceID, updates, true)...)...)
	return dep, updates, nil
}

func (s *Service) RemoveDependency(ctx context.Context, viewID, depID string) error {
	var dep schedule.Dependency
	err := s.arena.Update(ctx, viewID, func(_ *View, set *schedule.TaskSet) error {
		var ok bool
		if dep, ok = set.Dependency(depID); !ok {
			return &schedule.DependencyNotFoundError{DependencyID: depID}
		}
		return schedule.NewDependencyGraph(set).RemoveDependency(depID)
	})
	if err != nil {
		return ToError(err)
	}
	s.emit(viewID,
		event{typ: eventbus.EventDependencyDeleted, resourceID: dep.ID, payload: dep},
		event{typ: eventbus.EventScheduleChanged, payload: ScheduleChange{}},
	)
	return nil
}

// Reschedule re-places everything downstream of anchorID. With an empty
// anchor every source task of the view is used.
func (s *Service) Reschedule(ctx context.Context, viewID, anchorID string) ([]schedule.TaskUpdate, error) {
	var updates []schedule.TaskUpdate
	err := s.arena.Update(ctx, viewID, func(_ *View, set *schedule.TaskSet) error {
		var err error
		if anchorID == "" {
			started := time.Now()
			updates, err = schedule.NewScheduler(set).RescheduleAll()
			s.metrics.ObserveReschedule(len(updates), time.Since(started))
			return err
		}
		updates, err = s.reschedule(set, anchorID)
		return err
	})
	if err != nil {
		if len(updates) > 0 {
			slog.WarnContext(ctx, "reschedule failed part way, changes discarded",
				"view_id", viewID, "anchor", anchorID, "applied", len(updates), "error", err)
		}
		return updates, ToError(err)
	}
	s.emit(viewID, moved(anchorID, updates, false)...)
	return updates, nil
}

func (s *Service) CriticalPath(ctx context.Context, viewID string) (schedule.CriticalPath, error) {
	var path schedule.CriticalPath
	err := s.arena.Read(ctx, viewID, func(_ *View, set *schedule.TaskSet) error {
		var err error
		path, err = schedule.ComputeCriticalPath(set)
		return err
	})
	if err != nil {
		return schedule.CriticalPath{}, ToError(err)
	}
	s.metrics.SetCriticalPath(viewID, path.TotalDuration)
	return path, nil
}

func (s *Service) CheckConflicts(ctx context.Context, viewID, resourceID string) ([]schedule.ResourceConflict, error) {
	var out []schedule.ResourceConflict
	err := s.arena.Read(ctx, viewID, func(_ *View, set *schedule.TaskSet) error {
		var err error
		out, err = schedule.CheckConflicts(set, resourceID)
		return err
	})
	return out, ToError(err)
}

func (s *Service) CheckConflictsForTask(ctx context.Context, viewID, taskID string) ([]schedule.ResourceConflict, error) {
	var out []schedule.ResourceConflict
	err := s.arena.Read(ctx, viewID, func(_ *View, set *schedule.TaskSet) error {
		var err error
		out, err = schedule.CheckConflictsForTask(set, taskID)
		return err
	})
	return out, ToError(err)
}

// CheckAllConflicts scans every resource of the view concurrently. The
// result is in resource order.
func (s *Service) CheckAllConflicts(ctx context.Context, viewID string) ([]schedule.ResourceConflict, error) {
	var out []schedule.ResourceConflict
	err := s.arena.Read(ctx, viewID, func(_ *View, set *schedule.TaskSet) error {
		perResource, err := iter.MapErr(set.Resources(), func(r *schedule.Resource) ([]schedule.ResourceConflict, error) {
			return schedule.CheckConflicts(set, r.ID)
		})
		if err != nil {
			return err
		}
		out = slices.Concat(perResource...)
		return nil
	})
	return out, ToError(err)
}

// AddResource registers a resource. An empty ID is generated.
func (s *Service) AddResource(ctx context.Context, viewID string, r schedule.Resource) (schedule.Resource, error) {
	if r.ID == "" {
		r.ID = s.newID()
	}
	var created schedule.Resource
	err := s.arena.Update(ctx, viewID, func(_ *View, set *schedule.TaskSet) error {
		if err := set.AddResource(r); err != nil {
			return err
		}
		created, _ = set.Resource(r.ID)
		return nil
	})
	if err != nil {
		return schedule.Resource{}, ToError(err)
	}
	return created, nil
}

// AssignResource books a resource for a task and returns the conflicts the
// task is now part of. Conflicts are advisory; the booking is kept.
func (s *Service) AssignResource(ctx context.Context, viewID, taskID, resourceID string, allocation int) ([]schedule.ResourceConflict, error) {
	var conflicts []schedule.ResourceConflict
	err := s.arena.Update(ctx, viewID, func(_ *View, set *schedule.TaskSet) error {
		if err := set.Assign(taskID, resourceID, allocation); err != nil {
			return err
		}
		var err error
		conflicts, err = schedule.CheckConflictsForTask(set, taskID)
		return err
	})
	if err != nil {
		return nil, ToError(err)
	}
	s.emit(viewID, event{
		typ:        eventbus.EventResourceAssigned,
		resourceID: resourceID,
		payload:    schedule.Assignment{TaskID: taskID, ResourceID: resourceID, Allocation: allocation},
	})
	return conflicts, nil
}

// UnassignResource removes a booking. It is announced as a ResourceAssigned
// event with zero allocation.
func (s *Service) UnassignResource(ctx context.Context, viewID, taskID, resourceID string) error {
	err := s.arena.Update(ctx, viewID, func(_ *View, set *schedule.TaskSet) error {
		if !set.Unassign(taskID, resourceID) {
			return cerr.NewError(cerr.NotFound, "assignment not found", nil)
		}
		return nil
	})
	if err != nil {
		return ToError(err)
	}
	s.emit(viewID, event{
		typ:        eventbus.EventResourceAssigned,
		resourceID: resourceID,
		payload:    schedule.Assignment{TaskID: taskID, ResourceID: resourceID},
	})
	return nil
}
