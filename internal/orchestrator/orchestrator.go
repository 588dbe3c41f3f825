// Package orchestrator keeps derived schedule data current: after every
// schedule change it recomputes the critical path and the resource
// conflicts of the view and announces what changed.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kazz187/ganttguild/internal/eventbus"
	"github.com/kazz187/ganttguild/internal/metrics"
	"github.com/kazz187/ganttguild/internal/schedule"
	"github.com/kazz187/ganttguild/internal/view"
	"github.com/kazz187/ganttguild/pkg/cerr"
	"github.com/kazz187/ganttguild/pkg/clog"
	"github.com/kazz187/ganttguild/pkg/panicerr"
)

// Views is the read side of view.Service used here.
type Views interface {
	GetView(ctx context.Context, id string) (*view.View, error)
}

type state struct {
	path      schedule.CriticalPath
	hasPath   bool
	conflicts map[string]struct{}
}

type Orchestrator struct {
	eventBus *eventbus.Bus
	views    Views
	metrics  *metrics.Metrics
	bufSize  int

	// owned by the Start goroutine
	states map[string]*state
}

type Option func(*Orchestrator)

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func WithBufferSize(n int) Option {
	return func(o *Orchestrator) {
		o.bufSize = n
	}
}

func New(eventBus *eventbus.Bus, views Views, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		eventBus: eventBus,
		views:    views,
		bufSize:  256,
		states:   make(map[string]*state),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start subscribes to the event bus and processes schedule events.
// It blocks until ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context) {
	subID, ch := o.eventBus.Subscribe(o.bufSize)
	defer o.eventBus.Unsubscribe(subID)

	slog.InfoContext(ctx, "orchestrator started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("orchestrator stopped")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			o.handle(ctx, event)
		}
	}
}

func (o *Orchestrator) handle(ctx context.Context, event *eventbus.Event) {
	switch event.Type {
	case eventbus.EventScheduleChanged,
		eventbus.EventResourceAssigned,
		eventbus.EventTaskCreated:
		ctx = clog.WithView(ctx, event.ViewID, string(event.Type))
		panicerr.Log(ctx, "orchestrator: recompute", func(ctx context.Context) error {
			return o.recompute(ctx, event.ViewID)
		})
	case eventbus.EventViewDeleted:
		delete(o.states, event.ViewID)
	}
}

func (o *Orchestrator) recompute(ctx context.Context, viewID string) error {
	v, err := o.views.GetView(ctx, viewID)
	if cerr.IsCode(err, cerr.NotFound) {
		delete(o.states, viewID)
		return nil
	}
	if err != nil {
		return err
	}
	// One snapshot for both analyses, so they describe the same schedule.
	set, err := schedule.Load(v.Data())
	if err != nil {
		return fmt.Errorf("failed to load view %s: %w", viewID, err)
	}
	st := o.states[viewID]
	if st == nil {
		st = &state{conflicts: map[string]struct{}{}}
		o.states[viewID] = st
	}

	if err := o.updateCriticalPath(ctx, viewID, set, st); err != nil {
		return err
	}
	return o.updateConflicts(ctx, viewID, set, st)
}

func (o *Orchestrator) updateCriticalPath(ctx context.Context, viewID string, set *schedule.TaskSet, st *state) error {
	path, err := schedule.ComputeCriticalPath(set)
	var noPath *schedule.NoPathError
	switch {
	case errors.As(err, &noPath):
		path = schedule.CriticalPath{}
	case err != nil:
		return err
	}
	if st.hasPath && st.path.Equal(path) {
		return nil
	}
	st.path, st.hasPath = path, true
	o.metrics.SetCriticalPath(viewID, path.TotalDuration)
	o.eventBus.PublishNew(eventbus.EventCriticalPathUpdated, viewID, "", path, nil)
	slog.DebugContext(ctx, "critical path updated", "tasks", len(path.TaskIDs), "days", path.TotalDuration)
	return nil
}

func conflictKey(c schedule.ResourceConflict) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d",
		c.ResourceID, c.WindowStart.Format("20060102T150405"), c.WindowEnd.Format("20060102T150405"),
		strings.Join(c.ConflictingTaskIDs, ","), c.TotalAllocation)
}

// updateConflicts announces conflicts that were not present after the
// previous recompute of the view.
func (o *Orchestrator) updateConflicts(ctx context.Context, viewID string, set *schedule.TaskSet, st *state) error {
	conflicts, err := schedule.CheckAllConflicts(set)
	if err != nil {
		return err
	}
	current := make(map[string]struct{}, len(conflicts))
	for _, c := range conflicts {
		key := conflictKey(c)
		current[key] = struct{}{}
		if _, seen := st.conflicts[key]; seen {
			continue
		}
		r, _ := set.Resource(c.ResourceID)
		o.metrics.ObserveConflict(string(r.Type))
		o.eventBus.PublishNew(eventbus.EventResourceConflict, viewID, c.ResourceID, c, map[string]string{
			"resource_name": r.Name,
			"tasks":         strings.Join(c.ConflictingTaskIDs, ","),
		})
		slog.InfoContext(ctx, "resource over-allocated",
			"resource_id", c.ResourceID,
			"tasks", c.ConflictingTaskIDs,
			"overallocation", c.Overallocation,
		)
	}
	st.conflicts = current
	return nil
}
