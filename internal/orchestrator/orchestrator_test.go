package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/ganttguild/internal/eventbus"
	"github.com/kazz187/ganttguild/internal/metrics"
	"github.com/kazz187/ganttguild/internal/schedule"
	"github.com/kazz187/ganttguild/internal/view"
	"github.com/kazz187/ganttguild/pkg/cerr"
)

type fakeViews struct {
	mu    sync.Mutex
	views map[string]*view.View
	panic bool
}

func (f *fakeViews) GetView(_ context.Context, id string) (*view.View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panic {
		panic("boom")
	}
	v, ok := f.views[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "view not found", nil)
	}
	cp := *v
	return &cp, nil
}

func jan(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func task(id string, startDay, days int) schedule.Task {
	return schedule.Task{ID: id, Start: jan(startDay), End: jan(startDay).AddDate(0, 0, days)}
}

func overbooked() *view.View {
	return &view.View{
		ID:          "v1",
		Tasks:       []schedule.Task{task("X", 1, 5), task("Y", 3, 5)},
		Resources:   []schedule.Resource{{ID: "r1", Name: "Alice", Type: schedule.ResourceTypePerson, Capacity: 100}},
		Assignments: []schedule.Assignment{{TaskID: "X", ResourceID: "r1", Allocation: 70}, {TaskID: "Y", ResourceID: "r1", Allocation: 50}},
	}
}

func setup(t *testing.T, views ...*view.View) (*Orchestrator, *fakeViews, <-chan *eventbus.Event) {
	t.Helper()
	bus := eventbus.New()
	fv := &fakeViews{views: map[string]*view.View{}}
	for _, v := range views {
		fv.views[v.ID] = v
	}
	id, ch := bus.Subscribe(64)
	t.Cleanup(func() { bus.Unsubscribe(id) })
	return New(bus, fv, WithMetrics(metrics.New())), fv, ch
}

func published(ch <-chan *eventbus.Event) []*eventbus.Event {
	var out []*eventbus.Event
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func changed(viewID string) *eventbus.Event {
	return &eventbus.Event{Type: eventbus.EventScheduleChanged, ViewID: viewID}
}

func TestOrchestrator_PublishesDerivedData(t *testing.T) {
	o, _, ch := setup(t, overbooked())

	o.handle(context.Background(), changed("v1"))
	events := published(ch)
	require.Len(t, events, 2)
	assert.Equal(t, eventbus.EventCriticalPathUpdated, events[0].Type)
	assert.JSONEq(t, `{"taskIds":["X"],"totalDuration":5,"startDate":"2024-01-01T00:00:00Z","endDate":"2024-01-06T00:00:00Z"}`, events[0].Payload)
	assert.Equal(t, eventbus.EventResourceConflict, events[1].Type)
	assert.Equal(t, "r1", events[1].ResourceID)
	assert.Equal(t, "Alice", events[1].Metadata["resource_name"])
}

func TestOrchestrator_OnlyAnnouncesChanges(t *testing.T) {
	v := overbooked()
	o, fv, ch := setup(t, v)
	ctx := context.Background()

	o.handle(ctx, changed("v1"))
	published(ch)

	o.handle(ctx, changed("v1"))
	assert.Empty(t, published(ch), "nothing changed")

	fv.mu.Lock()
	v.Tasks[1] = task("Y", 2, 9)
	fv.mu.Unlock()
	o.handle(ctx, changed("v1"))
	events := published(ch)
	require.Len(t, events, 2)
	assert.Equal(t, eventbus.EventCriticalPathUpdated, events[0].Type)
	assert.Equal(t, eventbus.EventResourceConflict, events[1].Type, "the window moved")

	o.handle(ctx, &eventbus.Event{Type: eventbus.EventViewDeleted, ViewID: "v1"})
	o.handle(ctx, changed("v1"))
	assert.Len(t, published(ch), 2, "state is forgotten with the view")
}

func TestOrchestrator_EmptyView(t *testing.T) {
	o, _, ch := setup(t, &view.View{ID: "v1"})

	o.handle(context.Background(), changed("v1"))
	events := published(ch)
	require.Len(t, events, 1)
	assert.Equal(t, eventbus.EventCriticalPathUpdated, events[0].Type)
	assert.Contains(t, events[0].Payload, `"totalDuration":0`)
}

func TestOrchestrator_IgnoresOtherEvents(t *testing.T) {
	o, _, ch := setup(t, overbooked())

	o.handle(context.Background(), &eventbus.Event{Type: eventbus.EventTaskUpdated, ViewID: "v1"})
	o.handle(context.Background(), changed("missing"))
	assert.Empty(t, published(ch))
}

func TestOrchestrator_SurvivesPanics(t *testing.T) {
	o, fv, ch := setup(t, overbooked())
	fv.panic = true

	assert.NotPanics(t, func() {
		o.handle(context.Background(), changed("v1"))
	})
	assert.Empty(t, published(ch))
}

func TestOrchestrator_Start(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	o, _, ch := setup(t, overbooked())

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.Start(ctx)
	}()

	assert.Eventually(t, func() bool {
		o.eventBus.PublishNew(eventbus.EventResourceAssigned, "v1", "r1", nil, nil)
		for _, e := range published(ch) {
			if e.Type == eventbus.EventCriticalPathUpdated {
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}
