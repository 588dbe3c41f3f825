package view

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kazz187/ganttguild/internal/eventbus"
	"github.com/kazz187/ganttguild/internal/metrics"
	"github.com/kazz187/ganttguild/internal/schedule"
	"github.com/kazz187/ganttguild/pkg/cerr"
)

type memRepo struct {
	mu      sync.Mutex
	views   map[string]View
	updates int
	failing error
}

func newMemRepo() *memRepo {
	return &memRepo{views: make(map[string]View)}
}

func (r *memRepo) Create(_ context.Context, v *View) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[v.ID]; ok {
		return cerr.NewError(cerr.AlreadyExists, "view already exists", nil)
	}
	r.views[v.ID] = *v
	return nil
}

func (r *memRepo) Get(_ context.Context, id string) (*View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "view not found", nil)
	}
	return &v, nil
}

func (r *memRepo) List(_ context.Context, limit, offset int) ([]*View, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.views))
	for id := range r.views {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	total := len(ids)
	ids = ids[min(offset, total):min(offset+limit, total)]
	out := make([]*View, 0, len(ids))
	for _, id := range ids {
		v := r.views[id]
		out = append(out, &v)
	}
	return out, total, nil
}

func (r *memRepo) Update(_ context.Context, v *View) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing != nil {
		return r.failing
	}
	if _, ok := r.views[v.ID]; !ok {
		return cerr.NewError(cerr.NotFound, "view not found", nil)
	}
	r.updates++
	r.views[v.ID] = *v
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[id]; !ok {
		return cerr.NewError(cerr.NotFound, "view not found", nil)
	}
	delete(r.views, id)
	return nil
}

func (r *memRepo) put(t *testing.T, v View) {
	t.Helper()
	require.NoError(t, r.Create(context.Background(), &v))
}

func (r *memRepo) stored(t *testing.T, id string) *View {
	t.Helper()
	v, err := r.Get(context.Background(), id)
	require.NoError(t, err)
	return v
}

func jan(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func span(id string, startDay, days int) schedule.Task {
	return schedule.Task{
		ID:     id,
		Name:   "Task " + id,
		Start:  jan(startDay),
		End:    jan(startDay).AddDate(0, 0, days),
		Status: schedule.TaskStatusNotStarted,
	}
}

func sequence(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

type fixture struct {
	repo    *memRepo
	arena   *Arena
	bus     *eventbus.Bus
	metrics *metrics.Metrics
	svc     *Service
	events  <-chan *eventbus.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{repo: newMemRepo(), bus: eventbus.New(), metrics: metrics.New()}
	f.arena = NewArena(f.repo, 100)
	f.svc = NewService(f.repo, f.arena, f.bus,
		WithMetrics(f.metrics),
		WithIDGenerator(sequence("id")),
		WithClock(func() time.Time { return jan(1) }),
	)
	id, events := f.bus.Subscribe(256)
	t.Cleanup(func() { f.bus.Unsubscribe(id) })
	f.events = events
	return f
}

// drain returns the types of every event published so far.
func (f *fixture) drain() []eventbus.EventType {
	var out []eventbus.EventType
	for {
		select {
		case e := <-f.events:
			out = append(out, e.Type)
		default:
			return out
		}
	}
}

func (f *fixture) view(t *testing.T, id string, data schedule.ViewData) {
	t.Helper()
	v := View{ID: id, Name: "view " + id, CreatedAt: jan(1), UpdatedAt: jan(1)}
	v.SetData(data)
	f.repo.put(t, v)
}

func requireCode(t *testing.T, err error, code cerr.Code) *cerr.Error {
	t.Helper()
	var ce *cerr.Error
	require.True(t, errors.As(err, &ce), "want *cerr.Error, got %v", err)
	require.Equal(t, code, ce.Code, "error: %v", err)
	return ce
}
