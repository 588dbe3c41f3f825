package view

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kazz187/ganttguild/internal/schedule"
	"github.com/kazz187/ganttguild/pkg/cerr"
)

type entry struct {
	mu     sync.RWMutex
	view   *View // records are stale; the set is authoritative
	set    *schedule.TaskSet
	loaded bool
	stale  atomic.Bool
}

// Arena caches the TaskSet of each view and serialises access to it: one
// writer or many readers per view, views independent of each other.
type Arena struct {
	repo     Repository
	maxTasks int
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

func NewArena(repo Repository, maxTasks int) *Arena {
	return &Arena{
		repo:     repo,
		maxTasks: maxTasks,
		now:      func() time.Time { return time.Now().UTC() },
		entries:  make(map[string]*entry),
	}
}

func (a *Arena) entry(id string) *entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.entries[id]
	if !ok {
		e = &entry{}
		a.entries[id] = e
	}
	return e
}

// forgetMissing evicts e when its view does not exist, so lookups of
// unknown ids do not accumulate. e.mu must be held for writing.
func (a *Arena) forgetMissing(id string, e *entry, err error) {
	if !cerr.IsCode(err, cerr.NotFound) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.entries[id] == e {
		delete(a.entries, id)
	}
}

func (a *Arena) tooLarge(n int) error {
	if a.maxTasks > 0 && n > a.maxTasks {
		return cerr.NewError(cerr.ResourceExhausted,
			fmt.Sprintf("view holds %d tasks, limit is %d", n, a.maxTasks), nil)
	}
	return nil
}

// load must be called with e.mu held for writing.
func (a *Arena) load(ctx context.Context, id string, e *entry) error {
	if e.loaded && !e.stale.Load() {
		return nil
	}
	v, err := a.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := a.tooLarge(len(v.Tasks)); err != nil {
		return err
	}
	set, err := schedule.Load(v.Data())
	if err != nil {
		return cerr.NewError(cerr.DataLoss, "view is corrupt", fmt.Errorf("failed to load view %s: %w", id, err))
	}
	e.view, e.set, e.loaded = v, set, true
	e.stale.Store(false)
	slog.DebugContext(ctx, "view loaded", "view_id", id, "tasks", set.Len())
	return nil
}

// Update runs fn with exclusive access to the view and persists the result
// when fn succeeds. When fn or the write fails the cached copy is dropped,
// so the next access starts again from the last persisted state.
func (a *Arena) Update(ctx context.Context, id string, fn func(v *View, set *schedule.TaskSet) error) error {
	e := a.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := a.load(ctx, id, e); err != nil {
		a.forgetMissing(id, e, err)
		return err
	}
	if err := fn(e.view, e.set); err != nil {
		e.stale.Store(true)
		return err
	}
	if err := a.tooLarge(e.set.Len()); err != nil {
		e.stale.Store(true)
		return err
	}
	next := *e.view
	next.SetData(e.set.Snapshot())
	next.UpdatedAt = a.now()
	if err := a.repo.Update(ctx, &next); err != nil {
		e.stale.Store(true)
		return err
	}
	e.view = &next
	return nil
}

// Read runs fn with shared access to the view. fn must not mutate set.
func (a *Arena) Read(ctx context.Context, id string, fn func(v *View, set *schedule.TaskSet) error) error {
	e := a.entry(id)
	for {
		e.mu.RLock()
		if e.loaded && !e.stale.Load() {
			defer e.mu.RUnlock()
			return fn(e.view, e.set)
		}
		e.mu.RUnlock()

		e.mu.Lock()
		err := a.load(ctx, id, e)
		if err != nil {
			a.forgetMissing(id, e, err)
		}
		e.mu.Unlock()
		if err != nil {
			return err
		}
	}
}

// Invalidate marks a cached view stale; it is reloaded on next access.
func (a *Arena) Invalidate(id string) {
	a.mu.Lock()
	e, ok := a.entries[id]
	a.mu.Unlock()
	if ok {
		e.stale.Store(true)
	}
}

// Delete removes the view from the repository and the cache while holding
// its write lock, so no writer can resurrect it.
func (a *Arena) Delete(ctx context.Context, id string) error {
	e := a.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	err := a.repo.Delete(ctx, id)
	e.loaded, e.view, e.set = false, nil, nil
	a.mu.Lock()
	if a.entries[id] == e {
		delete(a.entries, id)
	}
	a.mu.Unlock()
	return err
}

// Cached reports the number of views held in memory.
func (a *Arena) Cached() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Watch invalidates cached views as their files change on disk, until ctx
// is done or changes is closed. idFromPath maps a changed path to a view
// id and reports false for paths that are not views.
func (a *Arena) Watch(ctx context.Context, changes <-chan string, idFromPath func(string) (string, bool)) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-changes:
			if !ok {
				return
			}
			if id, ok := idFromPath(p); ok {
				a.Invalidate(id)
				slog.DebugContext(ctx, "view changed on disk", "view_id", id)
			}
		}
	}
}
