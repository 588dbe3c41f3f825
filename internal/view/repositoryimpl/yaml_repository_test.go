package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/ganttguild/internal/schedule"
	"github.com/kazz187/ganttguild/internal/view"
	"github.com/kazz187/ganttguild/pkg/cerr"
	"github.com/kazz187/ganttguild/pkg/storage"
)

func newRepo(t *testing.T) (*YAMLRepository, storage.Storage) {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewYAMLRepository(s), s
}

func sample(id string) *view.View {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &view.View{
		ID:   id,
		Name: "Launch " + id,
		Tasks: []schedule.Task{
			{ID: "a", Name: "Design", Start: start, End: start.AddDate(0, 0, 3), Status: schedule.TaskStatusNotStarted},
			{ID: "b", Name: "Build", Start: start.AddDate(0, 0, 3), End: start.AddDate(0, 0, 8), Status: schedule.TaskStatusNotStarted},
		},
		Dependencies: []schedule.Dependency{{ID: "d1", SourceID: "a", TargetID: "b", Type: schedule.FinishToStart}},
		CreatedAt:    start,
		UpdatedAt:    start,
	}
}

func TestYAMLRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	v := sample("v1")
	require.NoError(t, repo.Create(ctx, v))
	assert.True(t, cerr.IsCode(repo.Create(ctx, v), cerr.AlreadyExists))

	got, err := repo.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, v.Name, got.Name)
	assert.Equal(t, v.Tasks, got.Tasks)
	assert.Equal(t, v.Dependencies, got.Dependencies)
	assert.Empty(t, got.Resources)
	assert.True(t, v.CreatedAt.Equal(got.CreatedAt))

	got.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, got))
	again, err := repo.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", again.Name)

	require.NoError(t, repo.Delete(ctx, "v1"))
	_, err = repo.Get(ctx, "v1")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
	assert.True(t, cerr.IsCode(repo.Delete(ctx, "v1"), cerr.NotFound))
	assert.True(t, cerr.IsCode(repo.Update(ctx, v), cerr.NotFound))
}

func TestYAMLRepository_List(t *testing.T) {
	ctx := context.Background()
	repo, s := newRepo(t)
	for _, id := range []string{"v3", "v1", "v2"} {
		require.NoError(t, repo.Create(ctx, sample(id)))
	}
	require.NoError(t, s.Write(ctx, "views/notes.txt", []byte("ignore me")))

	views, total, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, views, 2)
	assert.Equal(t, "v1", views[0].ID)
	assert.Equal(t, "v2", views[1].ID)

	views, _, err = repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "v3", views[0].ID)

	views, _, err = repo.List(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestYAMLRepository_CorruptFile(t *testing.T) {
	ctx := context.Background()
	repo, s := newRepo(t)
	require.NoError(t, s.Write(ctx, "views/bad.yaml", []byte("tasks: [")))

	_, err := repo.Get(ctx, "bad")
	assert.True(t, cerr.IsCode(err, cerr.DataLoss))
}

func TestIDFromPath(t *testing.T) {
	id, ok := IDFromPath("views/v1.yaml")
	assert.True(t, ok)
	assert.Equal(t, "v1", id)

	_, ok = IDFromPath("push_subscriptions/s1.yaml")
	assert.False(t, ok)
	_, ok = IDFromPath("views/v1.toml")
	assert.False(t, ok)
}
