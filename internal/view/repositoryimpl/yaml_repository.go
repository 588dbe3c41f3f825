package repositoryimpl

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/ganttguild/internal/view"
	"github.com/kazz187/ganttguild/pkg/cerr"
	"github.com/kazz187/ganttguild/pkg/storage"
)

// Prefix is the storage directory holding one YAML file per view.
const Prefix = "views"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func viewPath(id string) string {
	return fmt.Sprintf("%s/%s.yaml", Prefix, id)
}

// IDFromPath is the inverse of the storage layout, for change
// notifications.
func IDFromPath(p string) (string, bool) {
	dir, file := path.Split(p)
	if strings.TrimSuffix(dir, "/") != Prefix || !strings.HasSuffix(file, ".yaml") {
		return "", false
	}
	return strings.TrimSuffix(file, ".yaml"), true
}

func marshal(v *view.View) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal view %s: %w", v.ID, err))
	}
	return data, nil
}

func unmarshal(id string, data []byte) (*view.View, error) {
	var v view.View
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, cerr.NewError(cerr.DataLoss, "view is corrupt", fmt.Errorf("failed to unmarshal view %s: %w", id, err))
	}
	return &v, nil
}

func (r *YAMLRepository) Create(ctx context.Context, v *view.View) error {
	exists, err := r.storage.Exists(ctx, viewPath(v.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("view", v.ID, err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "view already exists", nil)
	}
	data, err := marshal(v)
	if err != nil {
		return err
	}
	if err := r.storage.Write(ctx, viewPath(v.ID), data); err != nil {
		return cerr.WrapStorageWriteError("view", v.ID, err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*view.View, error) {
	data, err := r.storage.Read(ctx, viewPath(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("view", id, err)
	}
	return unmarshal(id, data)
}

// List returns views ordered by id. Unreadable files are skipped but still
// counted in the total.
func (r *YAMLRepository) List(ctx context.Context, limit, offset int) ([]*view.View, int, error) {
	paths, err := r.storage.List(ctx, Prefix)
	if err != nil {
		return nil, 0, cerr.WrapStorageListError("views", err)
	}
	paths = viewPaths(paths)
	total := len(paths)
	sort.Strings(paths)

	if offset >= len(paths) {
		return nil, total, nil
	}
	paths = paths[offset:]
	if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}

	views := make([]*view.View, 0, len(paths))
	for _, p := range paths {
		id, _ := IDFromPath(p)
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		v, err := unmarshal(id, data)
		if err != nil {
			continue
		}
		views = append(views, v)
	}
	return views, total, nil
}

func viewPaths(paths []string) []string {
	out := paths[:0]
	for _, p := range paths {
		if _, ok := IDFromPath(p); ok {
			out = append(out, p)
		}
	}
	return out
}

func (r *YAMLRepository) Update(ctx context.Context, v *view.View) error {
	exists, err := r.storage.Exists(ctx, viewPath(v.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("view", v.ID, err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "view not found", nil)
	}
	data, err := marshal(v)
	if err != nil {
		return err
	}
	if err := r.storage.Write(ctx, viewPath(v.ID), data); err != nil {
		return cerr.WrapStorageWriteError("view", v.ID, err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, viewPath(id)); err != nil {
		return cerr.WrapStorageDeleteError("view", id, err)
	}
	return nil
}
