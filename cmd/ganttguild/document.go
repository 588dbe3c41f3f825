package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/kazz187/ganttguild/internal/schedule"
	"github.com/kazz187/ganttguild/internal/view"
	"github.com/kazz187/ganttguild/pkg/cerr"
	"github.com/kazz187/ganttguild/pkg/storage"
)

// document is a view file loaded into a TaskSet. before holds the
// canonical encoding at load time so diffs only show semantic changes.
type document struct {
	path   string
	format view.Format
	view   *view.View
	set    *schedule.TaskSet
	before []byte
}

func invalid(err error) error {
	return cerr.NewError(cerr.InvalidArgument, err.Error(), err)
}

func loadDocument(path string) (*document, error) {
	f, err := view.FormatFromPath(path)
	if err != nil {
		return nil, invalid(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, invalid(err)
	}
	v, err := view.Decode(data, f)
	if err != nil {
		return nil, invalid(err)
	}
	set, err := schedule.Load(v.Data())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d := &document{path: path, format: f, view: v, set: set}
	if d.before, err = d.encode(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *document) encode() ([]byte, error) {
	v := *d.view
	v.SetData(d.set.Snapshot())
	return view.Encode(&v, d.format)
}

func (d *document) diff() (string, error) {
	after, err := d.encode()
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(d.before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "a/" + filepath.Base(d.path),
		ToFile:   "b/" + filepath.Base(d.path),
		Context:  2,
	})
}

// save replaces the file atomically. Comments and key order of the
// original file are not preserved.
func (d *document) save(ctx context.Context) error {
	data, err := d.encode()
	if err != nil {
		return err
	}
	return writeFile(ctx, d.path, data)
}

func writeFile(ctx context.Context, path string, data []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	store, err := storage.NewLocalStorage(dir)
	if err != nil {
		return err
	}
	return store.Write(ctx, base, data)
}
