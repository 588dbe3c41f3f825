package cerr

import (
	"errors"
	"fmt"

	"github.com/kazz187/ganttguild/pkg/storage"
)

// storageSubject names a stored record in messages, e.g. `view "v1"`.
func storageSubject(kind, id string) string {
	if id == "" {
		return kind
	}
	return fmt.Sprintf("%s %q", kind, id)
}

// notFound reports a missing record with the id as a violation, so HTTP and
// connect clients can tell which record was missing.
func notFound(kind, id string, err error) error {
	e := NewError(NotFound, storageSubject(kind, id)+" not found", err)
	if id != "" {
		e.AddViolation(kind+"_id", "exists", id+" does not exist")
	}
	return e
}

// WrapStorageReadError maps a failed read of the kind record id. A missing
// object becomes NotFound; anything else is an Internal error whose
// underlying cause keeps the subject.
func WrapStorageReadError(kind, id string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return notFound(kind, id, err)
	}
	return NewError(Internal, "server error", fmt.Errorf("failed to read %s: %w", storageSubject(kind, id), err))
}

func WrapStorageListError(kind string, err error) error {
	return NewError(Internal, "server error", fmt.Errorf("failed to list %s: %w", kind, err))
}

func WrapStorageWriteError(kind, id string, err error) error {
	return NewError(Internal, "server error", fmt.Errorf("failed to write %s: %w", storageSubject(kind, id), err))
}

func WrapStorageDeleteError(kind, id string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return notFound(kind, id, err)
	}
	return NewError(Internal, "server error", fmt.Errorf("failed to delete %s: %w", storageSubject(kind, id), err))
}
