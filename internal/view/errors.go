package view

import (
	"errors"

	"github.com/kazz187/ganttguild/internal/schedule"
	"github.com/kazz187/ganttguild/pkg/cerr"
)

// ToError maps engine errors onto cerr codes. Engine messages are safe to
// return to callers as they only name ids supplied by them.
func ToError(err error) error {
	if err == nil {
		return nil
	}
	var ce *cerr.Error
	if errors.As(err, &ce) {
		return err
	}

	var (
		selfDep    *schedule.SelfDependencyError
		cycle      *schedule.CircularDependencyError
		taskNF     *schedule.TaskNotFoundError
		depNF      *schedule.DependencyNotFoundError
		resNF      *schedule.ResourceNotFoundError
		noPath     *schedule.NoPathError
		dupTask    *schedule.DuplicateTaskError
		dupRes     *schedule.DuplicateResourceError
		dupDep     *schedule.DuplicateDependencyError
		badTask    *schedule.InvalidTaskError
		badAssign  *schedule.InvalidAssignmentError
		badDepType *schedule.InvalidDependencyError
	)
	switch {
	case errors.As(err, &cycle):
		e := cerr.NewError(cerr.FailedPrecondition, cycle.Error(), err)
		for _, id := range cycle.Cycle {
			e.AddViolation("task_id", "dependency.acyclic", id)
		}
		return e
	case errors.As(err, &selfDep):
		return cerr.NewError(cerr.InvalidArgument, selfDep.Error(), err).
			AddViolation("target_id", "dependency.not_self", selfDep.TaskID)
	case errors.As(err, &badTask), errors.As(err, &badAssign), errors.As(err, &badDepType):
		return cerr.NewError(cerr.InvalidArgument, err.Error(), err)
	case errors.As(err, &taskNF), errors.As(err, &depNF), errors.As(err, &resNF):
		return cerr.NewError(cerr.NotFound, err.Error(), err)
	case errors.As(err, &dupTask), errors.As(err, &dupRes), errors.As(err, &dupDep):
		return cerr.NewError(cerr.AlreadyExists, err.Error(), err)
	case errors.As(err, &noPath):
		return cerr.NewError(cerr.FailedPrecondition, noPath.Error(), err)
	}
	return cerr.NewError(cerr.Internal, "server error", err)
}
