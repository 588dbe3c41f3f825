package view

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/ganttguild/internal/schedule"
	"github.com/kazz187/ganttguild/pkg/cerr"
)

func TestToError(t *testing.T) {
	tests := []struct {
		err  error
		want cerr.Code
	}{
		{&schedule.SelfDependencyError{TaskID: "a"}, cerr.InvalidArgument},
		{&schedule.InvalidTaskError{TaskID: "a", Reason: "start must be before end"}, cerr.InvalidArgument},
		{&schedule.InvalidAssignmentError{TaskID: "a", ResourceID: "r", Reason: "allocation must be positive"}, cerr.InvalidArgument},
		{&schedule.InvalidDependencyError{Reason: "unknown type"}, cerr.InvalidArgument},
		{&schedule.CircularDependencyError{SourceID: "b", TargetID: "a", Cycle: []string{"a", "b"}}, cerr.FailedPrecondition},
		{&schedule.TaskNotFoundError{TaskID: "a"}, cerr.NotFound},
		{&schedule.DependencyNotFoundError{DependencyID: "d"}, cerr.NotFound},
		{&schedule.ResourceNotFoundError{ResourceID: "r"}, cerr.NotFound},
		{&schedule.DuplicateTaskError{TaskID: "a"}, cerr.AlreadyExists},
		{&schedule.DuplicateResourceError{ResourceID: "r"}, cerr.AlreadyExists},
		{&schedule.DuplicateDependencyError{DependencyID: "d"}, cerr.AlreadyExists},
		{&schedule.NoPathError{}, cerr.FailedPrecondition},
		{errors.New("disk full"), cerr.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, cerr.CodeOf(ToError(tt.err)))
		})
	}
	assert.NoError(t, ToError(nil))
}

func TestToError_CycleViolations(t *testing.T) {
	err := ToError(&schedule.CircularDependencyError{SourceID: "c", TargetID: "a", Cycle: []string{"a", "b", "c"}})

	var ce *cerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"a", "b", "c"}, ce.Violations())
	assert.Contains(t, ce.Msg, "a -> b -> c -> a")

	var cycle *schedule.CircularDependencyError
	assert.ErrorAs(t, err, &cycle, "engine error stays reachable for callers")
}

func TestToError_PassesThroughCerr(t *testing.T) {
	orig := cerr.NewError(cerr.ResourceExhausted, "too many tasks", nil)
	assert.Same(t, orig, ToError(orig))
}
