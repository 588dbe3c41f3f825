package view

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/kazz187/ganttguild/pkg/cerr"
	"github.com/kazz187/ganttguild/pkg/connectjson"
)

const (
	ServiceName = "ganttguild.v1.ScheduleService"
	ServicePath = "/" + ServiceName + "/"
)

// Procedure names, relative to ServicePath.
const (
	ProcedureCreateView       = "CreateView"
	ProcedureGetView          = "GetView"
	ProcedureListViews        = "ListViews"
	ProcedureDeleteView       = "DeleteView"
	ProcedureAddTask          = "AddTask"
	ProcedureUpdateTask       = "UpdateTask"
	ProcedureSetTaskDates     = "SetTaskDates"
	ProcedureDeleteTask       = "DeleteTask"
	ProcedureAddDependency    = "AddDependency"
	ProcedureUpdateDependency = "UpdateDependency"
	ProcedureRemoveDependency = "RemoveDependency"
	ProcedureReschedule       = "Reschedule"
	ProcedureCriticalPath     = "GetCriticalPath"
	ProcedureCheckConflicts   = "CheckConflicts"
	ProcedureAddResource      = "AddResource"
	ProcedureAssignResource   = "AssignResource"
	ProcedureUnassignResource = "UnassignResource"
)

const defaultListLimit = 50

type Server struct {
	svc *Service
}

func NewServer(svc *Service) *Server {
	return &Server{svc: svc}
}

func unary[Req, Res any](mux *http.ServeMux, name string, fn func(context.Context, *Req) (*Res, error), opts []connect.HandlerOption) {
	procedure := ServicePath + name
	mux.Handle(procedure, connect.NewUnaryHandler(procedure,
		func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
			res, err := fn(ctx, req.Msg)
			if err != nil {
				return nil, err
			}
			return connect.NewResponse(res), nil
		},
		opts...,
	))
}

func requireViewID(id string) error {
	if id == "" {
		return cerr.NewError(cerr.InvalidArgument, "view_id is required", nil).
			AddViolation("view_id", "required", "view_id is required")
	}
	return nil
}

// Handler returns the mount path and handler of the service, in the shape
// of generated connect constructors.
func (s *Server) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connectjson.HandlerOption()}, opts...)
	mux := http.NewServeMux()

	unary(mux, ProcedureCreateView, s.CreateView, opts)
	unary(mux, ProcedureGetView, s.GetView, opts)
	unary(mux, ProcedureListViews, s.ListViews, opts)
	unary(mux, ProcedureDeleteView, s.DeleteView, opts)
	unary(mux, ProcedureAddTask, s.AddTask, opts)
	unary(mux, ProcedureUpdateTask, s.UpdateTask, opts)
	unary(mux, ProcedureSetTaskDates, s.SetTaskDates, opts)
	unary(mux, ProcedureDeleteTask, s.DeleteTask, opts)
	unary(mux, ProcedureAddDependency, s.AddDependency, opts)
	unary(mux, ProcedureUpdateDependency, s.UpdateDependency, opts)
	unary(mux, ProcedureRemoveDependency, s.RemoveDependency, opts)
	unary(mux, ProcedureReschedule, s.Reschedule, opts)
	unary(mux, ProcedureCriticalPath, s.CriticalPath, opts)
	unary(mux, ProcedureCheckConflicts, s.CheckConflicts, opts)
	unary(mux, ProcedureAddResource, s.AddResource, opts)
	unary(mux, ProcedureAssignResource, s.AssignResource, opts)
	unary(mux, ProcedureUnassignResource, s.UnassignResource, opts)

	return ServicePath, mux
}

func (s *Server) CreateView(ctx context.Context, req *CreateViewRequest) (*ViewResponse, error) {
	v, err := s.svc.CreateView(ctx, req.Name, req.ViewData)
	if err != nil {
		return nil, err
	}
	return &ViewResponse{View: v}, nil
}

func (s *Server) GetView(ctx context.Context, req *ViewRequest) (*ViewResponse, error) {
	if err := requireViewID(req.ViewID); err != nil {
		return nil, err
	}
	v, err := s.svc.GetView(ctx, req.ViewID)
	if err != nil {
		return nil, err
	}
	return &ViewResponse{View: v}, nil
}

func (s *Server) ListViews(ctx context.Context, req *ListViewsRequest) (*ListViewsResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	views, total, err := s.svc.ListViews(ctx, limit, max(req.Offset, 0))
	if err != nil {
		return nil, err
	}
	return &ListViewsResponse{Views: views, Total: total}, nil
}

func (s *Server) DeleteView(ctx context.Context, req *ViewRequest) (*Empty, error) {
	if err := requireViewID(req.ViewID); err != nil {
		return nil, err
	}
	if err := s.svc.DeleteView(ctx, req.ViewID); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *Server) AddTask(ctx context.Context, req *TaskRequest) (*TaskResponse, error) {
	if err := requireViewID(req.ViewID); err != nil {
		return nil, err
	}
	t, err := s.svc.AddTask(ctx, req.ViewID, req.Task)
	if err != nil {
		return nil, err
	}
	return &TaskResponse{Task: t}, nil
}

func (s *Server) UpdateTask(ctx context.Context, req *TaskRequest) (*TaskResponse, error) {
	if err := requireViewID(req.ViewID); err != nil {
		return nil, err
	}
	t, updates, err := s.svc.UpdateTask(ctx, req.ViewID, req.Task)
	if err != nil {
		return nil, err
	}
	return &TaskResponse{Task: t, Updates: updates}, nil
}

func (s *Server) SetTaskDates(ctx context.Context, req *SetTaskDatesRequest) (*RescheduleResponse, error) {
	if err := requireViewID(req.ViewID); err != nil {
		return nil, err
	}
	updates, err := s.svc.SetTaskDates(ctx, req.ViewID, req.TaskID, req.Start.UTC(), req.End.UTC())
	if err != nil {
		return nil, err
	}
	return &RescheduleResponse{Updates: updates}, nil
}

func (s *Server) DeleteTask(ctx context.Context, req *DeleteTaskRequest) (*DeleteTaskResponse, error) {
	if err := requireViewID(req.ViewID); err != nil {
		return nil, err
	}
	removed, err := s.svc.DeleteTask(ctx, req.ViewID, req.TaskID)
	if err != nil {
		return nil, err
	}
	return &DeleteTaskResponse{RemovedDependencies: removed}, nil
}

func (s *Server) AddDependency(ctx context.Context, req *AddDependencyRequest) (*DependencyResponse, error) {
	if err := requireViewID(req.ViewID); err != nil {
		return nil, err
	}
	dep, updates, err := s.svc.AddDependency(ctx, req.ViewID, req.SourceID, req.TargetID, req.Type, req.LagDays)
	if err != nil {
		return nil, err
	}
	return &DependencyResponse{Dependency: dep, Updates: updates}, nil
}

func (s *Server) UpdateDependency(ctx context.Context, req *UpdateDependencyRequest) (*DependencyResponse, error) {
	if err := requireViewID(req.ViewID); err != nil {
		return nil, err
	}
	dep, updates, err := s.svc.UpdateDependency(ctx, req.ViewID, req.DependencyID, req.Type, req.LagDays)
	if err != nil {
		return nil, err
	}
	return &DependencyResponse{Dependency: dep, Updates: updates}, nil
}

func (s *Server) RemoveDependency(ctx context.Context, req *RemoveDependencyRequest) (*Empty, error) {
	if err := requireViewID(req.ViewID); err != nil {
		return nil, err
	}
	if err := s.svc.RemoveDependency(ctx, req.ViewID, req.DependencyID); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *Server) Reschedule(ctx context.Context, req *RescheduleRequest) (*RescheduleResponse, error) {
	if err := requireViewID(req.ViewID); err != nil {
		return nil, err
	}
	updates, err := s.svc.Reschedule(ctx, req.ViewID, req.AnchorID)
	if err != nil {
		return nil, err
	}
	return &RescheduleResponse{Updates: updates}, nil
}

func (s *Server) CriticalPath(ctx context.Context, req *ViewRequest) (*CriticalPathResponse, error) {
	if err := requireViewID(req.ViewID); err != nil {
		return nil, err
	}
	path, err := s.svc.CriticalPath(ctx, req.ViewID)
	if err != nil {
		return nil, err
	}
	return &CriticalPathResponse{CriticalPath: path}, nil
}

func (s *Server) CheckConflicts(ctx context.Context, req *CheckConflictsRequest) (*ConflictsResponse, error) {
	if err := requireViewID(req.ViewID); err != nil {
		return nil, err
	}
	var err error
	res := &ConflictsResponse{}
	switch {
	case req.TaskID != "" && req.ResourceID != "":
		return nil, cerr.NewError(cerr.InvalidArgument, "set task_id or resource_id, not both", nil)
	case req.TaskID != "":
		res.Conflicts, err = s.svc.CheckConflictsForTask(ctx, req.ViewID, req.TaskID)
	case req.ResourceID != "":
		res.Conflicts, err = s.svc.CheckConflicts(ctx, req.ViewID, req.ResourceID)
	default:
		res.Conflicts, err = s.svc.CheckAllConflicts(ctx, req.ViewID)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Server) AddResource(ctx context.Context, req *ResourceRequest) (*ResourceResponse, error) {
	if err := requireViewID(req.ViewID); err != nil {
		return nil, err
	}
	r, err := s.svc.AddResource(ctx, req.ViewID, req.Resource)
	if err != nil {
		return nil, err
	}
	return &ResourceResponse{Resource: r}, nil
}

func (s *Server) AssignResource(ctx context.Context, req *AssignResourceRequest) (*ConflictsResponse, error) {
	if err := requireViewID(req.ViewID); err != nil {
		return nil, err
	}
	conflicts, err := s.svc.AssignResource(ctx, req.ViewID, req.TaskID, req.ResourceID, req.Allocation)
	if err != nil {
		return nil, err
	}
	return &ConflictsResponse{Conflicts: conflicts}, nil
}

func (s *Server) UnassignResource(ctx context.Context, req *AssignResourceRequest) (*Empty, error) {
	if err := requireViewID(req.ViewID); err != nil {
		return nil, err
	}
	if err := s.svc.UnassignResource(ctx, req.ViewID, req.TaskID, req.ResourceID); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}
