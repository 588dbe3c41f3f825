// Package event streams bus events to connect clients.
package event

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/kazz187/ganttguild/internal/eventbus"
	"github.com/kazz187/ganttguild/pkg/cerr"
	"github.com/kazz187/ganttguild/pkg/connectjson"
)

const (
	ServiceName = "ganttguild.v1.EventService"
	ServicePath = "/" + ServiceName + "/"

	ProcedureSubscribeEvents = ServicePath + "SubscribeEvents"
)

// SubscribeEventsRequest narrows the stream to one view and a set of types.
// Empty fields match everything.
type SubscribeEventsRequest struct {
	ViewID     string               `json:"viewId,omitempty"`
	EventTypes []eventbus.EventType `json:"eventTypes,omitempty"`
}

type Server struct {
	eventBus *eventbus.Bus
	bufSize  int
}

func NewServer(eventBus *eventbus.Bus, bufSize int) *Server {
	return &Server{eventBus: eventBus, bufSize: bufSize}
}

func (s *Server) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connectjson.HandlerOption()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(ProcedureSubscribeEvents, connect.NewServerStreamHandler(ProcedureSubscribeEvents, s.SubscribeEvents, opts...))
	return ServicePath, mux
}

func (s *Server) SubscribeEvents(ctx context.Context, req *connect.Request[SubscribeEventsRequest], stream *connect.ServerStream[eventbus.Event]) error {
	typeFilter := make(map[eventbus.EventType]struct{}, len(req.Msg.EventTypes))
	for _, et := range req.Msg.EventTypes {
		if !et.Valid() {
			return cerr.NewError(cerr.InvalidArgument, "unknown event type", nil).
				AddViolation("event_types", "event_type.known", string(et))
		}
		typeFilter[et] = struct{}{}
	}

	subID, ch := s.eventBus.Subscribe(s.bufSize)
	defer s.eventBus.Unsubscribe(subID)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			if len(typeFilter) > 0 {
				if _, match := typeFilter[event.Type]; !match {
					continue
				}
			}
			if req.Msg.ViewID != "" && event.ViewID != req.Msg.ViewID {
				continue
			}
			if err := stream.Send(event); err != nil {
				return err
			}
		}
	}
}
