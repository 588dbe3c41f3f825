package pushnotification

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/oklog/ulid/v2"

	"github.com/kazz187/ganttguild/internal/config"
	"github.com/kazz187/ganttguild/internal/pushsubscription"
	"github.com/kazz187/ganttguild/pkg/cerr"
	"github.com/kazz187/ganttguild/pkg/connectjson"
)

const (
	ServiceName = "ganttguild.v1.PushNotificationService"
	ServicePath = "/" + ServiceName + "/"

	ProcedureGetVapidPublicKey          = ServicePath + "GetVapidPublicKey"
	ProcedureRegisterPushSubscription   = ServicePath + "RegisterPushSubscription"
	ProcedureUnregisterPushSubscription = ServicePath + "UnregisterPushSubscription"
	ProcedureSendTestNotification       = ServicePath + "SendTestNotification"
)

type Empty struct{}

type GetVapidPublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

type RegisterPushSubscriptionRequest struct {
	Endpoint  string   `json:"endpoint"`
	P256dhKey string   `json:"p256dhKey"`
	AuthKey   string   `json:"authKey"`
	ViewIDs   []string `json:"viewIds,omitempty"`
}

type RegisterPushSubscriptionResponse struct {
	ID string `json:"id"`
}

type UnregisterPushSubscriptionRequest struct {
	Endpoint string `json:"endpoint"`
}

type SendTestNotificationRequest struct {
	ViewID string `json:"viewId,omitempty"`
}

type SendTestNotificationResponse struct {
	Delivered int `json:"delivered"`
}

type Server struct {
	vapidEnv *config.VAPIDEnv
	repo     pushsubscription.Repository
	sender   *Sender
}

func NewServer(vapidEnv *config.VAPIDEnv, repo pushsubscription.Repository, sender *Sender) *Server {
	return &Server{
		vapidEnv: vapidEnv,
		repo:     repo,
		sender:   sender,
	}
}

func (s *Server) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connectjson.HandlerOption()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(ProcedureGetVapidPublicKey, connect.NewUnaryHandler(ProcedureGetVapidPublicKey, s.GetVapidPublicKey, opts...))
	mux.Handle(ProcedureRegisterPushSubscription, connect.NewUnaryHandler(ProcedureRegisterPushSubscription, s.RegisterPushSubscription, opts...))
	mux.Handle(ProcedureUnregisterPushSubscription, connect.NewUnaryHandler(ProcedureUnregisterPushSubscription, s.UnregisterPushSubscription, opts...))
	mux.Handle(ProcedureSendTestNotification, connect.NewUnaryHandler(ProcedureSendTestNotification, s.SendTestNotification, opts...))
	return ServicePath, mux
}

func (s *Server) GetVapidPublicKey(_ context.Context, _ *connect.Request[Empty]) (*connect.Response[GetVapidPublicKeyResponse], error) {
	if s.vapidEnv.PublicKey == "" {
		return nil, cerr.NewError(cerr.FailedPrecondition, "VAPID keys not configured", nil)
	}
	return connect.NewResponse(&GetVapidPublicKeyResponse{PublicKey: s.vapidEnv.PublicKey}), nil
}

func (s *Server) RegisterPushSubscription(ctx context.Context, req *connect.Request[RegisterPushSubscriptionRequest]) (*connect.Response[RegisterPushSubscriptionResponse], error) {
	e := cerr.NewError(cerr.InvalidArgument, "invalid push subscription", nil)
	if req.Msg.Endpoint == "" {
		e.AddViolation("endpoint", "required", "endpoint is required")
	}
	if req.Msg.P256dhKey == "" {
		e.AddViolation("p256dh_key", "required", "p256dh_key is required")
	}
	if req.Msg.AuthKey == "" {
		e.AddViolation("auth_key", "required", "auth_key is required")
	}
	if len(e.Details) > 0 {
		return nil, e
	}

	// Registering an endpoint again refreshes its keys and views.
	existing, err := s.repo.FindByEndpoint(ctx, req.Msg.Endpoint)
	switch {
	case err == nil:
		existing.P256dhKey = req.Msg.P256dhKey
		existing.AuthKey = req.Msg.AuthKey
		existing.ViewIDs = req.Msg.ViewIDs
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return connect.NewResponse(&RegisterPushSubscriptionResponse{ID: existing.ID}), nil
	case !cerr.IsCode(err, cerr.NotFound):
		return nil, err
	}

	sub := &pushsubscription.Subscription{
		ID:        ulid.Make().String(),
		Endpoint:  req.Msg.Endpoint,
		P256dhKey: req.Msg.P256dhKey,
		AuthKey:   req.Msg.AuthKey,
		ViewIDs:   req.Msg.ViewIDs,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return connect.NewResponse(&RegisterPushSubscriptionResponse{ID: sub.ID}), nil
}

func (s *Server) UnregisterPushSubscription(ctx context.Context, req *connect.Request[UnregisterPushSubscriptionRequest]) (*connect.Response[Empty], error) {
	if req.Msg.Endpoint == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "endpoint is required", nil)
	}
	if err := s.repo.DeleteByEndpoint(ctx, req.Msg.Endpoint); err != nil {
		return nil, err
	}
	return connect.NewResponse(&Empty{}), nil
}

func (s *Server) SendTestNotification(ctx context.Context, req *connect.Request[SendTestNotificationRequest]) (*connect.Response[SendTestNotificationResponse], error) {
	if !s.vapidEnv.Enabled() {
		return nil, cerr.NewError(cerr.FailedPrecondition, "VAPID keys not configured", nil)
	}
	n := s.sender.SendToAll(ctx, req.Msg.ViewID, &NotificationPayload{
		Title: "GanttGuild Test",
		Body:  "Push notifications are working!",
	})
	return connect.NewResponse(&SendTestNotificationResponse{Delivered: n}), nil
}
