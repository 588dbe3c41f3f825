package clog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"
)

type ConnectOption func(*connectInterceptor)

// WithConnectFilter suppresses the access log for procedures the filter
// rejects. The bag is still attached to the context.
func WithConnectFilter(filter func(connect.Spec) bool) ConnectOption {
	return func(i *connectInterceptor) {
		i.filter = filter
	}
}

func DefaultConnectHealthCheckFilter(spec connect.Spec) bool {
	return spec.Procedure != "/grpc.health.v1.Health/Check"
}

type connectInterceptor struct {
	filter func(connect.Spec) bool
}

// NewSlogConnectInterceptor logs one line per unary call and two per
// server stream (on connect and on close).
func NewSlogConnectInterceptor(opts ...ConnectOption) connect.Interceptor {
	i := &connectInterceptor{}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *connectInterceptor) start(ctx context.Context, spec connect.Spec, method string) context.Context {
	ctx = ContextWithSlog(ctx)
	attrs := map[string]any{
		"procedure":         spec.Procedure,
		"stream_type":       spec.StreamType.String(),
		"idempotency_level": spec.IdempotencyLevel.String(),
	}
	if method != "" {
		attrs["method"] = method
	}
	AddAttributes(ctx, attrs)
	return ctx
}

func (i *connectInterceptor) finish(ctx context.Context, spec connect.Spec, started time.Time, err error) {
	if i.filter != nil && !i.filter(spec) {
		return
	}
	var cerr *connect.Error
	code := "ok"
	if err != nil {
		if !errors.As(err, &cerr) {
			cerr = connect.NewError(connect.CodeUnknown, err)
		}
		code = cerr.Code().String()
	}
	AddAttributes(ctx, map[string]any{
		"code":     code,
		"duration": time.Since(started),
	})
	if cerr == nil {
		slog.InfoContext(ctx, "Finished")
		return
	}
	logConnectError(ctx, cerr)
}

func (i *connectInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		started := time.Now()
		ctx = i.start(ctx, req.Spec(), req.HTTPMethod())
		resp, err := next(ctx, req)
		i.finish(ctx, req.Spec(), started, err)
		return resp, err
	}
}

func (i *connectInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *connectInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		started := time.Now()
		ctx = i.start(ctx, conn.Spec(), "")
		slog.InfoContext(ctx, "Connected")
		err := next(ctx, conn)
		i.finish(ctx, conn.Spec(), started, err)
		return err
	}
}

func logConnectError(ctx context.Context, cerr *connect.Error) {
	if raw := cerr.Details(); len(raw) > 0 {
		details := make([]proto.Message, 0, len(raw))
		for _, d := range raw {
			v, err := d.Value()
			if err != nil {
				slog.ErrorContext(ctx, "failed to convert detail value", ErrorAttributeKey, err)
				continue
			}
			details = append(details, v)
		}
		AddAttribute(ctx, "err_details", details)
	}
	slog.Log(ctx, ConnectCodeToLevel(cerr.Code()).Slog(), cerr.Message())
}
