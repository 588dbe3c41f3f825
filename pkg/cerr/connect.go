package cerr

import (
	"context"

	"connectrpc.com/connect"
)

type convertInterceptor struct{}

// NewConvertConnectErrorInterceptor turns handler errors into connect
// errors, keeping the original in the log bag.
func NewConvertConnectErrorInterceptor() connect.Interceptor {
	return convertInterceptor{}
}

func (convertInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		resp, err := next(ctx, req)
		return resp, ExtractConnectError(ctx, err)
	}
}

func (convertInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (convertInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		return ExtractConnectError(ctx, next(ctx, conn))
	}
}
