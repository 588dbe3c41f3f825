package cerr

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/kazz187/ganttguild/pkg/clog"
)

type responseKey struct{}

type response struct {
	body any
	err  error
}

func SetJSONResponse(ctx context.Context, body any) {
	if r, ok := ctx.Value(responseKey{}).(*response); ok {
		r.body = body
	}
}

func SetJSONError(ctx context.Context, err error) {
	if r, ok := ctx.Value(responseKey{}).(*response); ok {
		r.err = err
	}
}

func SetNewJSONError(ctx context.Context, code Code, msg string, err error) {
	SetJSONError(ctx, NewError(code, msg, err))
}

// NewConvertConnectErrorChiMiddleware lets plain chi handlers report a body
// or an error through the context; the middleware writes the JSON.
func NewConvertConnectErrorChiMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resp := &response{}
			ctx := context.WithValue(r.Context(), responseKey{}, resp)
			next.ServeHTTP(w, r.WithContext(ctx))
			if resp.err != nil {
				writeJSONError(ctx, w, Normalize(ctx, resp.err))
				return
			}
			if resp.body != nil {
				writeJSON(ctx, w, http.StatusOK, resp.body)
			}
		})
	}
}

type httpError struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Violations []string `json:"violations,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		clog.AddError(ctx, err)
		status = http.StatusInternalServerError
		buf = bytes.NewBufferString(`{"code":"internal","message":"server error"}` + "\n")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		clog.AddError(ctx, err)
	}
}

func writeJSONError(ctx context.Context, w http.ResponseWriter, e *Error) {
	writeJSON(ctx, w, e.Code.HTTPCode(), httpError{
		Code:       e.Code.String(),
		Message:    e.Msg,
		Violations: e.Violations(),
	})
}
