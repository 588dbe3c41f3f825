package internal

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kazz187/ganttguild/internal/config"
	"github.com/kazz187/ganttguild/internal/event"
	"github.com/kazz187/ganttguild/internal/metrics"
	"github.com/kazz187/ganttguild/internal/pushnotification"
	"github.com/kazz187/ganttguild/internal/view"
	"github.com/kazz187/ganttguild/pkg/cerr"
	"github.com/kazz187/ganttguild/pkg/clog"
)

type Server struct {
	server                 *http.Server
	env                    *config.Env
	viewServer             *view.Server
	eventServer            *event.Server
	pushNotificationServer *pushnotification.Server
	metrics                *metrics.Metrics
}

func NewServer(
	env *config.Env,
	viewServer *view.Server,
	eventServer *event.Server,
	pushNotificationServer *pushnotification.Server,
	m *metrics.Metrics,
) *Server {
	return &Server{
		env:                    env,
		viewServer:             viewServer,
		eventServer:            eventServer,
		pushNotificationServer: pushNotificationServer,
		metrics:                m,
	}
}

// Handler builds the full route table, without the h2c wrapper.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewConvertConnectErrorChiMiddleware(),
		)
		s.viewServer.Routes(r)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
	})

	mux := http.NewServeMux()

	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	mux.Handle(grpchealth.NewHandler(grpchealth.NewStaticChecker(
		view.ServiceName,
		event.ServiceName,
		pushnotification.ServiceName,
	)))

	handlerOpts := connect.WithInterceptors(s.interceptors()...)

	mux.Handle(s.viewServer.Handler(handlerOpts))
	mux.Handle(s.eventServer.Handler(handlerOpts))
	mux.Handle(s.pushNotificationServer.Handler(handlerOpts))

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.apiKeyMiddleware(mux))
}

// ListenAndServe starts the HTTP server. ctx becomes the base context of
// every request, so cancelling it ends open event streams before Shutdown
// waits on them.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     h2c.NewHandler(s.Handler(), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) interceptors() []connect.Interceptor {
	return []connect.Interceptor{
		clog.NewSlogConnectInterceptor(clog.WithConnectFilter(clog.DefaultConnectHealthCheckFilter)),
		cerr.NewConvertConnectErrorInterceptor(),
	}
}

func unauthenticatedPath(p string) bool {
	switch p {
	case "/health", "/metrics", "/" + grpchealth.HealthV1ServiceName + "/Check":
		return true
	}
	return false
}

func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if unauthenticatedPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey, _ = strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(s.env.APIKey)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
