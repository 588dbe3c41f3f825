package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	server "github.com/kazz187/ganttguild/internal"
	"github.com/kazz187/ganttguild/internal/config"
	"github.com/kazz187/ganttguild/internal/event"
	"github.com/kazz187/ganttguild/internal/eventbus"
	"github.com/kazz187/ganttguild/internal/metrics"
	"github.com/kazz187/ganttguild/internal/orchestrator"
	"github.com/kazz187/ganttguild/internal/pushnotification"
	pushsubrepo "github.com/kazz187/ganttguild/internal/pushsubscription/repositoryimpl"
	"github.com/kazz187/ganttguild/internal/view"
	viewrepo "github.com/kazz187/ganttguild/internal/view/repositoryimpl"
	"github.com/kazz187/ganttguild/pkg/clog"
	"github.com/kazz187/ganttguild/pkg/storage"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.IsLocal() {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewContextHandler(handler)))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Setup storage
	var store storage.Storage
	var local *storage.LocalStorage
	switch env.StorageEnv.Type {
	case "s3":
		var opts []storage.S3Option
		if env.S3Endpoint != "" {
			opts = append(opts, storage.WithS3Endpoint(env.S3Endpoint))
		}
		store, err = storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region, opts...)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		local, err = storage.NewLocalStorage(env.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
		store = local
	}

	m := metrics.New()
	bus := eventbus.New(eventbus.WithDropHook(func(t eventbus.EventType) {
		m.DropEvent(string(t))
	}))

	// Setup repositories
	viewRepo := viewrepo.NewYAMLRepository(store)
	pushSubRepo := pushsubrepo.NewYAMLRepository(store)

	arena := view.NewArena(viewRepo, env.MaxTasksPerView)
	viewService := view.NewService(viewRepo, arena, bus, view.WithMetrics(m))

	// Setup push notification
	pushSender := pushnotification.NewSender(&env.VAPIDEnv, pushSubRepo)
	pushDispatcher := pushnotification.NewDispatcher(bus, pushSender, env.EventBuffer)

	srv := server.NewServer(
		env,
		view.NewServer(viewService),
		event.NewServer(bus, env.EventBuffer),
		pushnotification.NewServer(&env.VAPIDEnv, pushSubRepo, pushSender),
		m,
	)

	orch := orchestrator.New(bus, viewService,
		orchestrator.WithMetrics(m),
		orchestrator.WithBufferSize(env.EventBuffer),
	)

	if env.StorageEnv.Watch && local != nil {
		changes, err := local.Watch(ctx, viewrepo.Prefix)
		if err != nil {
			slog.Error("failed to watch storage", "error", err)
			os.Exit(1)
		}
		go arena.Watch(ctx, changes, viewrepo.IDFromPath)
	}

	go orch.Start(ctx)
	if env.VAPIDEnv.Enabled() {
		go pushDispatcher.Start(ctx)
	} else {
		slog.Info("push notifications disabled: VAPID keys not set")
	}

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
