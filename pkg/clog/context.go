// Package clog carries request-scoped log attributes through a context and
// renders them with slog handlers.
package clog

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

const (
	ErrorAttributeKey = "error.message"
	StackAttributeKey = "error.stack"

	ViewAttributeKey  = "view_id"
	EventAttributeKey = "event"
)

type bag struct {
	mu    sync.RWMutex
	attrs map[string]any
}

type bagKey struct{}

// ContextWithSlog returns a context carrying a fresh attribute bag. Values
// added to it are appended to every record logged with that context.
func ContextWithSlog(ctx context.Context) context.Context {
	return context.WithValue(ctx, bagKey{}, &bag{attrs: make(map[string]any)})
}

func bagFrom(ctx context.Context) *bag {
	b, _ := ctx.Value(bagKey{}).(*bag)
	return b
}

func AddAttribute(ctx context.Context, key string, value any) {
	b := bagFrom(ctx)
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attrs[key] = value
}

// AddAttributes merges attributes into the bag. Nested maps are merged
// key by key instead of replaced.
func AddAttributes(ctx context.Context, attributes map[string]any) {
	b := bagFrom(ctx)
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	merge(b.attrs, attributes)
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		if existing, ok := dst[k].(map[string]any); ok {
			merge(existing, sub)
		} else {
			dst[k] = sub
		}
	}
}

func GetAttribute[T any](ctx context.Context, key string) T {
	var zero T
	b := bagFrom(ctx)
	if b == nil {
		return zero
	}
	b.mu.RLock()
	v, ok := b.attrs[key]
	b.mu.RUnlock()
	if !ok {
		return zero
	}
	typed, ok := v.(T)
	if !ok {
		return zero
	}
	return typed
}

// GetAttributes returns a copy of the bag, or nil without one.
func GetAttributes(ctx context.Context) map[string]any {
	b := bagFrom(ctx)
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.attrs)
}

// Attrs returns the bag as slog attributes sorted by key.
func Attrs(ctx context.Context) []slog.Attr {
	m := GetAttributes(ctx)
	if len(m) == 0 {
		return nil
	}
	out := make([]slog.Attr, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, slog.Any(k, m[k]))
	}
	return out
}

func AddError(ctx context.Context, err error) {
	AddAttribute(ctx, ErrorAttributeKey, err)
}

func GetError(ctx context.Context) error {
	return GetAttribute[error](ctx, ErrorAttributeKey)
}

func AddStack(ctx context.Context, stack string) {
	AddAttribute(ctx, StackAttributeKey, stack)
}

func GetStack(ctx context.Context) string {
	return GetAttribute[string](ctx, StackAttributeKey)
}

// WithView starts a bag for work on a single view, as done by the event
// consumers that run outside of any request.
func WithView(ctx context.Context, viewID, event string) context.Context {
	ctx = ContextWithSlog(ctx)
	AddAttributes(ctx, map[string]any{
		ViewAttributeKey:  viewID,
		EventAttributeKey: event,
	})
	return ctx
}
