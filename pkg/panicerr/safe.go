// Package panicerr turns panics in background work into ordinary errors so
// one bad view cannot take the server down.
package panicerr

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/panics"
)

func try(fn func() error) error {
	var (
		c   panics.Catcher
		err error
	)
	c.Try(func() { err = fn() })
	if r := c.Recovered(); r != nil {
		return r.AsError()
	}
	return err
}

// Safe wraps fn so that a panic is returned as an error.
func Safe(fn func() error) func() error {
	return func() error { return try(fn) }
}

// SafeContext is Safe for functions taking a context.
func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		return try(func() error { return fn(ctx) })
	}
}

// Log runs fn and logs its error or panic under name. It is meant for the
// bodies of fire-and-forget goroutines.
func Log(ctx context.Context, name string, fn func(context.Context) error) {
	if err := SafeContext(fn)(ctx); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, name+" failed", "error", err)
	}
}
