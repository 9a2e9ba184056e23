package di

import (
	"context"
	"fmt"
)

// Resolve resolves T from the container. Container errors are returned
// unchanged so callers can match them with errors.Is.
//
// Example:
//
//	repo, err := di.Resolve[*Repository](c)
//	if err != nil {
//	    return fmt.Errorf("failed to get repository: %w", err)
//	}
func Resolve[T any](c *Container) (T, error) {
	return ResolveContext[T](context.Background(), c)
}

// ResolveContext resolves T with a caller context for tracing.
func ResolveContext[T any](ctx context.Context, c *Container) (T, error) {
	var zero T
	instance, err := c.ResolveContext(ctx, KeyOf[T]())
	if err != nil {
		return zero, err
	}
	return cast[T](instance)
}

// MustResolve resolves T, panics on error.
// Use this at startup where a missing dependency is a programming error.
func MustResolve[T any](c *Container) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(fmt.Sprintf("di: failed to resolve %s: %v", KeyOf[T](), err))
	}
	return v
}

// TryResolve resolves T, returns zero value and false on any error.
// Use this when a dependency is optional.
//
// Example:
//
//	if metrics, ok := di.TryResolve[MetricsClient](c); ok {
//	    metrics.RecordEvent(...)
//	}
func TryResolve[T any](c *Container) (T, bool) {
	v, err := Resolve[T](c)
	if err != nil {
		return v, false
	}
	return v, true
}
