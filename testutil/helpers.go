package testutil

import (
	"testing"

	"github.com/kbukum/injector/di"
	"github.com/kbukum/injector/logger"
)

// Container opens a container over modules and closes it when the test
// ends. Loading failures fail the test immediately.
func Container(t testing.TB, modules ...*di.Module) *di.Container {
	t.Helper()
	return ContainerWith(t, modules, nil)
}

// ContainerWith is Container with extra options. The logger defaults to a
// no-op one; a WithLogger option overrides it.
func ContainerWith(t testing.TB, modules []*di.Module, opts []di.Option) *di.Container {
	t.Helper()
	all := append([]di.Option{di.WithLogger(logger.Nop())}, opts...)
	c, err := di.Open(modules, all...)
	if err != nil {
		t.Fatalf("failed to open container: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("failed to close container %s: %v", c.Name(), err)
		}
	})
	return c
}

// Resolve resolves T or fails the test.
func Resolve[T any](t testing.TB, c *di.Container) T {
	t.Helper()
	v, err := di.Resolve[T](c)
	if err != nil {
		t.Fatalf("failed to resolve %s: %v", di.KeyOf[T](), err)
	}
	return v
}

// Swap unloads original and loads replacement in its place for the rest of
// the test. The original module is restored on cleanup unless the container
// is closed by then.
func Swap(t testing.TB, c *di.Container, original, replacement *di.Module) {
	t.Helper()
	if err := c.Unload(original); err != nil {
		t.Fatalf("failed to unload module %s: %v", original.Name(), err)
	}
	if err := c.Load(replacement); err != nil {
		t.Fatalf("failed to load module %s: %v", replacement.Name(), err)
	}
	t.Cleanup(func() {
		if c.IsClosed() {
			return
		}
		if err := c.Unload(replacement); err != nil {
			t.Errorf("failed to unload module %s: %v", replacement.Name(), err)
			return
		}
		if err := c.Load(original); err != nil {
			t.Errorf("failed to restore module %s: %v", original.Name(), err)
		}
	})
}
