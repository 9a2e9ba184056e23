package global

import (
	"sync"

	"github.com/kbukum/injector/di"
	"github.com/kbukum/injector/errors"
)

var (
	mu       sync.RWMutex
	current  *di.Container
	starting bool
)

// Start opens the global container with modules. It fails with
// ALREADY_STARTED while a container is running or being opened. The lock is
// not held during the open, so eager factories that reach for the global
// container see NOT_INITIALIZED instead of blocking.
func Start(modules []*di.Module, opts ...di.Option) error {
	mu.Lock()
	if current != nil || starting {
		mu.Unlock()
		return errors.AlreadyStarted()
	}
	starting = true
	mu.Unlock()

	c, err := di.Open(modules, opts...)

	mu.Lock()
	defer mu.Unlock()
	starting = false
	if err != nil {
		return err
	}
	if current != nil {
		_ = c.Close()
		return errors.AlreadyStarted()
	}
	current = c
	return nil
}

// Stop closes the global container. Stopping when nothing is started is a
// no-op.
func Stop() error {
	mu.Lock()
	c := current
	current = nil
	mu.Unlock()

	if c == nil {
		return nil
	}
	return c.Close()
}

// Get returns the running container or NOT_INITIALIZED.
func Get() (*di.Container, error) {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return nil, errors.NotInitialized("")
	}
	return current, nil
}

// GetOrNil returns the running container, or nil.
func GetOrNil() *di.Container {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// LoadModules loads modules into the running container.
func LoadModules(modules ...*di.Module) error {
	c, err := Get()
	if err != nil {
		return err
	}
	return c.Load(modules...)
}

// UnloadModules unloads modules from the running container.
func UnloadModules(modules ...*di.Module) error {
	c, err := Get()
	if err != nil {
		return err
	}
	return c.Unload(modules...)
}

// Resolve resolves T from the running container.
func Resolve[T any]() (T, error) {
	c, err := Get()
	if err != nil {
		var zero T
		return zero, err
	}
	return di.Resolve[T](c)
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any]() T {
	v, err := Resolve[T]()
	if err != nil {
		panic("global: " + err.Error())
	}
	return v
}
