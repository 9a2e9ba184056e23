package component

import (
	"sync"

	"github.com/kbukum/injector/di"
	"github.com/kbukum/injector/global"
)

// Accessor returns the container a Lazy resolves through.
type Accessor func() (*di.Container, error)

// Lazy resolves T through its accessor the first time Get succeeds and
// returns the same value afterwards. Failed attempts are not cached, so a
// field read before the container starts works once it has started.
//
// A Lazy must not be copied after first use.
type Lazy[T any] struct {
	accessor Accessor

	mu       sync.Mutex
	resolved bool
	value    T
}

// Inject returns a Lazy bound to accessor.
func Inject[T any](accessor Accessor) Lazy[T] {
	return Lazy[T]{accessor: accessor}
}

// InjectGlobal returns a Lazy bound to the global container.
func InjectGlobal[T any]() Lazy[T] {
	return Inject[T](global.Get)
}

// InjectFrom returns a Lazy bound to c.
func InjectFrom[T any](c *di.Container) Lazy[T] {
	return Inject[T](func() (*di.Container, error) { return c, nil })
}

// Get returns the cached instance or resolves it. Errors from the accessor
// and the container are returned unchanged.
func (l *Lazy[T]) Get() (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.resolved {
		return l.value, nil
	}
	var zero T
	if l.accessor == nil {
		return zero, errNoAccessor()
	}
	c, err := l.accessor()
	if err != nil {
		return zero, err
	}
	v, err := di.Resolve[T](c)
	if err != nil {
		return zero, err
	}
	l.value, l.resolved = v, true
	return v, nil
}

// MustGet is like Get but panics on error.
func (l *Lazy[T]) MustGet() T {
	v, err := l.Get()
	if err != nil {
		panic("component: " + err.Error())
	}
	return v
}

// Resolved reports whether Get has succeeded.
func (l *Lazy[T]) Resolved() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resolved
}
