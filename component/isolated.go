package component

import (
	"github.com/kbukum/injector/di"
	"github.com/kbukum/injector/errors"
)

// Isolated is implemented by types that resolve through their own container
// instead of the global one.
type Isolated interface {
	Container() *di.Container
}

// Get resolves T through the container of iso.
func Get[T any](iso Isolated) (T, error) {
	var zero T
	if iso == nil {
		return zero, errors.NotInitialized("isolated component is nil")
	}
	c := iso.Container()
	if c == nil {
		return zero, errors.NotInitialized("isolated component has no container")
	}
	return di.Resolve[T](c)
}

// LazyFrom returns a Lazy bound to the container of iso. The container is looked
// up on each attempt until one succeeds.
func LazyFrom[T any](iso Isolated) Lazy[T] {
	return Inject[T](func() (*di.Container, error) {
		if iso == nil || iso.Container() == nil {
			return nil, errors.NotInitialized("isolated component has no container")
		}
		return iso.Container(), nil
	})
}

func errNoAccessor() error {
	return errors.NotInitialized("lazy field was not created with Inject")
}
