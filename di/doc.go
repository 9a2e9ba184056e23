// Package di is a type-keyed dependency injection container.
//
// Types are registered on a Module with a factory and a lifecycle, then
// loaded into a Container. Each Container is an isolated world: it owns its
// own registry and its own realized singletons.
//
// # Registration
//
//	m := di.NewModule("storage")
//	di.Single[*DB](m, func(*di.Resolution) (*DB, error) {
//	    return OpenDB()
//	})
//	di.Single[*Repo](m, func(rc *di.Resolution) (*Repo, error) {
//	    return NewRepo(di.Arg[*DB](rc)), nil
//	}, di.WithConstructor(NewRepo))
//
// # Resolution
//
//	c, err := di.Open([]*di.Module{m})
//	repo, err := di.Resolve[*Repo](c)
//
// # Constructor inference
//
// A definition that declares its constructor with WithConstructor may call
// Arg or Resolution.Get without naming a type. The factory first runs as a
// dry run in which those calls return zero values or Placeholder, which maps
// the k-th call to the constructor's k-th parameter. The factory then runs
// for real with each call resolving the mapped type. An explicit index,
// Arg[T](rc, 1), selects a parameter directly. Get[T] always resolves
// immediately, in both passes.
//
// Nested resolutions form a per-call chain; revisiting a type in the chain
// fails with a CIRCULAR_DEPENDENCY error that lists the chain.
package di
