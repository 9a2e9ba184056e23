package di

import (
	"fmt"
	"reflect"
	"sync/atomic"
)

// Lifecycle determines how many instances a definition produces.
type Lifecycle int

const (
	// LifecycleSingleton produces one instance per container.
	LifecycleSingleton Lifecycle = iota
	// LifecycleFactory produces a new instance per resolution.
	LifecycleFactory
)

func (l Lifecycle) String() string {
	switch l {
	case LifecycleSingleton:
		return "singleton"
	case LifecycleFactory:
		return "factory"
	default:
		return fmt.Sprintf("lifecycle(%d)", int(l))
	}
}

// MarshalText renders the lifecycle name.
func (l Lifecycle) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// FactoryFunc builds an instance. The Resolution gives access to the
// container for dependencies.
type FactoryFunc func(rc *Resolution) (any, error)

// Definition describes one registered type. It is immutable once created.
type Definition struct {
	key       Key
	factory   FactoryFunc
	lifecycle Lifecycle
	eager     *bool
	module    string
	ctor      *constructor

	// plan memoizes the dry-run mapping for singletons.
	plan atomic.Pointer[[]Key]
}

// Key returns the registered type.
func (d *Definition) Key() Key { return d.key }

// Lifecycle returns the definition lifecycle.
func (d *Definition) Lifecycle() Lifecycle { return d.lifecycle }

// Module returns the name of the declaring module.
func (d *Definition) Module() string { return d.module }

// Eager returns the definition-level eager flag and whether it was set.
func (d *Definition) Eager() (eager, set bool) {
	if d.eager == nil {
		return false, false
	}
	return *d.eager, true
}

// Params returns the declared constructor parameter types, or nil when no
// constructor was declared.
func (d *Definition) Params() []Key {
	if d.ctor == nil {
		return nil
	}
	keys := make([]Key, len(d.ctor.params))
	for i, p := range d.ctor.params {
		keys[i] = KeyFor(p)
	}
	return keys
}

func (d *Definition) cachedPlan() ([]Key, bool) {
	if d.lifecycle != LifecycleSingleton {
		return nil, false
	}
	p := d.plan.Load()
	if p == nil {
		return nil, false
	}
	return *p, true
}

func (d *Definition) storePlan(plan []Key) {
	if d.lifecycle == LifecycleSingleton {
		d.plan.Store(&plan)
	}
}

// constructor is the parameter metadata of a declared constructor.
type constructor struct {
	fn     reflect.Type
	params []reflect.Type
	err    string
}

// analyzeConstructor records the positional parameter types of ctor. A
// variadic tail is not part of the inferable parameters. Parameters of type
// any carry no resolvable type.
func analyzeConstructor(ctor any) *constructor {
	if ctor == nil {
		return &constructor{err: "constructor is nil"}
	}
	t := reflect.TypeOf(ctor)
	if t.Kind() != reflect.Func {
		return &constructor{err: fmt.Sprintf("constructor must be a function, got %s", t)}
	}
	n := t.NumIn()
	if t.IsVariadic() {
		n--
	}
	c := &constructor{fn: t, params: make([]reflect.Type, 0, n)}
	for i := 0; i < n; i++ {
		p := t.In(i)
		if p.Kind() == reflect.Interface && p.NumMethod() == 0 {
			c.err = fmt.Sprintf("parameter %d of %s has no resolvable type", i, t)
			return c
		}
		c.params = append(c.params, p)
	}
	return c
}

// DefinitionOption configures a Definition.
type DefinitionOption interface {
	applyDefinition(d *Definition)
}

type definitionOptionFunc func(d *Definition)

func (f definitionOptionFunc) applyDefinition(d *Definition) { f(d) }

// WithConstructor declares the constructor whose parameters the factory's
// inference calls map to, enabling the dry-run pass.
func WithConstructor(ctor any) DefinitionOption {
	return definitionOptionFunc(func(d *Definition) {
		d.ctor = analyzeConstructor(ctor)
	})
}

// EagerOption sets eager creation at load time. It applies to both modules
// and definitions; a definition's setting wins over its module's.
type EagerOption struct {
	eager bool
}

// CreatedAtStart returns an option that creates singletons when loaded.
func CreatedAtStart(eager bool) EagerOption {
	return EagerOption{eager: eager}
}

func (o EagerOption) applyDefinition(d *Definition) {
	v := o.eager
	d.eager = &v
}

func (o EagerOption) applyModule(m *Module) {
	v := o.eager
	m.eager = &v
}
