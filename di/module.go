package di

// Module is an ordered group of definitions loaded and unloaded together.
// Definitions should all be added before the module is loaded.
type Module struct {
	name  string
	eager *bool
	defs  []*Definition
}

// ModuleOption configures a Module.
type ModuleOption interface {
	applyModule(m *Module)
}

// NewModule creates an empty module.
func NewModule(name string, opts ...ModuleOption) *Module {
	m := &Module{name: name}
	for _, opt := range opts {
		opt.applyModule(m)
	}
	return m
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// Eager returns the module-level eager flag and whether it was set.
func (m *Module) Eager() (eager, set bool) {
	if m.eager == nil {
		return false, false
	}
	return *m.eager, true
}

// Definitions returns the module's definitions in registration order.
func (m *Module) Definitions() []*Definition {
	out := make([]*Definition, len(m.defs))
	copy(out, m.defs)
	return out
}

// Add appends a definition built from an untyped factory. Most callers use
// Single, Factory or Instance instead.
func (m *Module) Add(key Key, lifecycle Lifecycle, factory FactoryFunc, opts ...DefinitionOption) *Definition {
	if factory == nil {
		panic("di: nil factory for " + key.String())
	}
	d := &Definition{
		key:       key,
		factory:   factory,
		lifecycle: lifecycle,
		module:    m.name,
	}
	for _, opt := range opts {
		opt.applyDefinition(d)
	}
	m.defs = append(m.defs, d)
	return d
}

// Single registers T as a singleton built by factory.
func Single[T any](m *Module, factory func(rc *Resolution) (T, error), opts ...DefinitionOption) *Definition {
	return m.Add(KeyOf[T](), LifecycleSingleton, adapt(factory), opts...)
}

// Factory registers T with a new instance built on every resolution.
func Factory[T any](m *Module, factory func(rc *Resolution) (T, error), opts ...DefinitionOption) *Definition {
	return m.Add(KeyOf[T](), LifecycleFactory, adapt(factory), opts...)
}

// Instance registers an already built value as the singleton for T.
func Instance[T any](m *Module, v T, opts ...DefinitionOption) *Definition {
	return m.Add(KeyOf[T](), LifecycleSingleton, func(*Resolution) (any, error) {
		return v, nil
	}, opts...)
}

func adapt[T any](factory func(rc *Resolution) (T, error)) FactoryFunc {
	if factory == nil {
		return nil
	}
	return func(rc *Resolution) (any, error) {
		v, err := factory(rc)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}
