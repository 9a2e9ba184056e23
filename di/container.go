package di

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/injector/errors"
	"github.com/kbukum/injector/logger"
	"github.com/kbukum/injector/observability"
)

// Container resolves registered types. It is safe for concurrent use.
type Container struct {
	id             string
	name           string
	log            *logger.Logger
	inst           *observability.Instrumentation
	eager          bool
	closeInstances bool

	registry *registry
	store    *store

	// mutation serializes Load, Unload and Close.
	mutation sync.Mutex
	// state guards closed; inflight counts top-level resolutions.
	state    sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// RegistrationInfo describes a registered type for introspection.
type RegistrationInfo struct {
	Key       Key       `json:"type"`
	Lifecycle Lifecycle `json:"lifecycle"`
	Eager     bool      `json:"eager"`
	Realized  bool      `json:"realized"`
	Module    string    `json:"module"`
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the container logger. The default is the global logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Container) { c.log = l }
}

// WithEagerInit sets the container-wide default for creating singletons at
// load. Module and definition settings take precedence.
func WithEagerInit(eager bool) Option {
	return func(c *Container) { c.eager = eager }
}

// WithInstrumentation records traces and metrics for every resolution.
func WithInstrumentation(inst *observability.Instrumentation) Option {
	return func(c *Container) { c.inst = inst }
}

// WithName names the container in logs and diagnostics.
func WithName(name string) Option {
	return func(c *Container) { c.name = name }
}

// WithCloseInstances controls whether Close calls Close on realized
// singletons that implement io.Closer. Enabled by default.
func WithCloseInstances(enabled bool) Option {
	return func(c *Container) { c.closeInstances = enabled }
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		id:             uuid.NewString(),
		name:           "default",
		closeInstances: true,
		registry:       newRegistry(),
		store:          newStore(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.GetGlobalLogger()
	}
	c.log = c.log.WithComponent("di").WithFields(logger.Fields(
		logger.FieldContainerID, c.id,
		logger.FieldContainer, c.name,
	))
	return c
}

// Open creates a container and loads modules into it. If loading fails the
// container is closed.
func Open(modules []*Module, opts ...Option) (*Container, error) {
	c := New(opts...)
	if err := c.Load(modules...); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// ID returns the unique container id.
func (c *Container) ID() string { return c.id }

// Name returns the container name.
func (c *Container) Name() string { return c.name }

// IsClosed reports whether Close has been called.
func (c *Container) IsClosed() bool {
	c.state.Lock()
	defer c.state.Unlock()
	return c.closed
}

// Load registers the definitions of modules. Registration is all-or-nothing:
// a type that is already registered, or registered twice in the batch, fails
// the whole call. Eager singletons of the batch are then created in
// registration order; if one fails the batch is unloaded again.
func (c *Container) Load(modules ...*Module) error {
	c.mutation.Lock()
	defer c.mutation.Unlock()

	if c.IsClosed() {
		return errors.ContainerClosed("load")
	}

	var batch []*binding
	for _, m := range modules {
		moduleEager, moduleSet := m.Eager()
		for _, d := range m.defs {
			eager := c.eager
			if moduleSet {
				eager = moduleEager
			}
			if v, ok := d.Eager(); ok {
				eager = v
			}
			batch = append(batch, &binding{def: d, eager: eager && d.lifecycle == LifecycleSingleton})
		}
	}

	if err := c.registry.register(batch); err != nil {
		c.log.Debug("load rejected", logger.ErrorFields("load", err))
		return err
	}

	for _, b := range batch {
		if !b.eager {
			continue
		}
		if _, err := c.ResolveContext(context.Background(), b.def.key); err != nil {
			c.rollback(batch)
			c.log.Warn("eager initialization failed", logger.Fields(
				logger.FieldType, b.def.key.String(),
				logger.FieldModule, b.def.module,
				logger.FieldError, err.Error(),
			))
			return err
		}
	}

	for _, m := range modules {
		c.log.Debug("module loaded", logger.Fields(
			logger.FieldModule, m.name,
			logger.FieldCount, len(m.defs),
		))
	}
	return nil
}

func (c *Container) rollback(batch []*binding) {
	defs := make([]*Definition, len(batch))
	keys := make([]Key, len(batch))
	for i, b := range batch {
		defs[i], keys[i] = b.def, b.def.key
	}
	_ = c.registry.unregister(defs)
	c.store.evict(keys)
}

// Unload removes the definitions of modules and evicts their realized
// singletons. Every definition must be loaded, otherwise nothing is removed.
// Evicted instances are not closed.
func (c *Container) Unload(modules ...*Module) error {
	c.mutation.Lock()
	defer c.mutation.Unlock()

	if c.IsClosed() {
		return errors.ContainerClosed("unload")
	}

	var defs []*Definition
	var keys []Key
	for _, m := range modules {
		for _, d := range m.defs {
			defs = append(defs, d)
			keys = append(keys, d.key)
		}
	}
	if err := c.registry.unregister(defs); err != nil {
		return err
	}
	c.store.evict(keys)

	for _, m := range modules {
		c.log.Debug("module unloaded", logger.Fields(logger.FieldModule, m.name))
	}
	return nil
}

// Resolve returns the instance registered for k.
func (c *Container) Resolve(k Key) (any, error) {
	return c.ResolveContext(context.Background(), k)
}

// ResolveContext returns the instance registered for k. ctx carries tracing
// to the resolution spans and is available to factories.
func (c *Container) ResolveContext(ctx context.Context, k Key) (any, error) {
	if err := c.enter(); err != nil {
		return nil, err
	}
	defer c.inflight.Done()
	return c.resolve(ctx, nil, k)
}

func (c *Container) enter() error {
	c.state.Lock()
	defer c.state.Unlock()
	if c.closed {
		return errors.ContainerClosed("resolve")
	}
	c.inflight.Add(1)
	return nil
}

// resolve is the entry point for top-level and nested resolutions. parent
// is the chain of the enclosing resolution, nil at the top.
func (c *Container) resolve(ctx context.Context, parent *frame, k Key) (any, error) {
	b, ok := c.registry.lookup(k)
	if !ok {
		return nil, errors.DefinitionNotFound(k.String(), c.registry.names())
	}
	def := b.def

	ctx, span := c.inst.StartResolve(ctx, k.String(), def.lifecycle.String())

	if v, ok := c.store.cached(k, b); ok {
		span.End(ctx, observability.OutcomeCached, nil)
		return v, nil
	}
	if parent.contains(k) {
		err := errors.CircularDependency(parent.chain(k))
		span.End(ctx, observability.OutcomeError, err)
		return nil, err
	}

	ended := false
	defer func() {
		if !ended {
			span.End(ctx, observability.OutcomeError, errors.Internal(fmt.Errorf("factory for %s panicked", k)))
		}
	}()
	v, created, err := c.store.getOrCreate(k, b, func() (any, error) {
		return c.construct(ctx, parent, def)
	})
	ended = true
	switch {
	case err != nil:
		span.End(ctx, observability.OutcomeError, err)
		return nil, err
	case !created:
		span.End(ctx, observability.OutcomeCached, nil)
	default:
		span.End(ctx, observability.OutcomeCreated, nil)
		if def.lifecycle == LifecycleSingleton {
			c.log.Debug("singleton realized", logger.Fields(
				logger.FieldType, k.String(),
				logger.FieldLifecycle, def.lifecycle.String(),
				logger.FieldModule, def.module,
			))
		}
	}
	return v, nil
}

// Close closes the container. New calls fail with CONTAINER_CLOSED; Close
// waits for in-flight resolutions, then closes realized singletons that
// implement io.Closer, most recently created first, and drops all state.
// Close is idempotent.
func (c *Container) Close() error {
	c.mutation.Lock()
	defer c.mutation.Unlock()

	c.state.Lock()
	if c.closed {
		c.state.Unlock()
		return nil
	}
	c.closed = true
	c.state.Unlock()

	c.inflight.Wait()

	instances := c.store.drain()
	var errs []error
	if c.closeInstances {
		for _, ri := range instances {
			closer, ok := ri.instance.(io.Closer)
			if !ok {
				continue
			}
			if err := closer.Close(); err != nil {
				c.log.Warn("failed to close instance", logger.Fields(
					logger.FieldType, ri.key.String(),
					logger.FieldError, err.Error(),
				))
				errs = append(errs, fmt.Errorf("close %s: %w", ri.key, err))
			}
		}
	}
	c.registry.reset()

	c.log.Info("container closed", logger.Fields(logger.FieldCount, len(instances)))
	return stderrors.Join(errs...)
}

// Registrations returns the registered types in registration order.
func (c *Container) Registrations() []RegistrationInfo {
	bindings := c.registry.list()
	out := make([]RegistrationInfo, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, RegistrationInfo{
			Key:       b.def.key,
			Lifecycle: b.def.lifecycle,
			Eager:     b.eager,
			Realized:  c.store.realized(b.def.key, b),
			Module:    b.def.module,
		})
	}
	return out
}

// CheckHealth reports the container as down once closed.
func (c *Container) CheckHealth(context.Context) observability.Health {
	h := observability.Health{
		Name:   c.name,
		Status: observability.HealthStatusUp,
		Details: map[string]any{
			"id":            c.id,
			"registrations": c.registry.len(),
			"realized":      c.store.count(),
		},
	}
	if c.IsClosed() {
		h.Status = observability.HealthStatusDown
		h.Message = "container is closed"
	}
	return h
}
