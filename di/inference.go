package di

import (
	"context"
	"fmt"

	"github.com/kbukum/injector/errors"
	"github.com/kbukum/injector/observability"
)

// construct builds one instance of def below parent. Definitions with a
// declared constructor run a dry run first to map inference calls to
// parameters, then the real pass.
func (c *Container) construct(ctx context.Context, parent *frame, def *Definition) (any, error) {
	f := &frame{key: def.key, parent: parent}
	if def.ctor == nil {
		return c.invoke(ctx, newResolution(ctx, c, f, def, passDirect, nil))
	}
	if def.ctor.err != "" {
		return nil, errors.TypeInference(def.key.String(), def.ctor.err)
	}

	plan, err := c.plan(ctx, f, def)
	if err != nil {
		return nil, err
	}
	for _, k := range plan {
		if f.contains(k) {
			return nil, errors.CircularDependency(f.chain(k))
		}
	}
	return c.invoke(ctx, newResolution(ctx, c, f, def, passReal, plan))
}

// invoke runs the factory for a direct or real pass.
func (c *Container) invoke(ctx context.Context, rc *Resolution) (any, error) {
	c.inst.FactoryInvoked(ctx, rc.def.key.String(), observability.PassReal)
	v, err := call(rc)
	if sticky := rc.finish(); sticky != nil {
		return nil, sticky
	}
	if err != nil {
		if _, ok := err.(*errors.AppError); ok {
			return nil, err
		}
		return nil, errors.FactoryFailed(rc.def.key.String(), err)
	}
	return v, nil
}

// call runs the factory of rc, recovering an abort raised by one of its
// inference calls.
func call(rc *Resolution) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			v, err = nil, rc.recoverAbort(p)
		}
	}()
	return rc.def.factory(rc)
}

// plan returns the parameter key for each inference call of def's factory.
func (c *Container) plan(ctx context.Context, f *frame, def *Definition) ([]Key, error) {
	if p, ok := def.cachedPlan(); ok {
		return p, nil
	}

	rc := newResolution(ctx, c, f, def, passDryRun, nil)
	if err := c.dryRun(ctx, rc); err != nil {
		return nil, err
	}

	params := def.ctor.params
	plan := make([]Key, len(rc.slots))
	for i, s := range rc.slots {
		switch {
		case s.explicit && (s.index < 0 || s.index >= len(params)):
			return nil, errors.TypeInference(def.key.String(),
				fmt.Sprintf("argument index %d out of range for %d constructor parameters", s.index, len(params)))
		case !s.explicit && s.index >= len(params):
			return nil, errors.ResolutionContext(
				fmt.Sprintf("too many inference calls for %s: constructor declares %d parameters", def.key, len(params)))
		}
		p := params[s.index]
		if s.want != nil && !p.AssignableTo(s.want) {
			return nil, errors.TypeInference(def.key.String(),
				fmt.Sprintf("parameter %d is %s, not assignable to %s", s.index, p, s.want))
		}
		plan[i] = KeyFor(p)
	}

	def.storePlan(plan)
	return plan, nil
}

// dryRun runs the factory with placeholder arguments. Its result is
// discarded. Engine errors from explicit resolutions pass through; anything
// else the factory reports becomes a type inference error.
func (c *Container) dryRun(ctx context.Context, rc *Resolution) (err error) {
	c.inst.FactoryInvoked(ctx, rc.def.key.String(), observability.PassDryRun)
	defer func() {
		if p := recover(); p != nil {
			rc.finish()
			if a, ok := p.(abort); ok && a.r == rc {
				err = a.err
				return
			}
			err = errors.TypeInference(rc.def.key.String(), fmt.Sprintf("factory panicked during dry run: %v", p))
		}
	}()

	_, ferr := rc.def.factory(rc)
	if sticky := rc.finish(); sticky != nil {
		return sticky
	}
	if ferr != nil {
		if _, ok := ferr.(*errors.AppError); ok {
			return ferr
		}
		return errors.TypeInference(rc.def.key.String(), "factory failed during dry run").WithCause(ferr)
	}
	return nil
}
