package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/kbukum/injector/errors"
)

// frame is one link of the resolution chain. Frames are immutable; a nested
// resolution extends the chain with a child that only it can see.
type frame struct {
	key    Key
	parent *frame
}

func (f *frame) contains(k Key) bool {
	for ; f != nil; f = f.parent {
		if f.key == k {
			return true
		}
	}
	return false
}

// chain returns the keys from the root to f, followed by next.
func (f *frame) chain(next Key) []string {
	var keys []string
	for ; f != nil; f = f.parent {
		keys = append(keys, f.key.String())
	}
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return append(keys, next.String())
}

// Placeholder is returned by Resolution.Get during a dry run in place of a
// real dependency.
type Placeholder struct{}

// IsPlaceholder reports whether v is a dry-run placeholder.
func IsPlaceholder(v any) bool {
	_, ok := v.(Placeholder)
	return ok
}

type passMode int

const (
	// passDirect runs a factory that declared no constructor.
	passDirect passMode = iota
	passDryRun
	passReal
)

// slot is one inference call recorded during a dry run.
type slot struct {
	index    int
	explicit bool
	want     reflect.Type
}

// Resolution is the context handed to a factory while it builds one
// instance. It is valid only until the factory returns.
type Resolution struct {
	c     *Container
	ctx   context.Context
	frame *frame
	def   *Definition
	mode  passMode

	mu       sync.Mutex
	done     bool
	err      error
	implicit int
	slots    []slot
	plan     []Key
	cursor   int
}

func newResolution(ctx context.Context, c *Container, f *frame, def *Definition, mode passMode, plan []Key) *Resolution {
	return &Resolution{c: c, ctx: ctx, frame: f, def: def, mode: mode, plan: plan}
}

// Context returns the context of the resolve call. It carries the tracing
// span of the current resolution.
func (r *Resolution) Context() context.Context {
	if r == nil {
		return context.Background()
	}
	return r.ctx
}

// Key returns the type being built.
func (r *Resolution) Key() Key {
	if r == nil {
		return Key{}
	}
	return r.def.key
}

// DryRun reports whether this is the dry-run pass. Factories may use it to
// skip side effects that need real dependencies.
func (r *Resolution) DryRun() bool {
	return r != nil && r.mode == passDryRun
}

// Err returns the first error recorded by an inference call.
func (r *Resolution) Err() error {
	if r == nil {
		return errors.ResolutionContext("inference call outside of a resolution")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Resolve resolves k through the container immediately, in every pass.
func (r *Resolution) Resolve(k Key) (any, error) {
	if r == nil {
		return nil, errors.ResolutionContext("resolve called outside of a resolution")
	}
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done {
		return nil, errors.ResolutionContext(fmt.Sprintf("resolve of %s after the factory for %s returned", k, r.def.key))
	}
	return r.c.resolve(r.ctx, r.frame, k)
}

// Get resolves the next constructor argument by inferred type. index selects
// a constructor parameter explicitly. During a dry run it returns
// Placeholder. A failure stops the factory at this call and becomes the
// result of the resolution.
func (r *Resolution) Get(index ...int) any {
	v, _ := r.infer(nil, index)
	return v
}

// infer performs one inference call. It returns ok=false when the call
// produced no usable value, which only happens outside a running factory.
func (r *Resolution) infer(want reflect.Type, index []int) (any, bool) {
	if r == nil {
		return nil, false
	}
	k, dry, err := r.next(want, index)
	if err != nil {
		r.raise(err)
		return nil, false
	}
	if dry {
		return Placeholder{}, true
	}
	v, err := r.c.resolve(r.ctx, r.frame, k)
	if err != nil {
		r.raise(err)
		return nil, false
	}
	return v, true
}

// next records a dry-run slot or returns the planned key for a real call.
func (r *Resolution) next(want reflect.Type, index []int) (k Key, dry bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.done:
		return Key{}, false, errors.ResolutionContext(fmt.Sprintf("inference call after the factory for %s returned", r.def.key))
	case r.err != nil:
		return Key{}, false, r.err
	case len(index) > 1:
		return Key{}, false, errors.ResolutionContext(fmt.Sprintf("inference call for %s takes at most one index, got %d", r.def.key, len(index)))
	}

	switch r.mode {
	case passDryRun:
		s := slot{want: want}
		if len(index) == 1 {
			s.index, s.explicit = index[0], true
		} else {
			s.index = r.implicit
			r.implicit++
		}
		r.slots = append(r.slots, s)
		return Key{}, true, nil
	case passReal:
		if r.cursor >= len(r.plan) {
			return Key{}, false, errors.ResolutionContext(fmt.Sprintf("inference call %d for %s beyond the %d planned", r.cursor, r.def.key, len(r.plan)))
		}
		k = r.plan[r.cursor]
		r.cursor++
		return k, false, nil
	default:
		return Key{}, false, errors.TypeInference(r.def.key.String(), "no constructor declared; register it with di.WithConstructor")
	}
}

// abort unwinds a running factory from a failed inference call. It is
// recovered by the pass that invoked the factory.
type abort struct {
	r   *Resolution
	err error
}

// raise records err and, while the factory is still running, stops it.
// After the factory returned the error is only recorded.
func (r *Resolution) raise(err error) {
	r.mu.Lock()
	r.setErr(err)
	first, done := r.err, r.done
	r.mu.Unlock()
	if !done {
		panic(abort{r: r, err: first})
	}
}

// recoverAbort turns an abort raised for r back into its error. Other
// panics continue unwinding.
func (r *Resolution) recoverAbort(p any) error {
	a, ok := p.(abort)
	if !ok || a.r != r {
		panic(p)
	}
	return a.err
}

func (r *Resolution) setErr(err error) {
	if r.err == nil {
		r.err = err
	}
}

// finish marks the factory as returned and reports the sticky error.
func (r *Resolution) finish() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = true
	return r.err
}

// Get resolves T through the container immediately, in every pass.
func Get[T any](r *Resolution) (T, error) {
	var zero T
	v, err := r.Resolve(KeyOf[T]())
	if err != nil {
		return zero, err
	}
	return cast[T](v)
}

// Arg resolves the next constructor argument as T. index selects a
// constructor parameter explicitly. During a dry run it returns the zero T.
// A failure stops the factory at this call; outside a running factory the
// zero T is returned and Err reports the failure.
func Arg[T any](r *Resolution, index ...int) T {
	var zero T
	v, ok := r.infer(reflect.TypeFor[T](), index)
	if !ok || v == nil || IsPlaceholder(v) {
		return zero
	}
	t, err := cast[T](v)
	if err != nil {
		r.raise(err)
		return zero
	}
	return t
}

func cast[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.TypeInference(reflect.TypeFor[T]().String(),
			fmt.Sprintf("resolved instance is %T", v))
	}
	return t, nil
}
