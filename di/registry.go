package di

import (
	"slices"
	"sync"

	"github.com/kbukum/injector/errors"
)

// binding is one registration of a definition. A definition loaded, unloaded
// and loaded again gets a new binding, so instances cached for the old
// binding are never served for the new one.
type binding struct {
	def   *Definition
	eager bool
}

// registry maps keys to bindings. Mutations are all-or-nothing.
type registry struct {
	mu       sync.RWMutex
	bindings map[Key]*binding
	order    []Key
}

func newRegistry() *registry {
	return &registry{bindings: make(map[Key]*binding)}
}

// register adds every binding or none. It fails on a key that is already
// registered or that appears twice in the batch.
func (r *registry) register(batch []*binding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[Key]struct{}, len(batch))
	for _, b := range batch {
		k := b.def.key
		if existing, ok := r.bindings[k]; ok {
			return errors.DuplicateDefinition(k.String(), existing.def.module).
				WithDetail("incoming_module", b.def.module)
		}
		if _, ok := seen[k]; ok {
			return errors.DuplicateDefinition(k.String(), b.def.module)
		}
		seen[k] = struct{}{}
	}
	for _, b := range batch {
		r.bindings[b.def.key] = b
		r.order = append(r.order, b.def.key)
	}
	return nil
}

// unregister removes every definition or none. Each key must currently be
// bound to that exact definition.
func (r *registry) unregister(defs []*Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range defs {
		b, ok := r.bindings[d.key]
		if !ok || b.def != d {
			return errors.NotLoaded(d.key.String(), d.module)
		}
	}
	for _, d := range defs {
		delete(r.bindings, d.key)
	}
	r.order = slices.DeleteFunc(r.order, func(k Key) bool {
		_, ok := r.bindings[k]
		return !ok
	})
	return nil
}

func (r *registry) lookup(k Key) (*binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[k]
	return b, ok
}

// list returns the bindings in registration order.
func (r *registry) list() []*binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*binding, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.bindings[k])
	}
	return out
}

// names returns the registered type names, sorted.
func (r *registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, k.String())
	}
	slices.Sort(out)
	return out
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *registry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings = make(map[Key]*binding)
	r.order = nil
}
