package di

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/kbukum/injector/errors"
)

// entry is a singleton slot. The goroutine that creates the entry owns the
// claim; others wait on done.
type entry struct {
	b        *binding
	done     chan struct{}
	instance any
	err      error
	ready    bool
	seq      uint64
}

// store holds realized singletons per key.
type store struct {
	mu      sync.Mutex
	entries map[Key]*entry
	seq     uint64
}

func newStore() *store {
	return &store{entries: make(map[Key]*entry)}
}

// cached returns the realized instance of b, if any.
func (s *store) cached(k Key, b *binding) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[k]
	if !ok || e.b != b || !e.ready {
		return nil, false
	}
	return e.instance, true
}

// getOrCreate returns the instance for b. Factory bindings always call
// create. Singleton bindings call create at most once per claim; concurrent
// callers wait for the claim and share its instance or its error. A failed
// or panicking create removes the claim.
func (s *store) getOrCreate(k Key, b *binding, create func() (any, error)) (instance any, created bool, err error) {
	if b.def.lifecycle == LifecycleFactory {
		v, err := create()
		return v, err == nil, err
	}

	s.mu.Lock()
	if e, ok := s.entries[k]; ok && e.b == b {
		if e.ready {
			s.mu.Unlock()
			return e.instance, false, nil
		}
		s.mu.Unlock()
		<-e.done
		return e.instance, false, e.err
	}
	e := &entry{b: b, done: make(chan struct{})}
	s.entries[k] = e
	s.mu.Unlock()

	finished := false
	defer func() {
		if finished {
			return
		}
		s.mu.Lock()
		if s.entries[k] == e {
			delete(s.entries, k)
		}
		s.mu.Unlock()
		e.err = errors.Internal(fmt.Errorf("factory for %s panicked", k))
		close(e.done)
	}()

	v, err := create()
	finished = true

	s.mu.Lock()
	if err != nil {
		if s.entries[k] == e {
			delete(s.entries, k)
		}
		e.err = err
	} else {
		s.seq++
		e.instance, e.ready, e.seq = v, true, s.seq
	}
	s.mu.Unlock()
	close(e.done)

	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// evict drops the entries for keys. Claims in progress finish for their own
// callers but are no longer served.
func (s *store) evict(keys []Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
}

// realized reports whether b has a realized instance.
func (s *store) realized(k Key, b *binding) bool {
	_, ok := s.cached(k, b)
	return ok
}

func (s *store) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.ready {
			n++
		}
	}
	return n
}

// drain empties the store and returns the realized instances, most
// recently realized first.
func (s *store) drain() []realizedInstance {
	s.mu.Lock()
	out := make([]realizedInstance, 0, len(s.entries))
	for k, e := range s.entries {
		if e.ready {
			out = append(out, realizedInstance{key: k, instance: e.instance, seq: e.seq})
		}
	}
	s.entries = make(map[Key]*entry)
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b realizedInstance) int {
		return cmp.Compare(b.seq, a.seq)
	})
	return out
}

type realizedInstance struct {
	key      Key
	instance any
	seq      uint64
}
