package di

import (
	"bytes"
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/injector/errors"
	"github.com/kbukum/injector/logger"
	"github.com/kbukum/injector/observability"
)

type Database struct{ id int64 }

type Repository struct{ DB *Database }

func NewRepository(db *Database) *Repository { return &Repository{DB: db} }

type Cache struct{ name string }

type Service struct {
	Repo  *Repository
	Cache *Cache
}

func NewService(repo *Repository, cache *Cache) *Service {
	return &Service{Repo: repo, Cache: cache}
}

// counter hands out increasing ids so distinct instances are easy to tell apart.
type counter struct{ n atomic.Int64 }

func (c *counter) next() int64 { return c.n.Add(1) }

func newTestContainer(t *testing.T, opts ...Option) *Container {
	t.Helper()
	c := New(append([]Option{WithLogger(logger.Nop())}, opts...)...)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func storageModule(calls *counter) *Module {
	m := NewModule("storage")
	Single[*Database](m, func(*Resolution) (*Database, error) {
		return &Database{id: calls.next()}, nil
	})
	Single[*Repository](m, func(rc *Resolution) (*Repository, error) {
		return NewRepository(Arg[*Database](rc)), nil
	}, WithConstructor(NewRepository))
	return m
}

func TestSingletonIdentity(t *testing.T) {
	c := newTestContainer(t)
	var calls counter
	require.NoError(t, c.Load(storageModule(&calls)))

	first := MustResolve[*Database](c)
	for range 5 {
		assert.Same(t, first, MustResolve[*Database](c))
	}
	assert.Equal(t, int64(1), calls.n.Load())
}

func TestFactoryDistinct(t *testing.T) {
	c := newTestContainer(t)
	var calls counter
	m := NewModule("cache")
	Factory[*Cache](m, func(*Resolution) (*Cache, error) {
		calls.next()
		return &Cache{}, nil
	})
	require.NoError(t, c.Load(m))

	seen := map[*Cache]bool{}
	for range 4 {
		seen[MustResolve[*Cache](c)] = true
	}
	assert.Len(t, seen, 4)
	assert.Equal(t, int64(4), calls.n.Load())
}

func TestRepositoryShareDatabase(t *testing.T) {
	c := newTestContainer(t)
	var calls counter
	require.NoError(t, c.Load(storageModule(&calls)))

	repo, err := Resolve[*Repository](c)
	require.NoError(t, err)
	db, err := Resolve[*Database](c)
	require.NoError(t, err)
	assert.Same(t, db, repo.DB)
}

func TestInstance(t *testing.T) {
	c := newTestContainer(t)
	cache := &Cache{name: "prebuilt"}
	m := NewModule("prebuilt")
	Instance(m, cache)
	require.NoError(t, c.Load(m))

	assert.Same(t, cache, MustResolve[*Cache](c))
}

type Store interface{ Get(key string) string }

type memStore struct{}

func (memStore) Get(key string) string { return "v:" + key }

func TestInterfaceKey(t *testing.T) {
	c := newTestContainer(t)
	m := NewModule("store")
	Single[Store](m, func(*Resolution) (Store, error) { return memStore{}, nil })
	require.NoError(t, c.Load(m))

	s, err := Resolve[Store](c)
	require.NoError(t, err)
	assert.Equal(t, "v:a", s.Get("a"))
	assert.Equal(t, "di.Store", KeyOf[Store]().String())
}

func TestDefinitionNotFound(t *testing.T) {
	c := newTestContainer(t)
	var calls counter
	require.NoError(t, c.Load(storageModule(&calls)))

	_, err := Resolve[*Cache](c)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDefinitionNotFound)
	assert.Contains(t, err.Error(), "*di.Database, *di.Repository")

	_, ok := TryResolve[*Cache](c)
	assert.False(t, ok)
	assert.Panics(t, func() { MustResolve[*Cache](c) })
}

func TestFactoryErrorWrappedOnce(t *testing.T) {
	c := newTestContainer(t)
	cause := stderrors.New("connection refused")
	m := NewModule("broken")
	Single[*Database](m, func(*Resolution) (*Database, error) { return nil, cause })
	Single[*Repository](m, func(rc *Resolution) (*Repository, error) {
		db, err := Get[*Database](rc)
		if err != nil {
			return nil, err
		}
		return NewRepository(db), nil
	})
	require.NoError(t, c.Load(m))

	_, err := Resolve[*Repository](c)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrFactoryFailed)
	assert.ErrorIs(t, err, cause)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "*di.Database", appErr.Details["type"])
}

func TestNestedEngineErrorVerbatim(t *testing.T) {
	c := newTestContainer(t)
	m := NewModule("repo")
	Single[*Repository](m, func(rc *Resolution) (*Repository, error) {
		db, err := Get[*Database](rc)
		if err != nil {
			return nil, err
		}
		return NewRepository(db), nil
	})
	require.NoError(t, c.Load(m))

	_, err := Resolve[*Repository](c)
	assert.True(t, errors.HasCode(err, errors.ErrCodeDefinitionNotFound))
	assert.False(t, errors.HasCode(err, errors.ErrCodeFactoryFailed))
}

func TestFailedSingletonIsRetriedOnNextCall(t *testing.T) {
	c := newTestContainer(t)
	var calls counter
	m := NewModule("flaky")
	Single[*Database](m, func(*Resolution) (*Database, error) {
		if calls.next() == 1 {
			return nil, stderrors.New("first attempt fails")
		}
		return &Database{}, nil
	})
	require.NoError(t, c.Load(m))

	_, err := Resolve[*Database](c)
	require.Error(t, err)
	assert.False(t, c.Registrations()[0].Realized)

	_, err = Resolve[*Database](c)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.n.Load())
}

func TestPanickingFactoryLeavesStoreClean(t *testing.T) {
	c := newTestContainer(t)
	var calls counter
	m := NewModule("panicky")
	Single[*Database](m, func(*Resolution) (*Database, error) {
		if calls.next() == 1 {
			panic("boom")
		}
		return &Database{}, nil
	})
	require.NoError(t, c.Load(m))

	assert.Panics(t, func() { _, _ = Resolve[*Database](c) })
	db, err := Resolve[*Database](c)
	require.NoError(t, err)
	assert.NotNil(t, db)
}

func TestIsolation(t *testing.T) {
	var callsA, callsB counter
	a := newTestContainer(t)
	b := newTestContainer(t)
	require.NoError(t, a.Load(storageModule(&callsA)))

	mb := NewModule("other")
	Single[*Database](mb, func(*Resolution) (*Database, error) {
		return &Database{id: 100 + callsB.next()}, nil
	})
	require.NoError(t, b.Load(mb))

	dbA := MustResolve[*Database](a)
	dbB := MustResolve[*Database](b)
	assert.NotSame(t, dbA, dbB)
	assert.Equal(t, int64(101), dbB.id)

	require.NoError(t, a.Close())
	assert.Same(t, dbB, MustResolve[*Database](b))
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestSameModuleInTwoContainers(t *testing.T) {
	var calls counter
	m := storageModule(&calls)
	a := newTestContainer(t)
	b := newTestContainer(t)
	require.NoError(t, a.Load(m))
	require.NoError(t, b.Load(m))

	assert.NotSame(t, MustResolve[*Repository](a), MustResolve[*Repository](b))
}

type closer struct {
	name  string
	order *[]string
	err   error
}

func (c *closer) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

type firstCloser struct{ *closer }
type secondCloser struct{ *closer }

func TestCloseClosesInReverseRealizationOrder(t *testing.T) {
	var order []string
	c := newTestContainer(t)
	m := NewModule("closers")
	Single[*firstCloser](m, func(*Resolution) (*firstCloser, error) {
		return &firstCloser{&closer{name: "first", order: &order}}, nil
	})
	Single[*secondCloser](m, func(rc *Resolution) (*secondCloser, error) {
		if _, err := Get[*firstCloser](rc); err != nil {
			return nil, err
		}
		return &secondCloser{&closer{name: "second", order: &order}}, nil
	})
	require.NoError(t, c.Load(m))
	MustResolve[*secondCloser](c)

	require.NoError(t, c.Close())
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestCloseJoinsCloserErrors(t *testing.T) {
	var order []string
	c := newTestContainer(t)
	m := NewModule("closers")
	boom := stderrors.New("boom")
	Instance(m, &firstCloser{&closer{name: "first", order: &order, err: boom}})
	require.NoError(t, c.Load(m))
	MustResolve[*firstCloser](c)

	err := c.Close()
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, c.Close(), "second close is a no-op")
}

func TestWithCloseInstancesDisabled(t *testing.T) {
	var order []string
	c := newTestContainer(t, WithCloseInstances(false))
	m := NewModule("closers")
	Instance(m, &firstCloser{&closer{name: "first", order: &order}})
	require.NoError(t, c.Load(m))
	MustResolve[*firstCloser](c)

	require.NoError(t, c.Close())
	assert.Empty(t, order)
}

func TestClosedContainerRejectsOperations(t *testing.T) {
	c := newTestContainer(t)
	var calls counter
	m := storageModule(&calls)
	require.NoError(t, c.Load(m))
	require.NoError(t, c.Close())
	assert.True(t, c.IsClosed())

	_, err := Resolve[*Database](c)
	assert.ErrorIs(t, err, errors.ErrContainerClosed)
	assert.ErrorIs(t, c.Load(NewModule("late")), errors.ErrContainerClosed)
	assert.ErrorIs(t, c.Unload(m), errors.ErrContainerClosed)
	assert.Empty(t, c.Registrations())
}

func TestOpen(t *testing.T) {
	var calls counter
	c, err := Open([]*Module{storageModule(&calls)}, WithLogger(logger.Nop()), WithName("app"))
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "app", c.Name())
	assert.Len(t, c.Registrations(), 2)

	_, err = Open([]*Module{storageModule(&calls), storageModule(&calls)}, WithLogger(logger.Nop()))
	assert.ErrorIs(t, err, errors.ErrDuplicateDefinition)
}

func TestRegistrations(t *testing.T) {
	c := newTestContainer(t)
	var calls counter
	require.NoError(t, c.Load(storageModule(&calls)))
	MustResolve[*Database](c)

	regs := c.Registrations()
	require.Len(t, regs, 2)
	assert.Equal(t, KeyOf[*Database](), regs[0].Key)
	assert.Equal(t, LifecycleSingleton, regs[0].Lifecycle)
	assert.True(t, regs[0].Realized)
	assert.Equal(t, "storage", regs[0].Module)
	assert.Equal(t, KeyOf[*Repository](), regs[1].Key)
	assert.False(t, regs[1].Realized)
}

func TestNilFactoryPanics(t *testing.T) {
	m := NewModule("nil")
	assert.Panics(t, func() { Single[*Database](m, nil) })
}

func TestContainerLogsWithContainerID(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
	c := newTestContainer(t, WithLogger(log))
	var calls counter
	require.NoError(t, c.Load(storageModule(&calls)))
	MustResolve[*Database](c)

	out := buf.String()
	assert.Contains(t, out, `"message":"module loaded"`)
	assert.Contains(t, out, `"message":"singleton realized"`)
	assert.Contains(t, out, `"container_id":"`+c.ID()+`"`)
	assert.Contains(t, out, `"component":"di"`)
}

func TestCheckHealth(t *testing.T) {
	c := newTestContainer(t, WithName("health"))
	h := c.CheckHealth(context.Background())
	assert.Equal(t, observability.HealthStatusUp, h.Status)
	assert.Equal(t, "health", h.Name)

	require.NoError(t, c.Close())
	assert.Equal(t, observability.HealthStatusDown, c.CheckHealth(context.Background()).Status)
}

func TestKeyAndLifecycleText(t *testing.T) {
	assert.Equal(t, "<nil>", Key{}.String())
	assert.True(t, Key{}.IsZero())
	assert.Equal(t, KeyOf[*Database](), KeyFor(KeyOf[*Database]().Type()))

	text, err := KeyOf[*Cache]().MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "*di.Cache", string(text))
	assert.Equal(t, "factory", LifecycleFactory.String())
}
