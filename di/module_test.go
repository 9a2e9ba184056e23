package di

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/injector/errors"
)

func TestDuplicate_WithinBatchIsAtomic(t *testing.T) {
	c := newTestContainer(t)
	var calls counter
	storage := storageModule(&calls)
	other := NewModule("other")
	Single[*Cache](other, func(*Resolution) (*Cache, error) { return &Cache{}, nil })
	Single[*Database](other, func(*Resolution) (*Database, error) { return &Database{}, nil })

	err := c.Load(storage, other)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDuplicateDefinition)
	assert.Empty(t, c.Registrations(), "nothing from the batch is registered")
}

func TestDuplicate_LaterLoadLeavesPriorDefinition(t *testing.T) {
	c := newTestContainer(t)
	var calls counter
	require.NoError(t, c.Load(storageModule(&calls)))
	original := MustResolve[*Database](c)

	again := NewModule("again")
	Single[*Cache](again, func(*Resolution) (*Cache, error) { return &Cache{}, nil })
	Single[*Database](again, func(*Resolution) (*Database, error) { return &Database{id: -1}, nil })

	err := c.Load(again)
	require.Error(t, err)
	appErr, _ := errors.AsAppError(err)
	assert.Equal(t, "storage", appErr.Details["module"])
	assert.Equal(t, "again", appErr.Details["incoming_module"])

	assert.Same(t, original, MustResolve[*Database](c))
	_, ok := TryResolve[*Cache](c)
	assert.False(t, ok)
}

func TestDuplicate_SameModuleTwice(t *testing.T) {
	c := newTestContainer(t)
	var calls counter
	m := storageModule(&calls)
	assert.ErrorIs(t, c.Load(m, m), errors.ErrDuplicateDefinition)
	require.NoError(t, c.Load(m))
	assert.ErrorIs(t, c.Load(m), errors.ErrDuplicateDefinition)
}

func TestUnload_ReRegisterYieldsFreshInstance(t *testing.T) {
	c := newTestContainer(t)
	var calls counter
	m := storageModule(&calls)
	require.NoError(t, c.Load(m))

	repo := MustResolve[*Repository](c)
	db := MustResolve[*Database](c)
	require.Same(t, db, repo.DB)

	require.NoError(t, c.Unload(m))
	_, err := Resolve[*Database](c)
	assert.ErrorIs(t, err, errors.ErrDefinitionNotFound)

	require.NoError(t, c.Load(m))
	fresh := MustResolve[*Database](c)
	assert.NotSame(t, db, fresh)
	assert.Equal(t, int64(2), calls.n.Load())
}

func TestUnload_NotLoaded(t *testing.T) {
	c := newTestContainer(t)
	var calls counter
	m := storageModule(&calls)
	err := c.Unload(m)
	assert.ErrorIs(t, err, errors.ErrDefinitionNotFound)
	assert.Contains(t, err.Error(), "is not loaded")
}

func TestUnload_IsAtomic(t *testing.T) {
	c := newTestContainer(t)
	var calls counter
	loaded := storageModule(&calls)
	require.NoError(t, c.Load(loaded))
	db := MustResolve[*Database](c)

	notLoaded := NewModule("missing")
	Single[*Cache](notLoaded, func(*Resolution) (*Cache, error) { return &Cache{}, nil })

	assert.ErrorIs(t, c.Unload(loaded, notLoaded), errors.ErrDefinitionNotFound)
	assert.Len(t, c.Registrations(), 2)
	assert.Same(t, db, MustResolve[*Database](c), "realized singleton kept")
}

func TestUnload_DefinitionFromAnotherModuleWithSameType(t *testing.T) {
	c := newTestContainer(t)
	var calls counter
	require.NoError(t, c.Load(storageModule(&calls)))

	impostor := NewModule("impostor")
	Single[*Database](impostor, func(*Resolution) (*Database, error) { return &Database{}, nil })
	assert.ErrorIs(t, c.Unload(impostor), errors.ErrDefinitionNotFound)
	assert.Len(t, c.Registrations(), 2)
}

func TestEager_ModuleLevel(t *testing.T) {
	var dbCalls, cacheCalls counter
	c := newTestContainer(t)
	m := NewModule("eager", CreatedAtStart(true))
	Single[*Database](m, func(*Resolution) (*Database, error) {
		dbCalls.next()
		return &Database{}, nil
	})
	Single[*Cache](m, func(*Resolution) (*Cache, error) {
		cacheCalls.next()
		return &Cache{}, nil
	}, CreatedAtStart(false))
	Factory[*Report](m, func(*Resolution) (*Report, error) {
		t.Error("factory lifecycle must not be created eagerly")
		return &Report{}, nil
	})
	require.NoError(t, c.Load(m))

	assert.Equal(t, int64(1), dbCalls.n.Load())
	assert.Zero(t, cacheCalls.n.Load(), "definition flag overrides module flag")

	regs := c.Registrations()
	assert.True(t, regs[0].Eager)
	assert.True(t, regs[0].Realized)
	assert.False(t, regs[1].Eager)
	assert.False(t, regs[2].Eager)
}

func TestEager_ContainerDefaultAndPrecedence(t *testing.T) {
	var calls counter
	c := newTestContainer(t, WithEagerInit(true))
	plain := NewModule("plain")
	Single[*Database](plain, func(*Resolution) (*Database, error) {
		calls.next()
		return &Database{}, nil
	})
	lazy := NewModule("lazy", CreatedAtStart(false))
	Single[*Cache](lazy, func(*Resolution) (*Cache, error) {
		calls.next()
		return &Cache{}, nil
	})
	require.NoError(t, c.Load(plain, lazy))

	assert.Equal(t, int64(1), calls.n.Load())
	regs := c.Registrations()
	assert.True(t, regs[0].Realized)
	assert.False(t, regs[1].Realized)
}

func TestEager_InRegistrationOrderWithDependencies(t *testing.T) {
	var order []string
	c := newTestContainer(t)
	m := NewModule("ordered", CreatedAtStart(true))
	Single[*Repository](m, func(rc *Resolution) (*Repository, error) {
		order = append(order, "repo")
		return NewRepository(Arg[*Database](rc)), nil
	}, WithConstructor(NewRepository))
	Single[*Database](m, func(*Resolution) (*Database, error) {
		order = append(order, "db")
		return &Database{}, nil
	})
	require.NoError(t, c.Load(m))

	// Dry run of repo, then its real pass realizes db.
	assert.Equal(t, []string{"repo", "repo", "db"}, order)
}

func TestEager_FailureRollsBackBatch(t *testing.T) {
	boom := stderrors.New("boom")
	c := newTestContainer(t)
	m := NewModule("broken", CreatedAtStart(true))
	Single[*Database](m, func(*Resolution) (*Database, error) { return &Database{}, nil })
	Single[*Cache](m, func(*Resolution) (*Cache, error) { return nil, boom })

	err := c.Load(m)
	assert.ErrorIs(t, err, errors.ErrFactoryFailed)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, c.Registrations())
	_, err = Resolve[*Database](c)
	assert.ErrorIs(t, err, errors.ErrDefinitionNotFound)
}

func TestModuleAccessors(t *testing.T) {
	m := NewModule("acc", CreatedAtStart(true))
	assert.Equal(t, "acc", m.Name())
	eager, set := m.Eager()
	assert.True(t, eager)
	assert.True(t, set)

	def := Factory[*Cache](m, func(*Resolution) (*Cache, error) { return &Cache{}, nil }, CreatedAtStart(false))
	assert.Equal(t, "acc", def.Module())
	assert.Equal(t, LifecycleFactory, def.Lifecycle())
	assert.Equal(t, KeyOf[*Cache](), def.Key())
	eager, set = def.Eager()
	assert.False(t, eager)
	assert.True(t, set)
	assert.Nil(t, def.Params())

	defs := m.Definitions()
	require.Len(t, defs, 1)
	defs[0] = nil
	assert.NotNil(t, m.Definitions()[0], "Definitions returns a copy")

	_, set = NewModule("plain").Eager()
	assert.False(t, set)
}
