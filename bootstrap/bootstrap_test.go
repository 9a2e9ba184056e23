package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/injector/config"
	"github.com/kbukum/injector/di"
	apperrors "github.com/kbukum/injector/errors"
	"github.com/kbukum/injector/global"
	"github.com/kbukum/injector/logger"
)

type testConfig struct {
	config.Settings `mapstructure:",squash"`
	BatchSize       int `mapstructure:"batch_size"`
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{Settings: config.Settings{Name: name, Version: version}}
}

type store struct {
	closed bool
}

func (s *store) Close() error {
	s.closed = true
	return nil
}

type worker struct{ store *store }

func appModule() *di.Module {
	m := di.NewModule("app")
	di.Single[*store](m, func(*di.Resolution) (*store, error) { return &store{}, nil })
	di.Factory[*worker](m, func(rc *di.Resolution) (*worker, error) {
		s, err := di.Get[*store](rc)
		if err != nil {
			return nil, err
		}
		return &worker{store: s}, nil
	})
	return m
}

func newTestApp(t *testing.T, cfg *testConfig, opts ...Option) *App[*testConfig] {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Nop()), WithSummaryWriter(nil)}, opts...)
	app, err := NewApp(cfg, opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	cfg := newTestConfig("test-svc", "1.0.0")
	app, err := NewApp(cfg, WithSummaryWriter(nil))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Name != "test-svc" || app.Version != "1.0.0" {
		t.Errorf("unexpected name/version %q/%q", app.Name, app.Version)
	}
	if app.Logger == nil {
		t.Error("expected logger from config")
	}
	if app.Container != nil {
		t.Error("container must not be open before startup")
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("expected defaults applied, got environment %q", app.Cfg.Environment)
	}
	if app.Cfg.Container.Name != "test-svc" {
		t.Errorf("expected container name to default to service name, got %q", app.Cfg.Container.Name)
	}
}

func TestNewAppRegistersComponentLoggers(t *testing.T) {
	app, err := NewApp(newTestConfig("test-svc", "1.0.0"), WithSummaryWriter(nil))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	diLog := logger.Get(logger.ComponentDI)
	if diLog != logger.Get(logger.ComponentDI) {
		t.Error("expected a registered di logger")
	}
	if app.componentLogger(logger.ComponentDI) != diLog {
		t.Error("expected the container to log through the registered di logger")
	}

	custom := newTestApp(t, newTestConfig("test-svc", "1.0.0"))
	if custom.componentLogger(logger.ComponentDI) == diLog {
		t.Error("expected a custom logger to bypass the registry")
	}
}

func TestNewAppValidationError(t *testing.T) {
	_, err := NewApp(newTestConfig("", ""), WithLogger(logger.Nop()))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestRunTaskLifecycle(t *testing.T) {
	app := newTestApp(t, newTestConfig("svc", "1.0.0"), WithModules(appModule()))

	var events []string
	app.OnStart(func(context.Context) error {
		events = append(events, "start")
		return nil
	})
	app.OnReady(func(context.Context) error {
		events = append(events, "ready")
		return nil
	})
	app.OnStop(func(context.Context) error {
		if app.Container.IsClosed() {
			t.Error("container closed before OnStop hooks")
		}
		events = append(events, "stop")
		return nil
	})

	var s *store
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		events = append(events, "task")
		w, err := di.ResolveContext[*worker](ctx, app.Container)
		if err != nil {
			return err
		}
		s = w.store
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}

	want := []string{"start", "ready", "task", "stop"}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Errorf("expected events %v, got %v", want, events)
	}
	if !app.Container.IsClosed() {
		t.Error("expected container closed after task")
	}
	if s == nil || !s.closed {
		t.Error("expected realized store to be closed on shutdown")
	}
}

func TestRunTaskErrorTakesPrecedence(t *testing.T) {
	app := newTestApp(t, newTestConfig("svc", "1.0.0"))
	taskErr := errors.New("task failed")
	stopErr := errors.New("stop failed")
	app.OnStop(func(context.Context) error { return stopErr })

	err := app.RunTask(context.Background(), func(context.Context) error { return taskErr })
	if !errors.Is(err, taskErr) {
		t.Errorf("expected task error, got %v", err)
	}

	app = newTestApp(t, newTestConfig("svc", "1.0.0"))
	app.OnStop(func(context.Context) error { return stopErr })
	err = app.RunTask(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, stopErr) {
		t.Errorf("expected stop error, got %v", err)
	}
}

func TestStartupContainerFailure(t *testing.T) {
	m := appModule()
	app := newTestApp(t, newTestConfig("svc", "1.0.0"), WithModules(m, m))

	ran := false
	err := app.RunTask(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	if !errors.Is(err, apperrors.ErrDuplicateDefinition) {
		t.Errorf("expected duplicate definition, got %v", err)
	}
	if ran {
		t.Error("task must not run when startup fails")
	}
}

func TestOnStartFailureClosesContainer(t *testing.T) {
	app := newTestApp(t, newTestConfig("svc", "1.0.0"), WithModules(appModule()))
	hookErr := errors.New("migrate failed")
	app.OnStart(func(context.Context) error { return hookErr })

	err := app.RunTask(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, hookErr) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if !app.Container.IsClosed() {
		t.Error("expected container closed after failed startup")
	}
}

func TestContainerFromSettings(t *testing.T) {
	cfg := newTestConfig("svc", "1.0.0")
	cfg.Container.Name = "orders"
	cfg.Container.Eager = true
	closeInstances := false
	cfg.Container.CloseInstances = &closeInstances
	app := newTestApp(t, cfg, WithModules(appModule()))

	var s *store
	err := app.RunTask(context.Background(), func(context.Context) error {
		if app.Container.Name() != "orders" {
			t.Errorf("expected container name 'orders', got %q", app.Container.Name())
		}
		regs := app.Container.Registrations()
		if !regs[0].Realized {
			t.Error("expected eager singleton realized before the task")
		}
		s = di.MustResolve[*store](app.Container)
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	if s.closed {
		t.Error("close_instances=false must leave instances open")
	}
}

func TestContainerOptionsOverrideSettings(t *testing.T) {
	cfg := newTestConfig("svc", "1.0.0")
	cfg.Container.Name = "from-config"
	app := newTestApp(t, cfg, WithContainerOptions(di.WithName("from-option")))

	err := app.RunTask(context.Background(), func(context.Context) error {
		if app.Container.Name() != "from-option" {
			t.Errorf("expected option to win, got %q", app.Container.Name())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
}

func TestGlobalContainer(t *testing.T) {
	cfg := newTestConfig("svc", "1.0.0")
	cfg.Container.Global = true
	app := newTestApp(t, cfg)
	app.Use(appModule())

	err := app.RunTask(context.Background(), func(context.Context) error {
		c, err := global.Get()
		if err != nil {
			return err
		}
		if c != app.Container {
			t.Error("expected app container to be the global container")
		}
		_, err = global.Resolve[*worker]()
		return err
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	if global.GetOrNil() != nil {
		t.Error("expected global container stopped after task")
	}
}

func TestReadyCheck(t *testing.T) {
	app := newTestApp(t, newTestConfig("svc", "1.0.0"))
	if err := app.ReadyCheck(context.Background()); !errors.Is(err, apperrors.ErrNotInitialized) {
		t.Errorf("expected NOT_INITIALIZED before startup, got %v", err)
	}

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return app.ReadyCheck(ctx)
	})
	if err != nil {
		t.Fatalf("expected ready during task, got %v", err)
	}
	if err := app.ReadyCheck(context.Background()); err == nil {
		t.Error("expected ready check to fail after shutdown")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	app := newTestApp(t, newTestConfig("svc", "1.0.0"))
	ctx, cancel := context.WithCancel(context.Background())
	app.OnReady(func(context.Context) error {
		cancel()
		return nil
	})
	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !app.Container.IsClosed() {
		t.Error("expected container closed")
	}
}

func TestSummaryOutput(t *testing.T) {
	var buf bytes.Buffer
	app := newTestApp(t, newTestConfig("orders", "2.1.0"), WithModules(appModule()), WithSummaryWriter(&buf))

	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"orders v2.1.0", "*bootstrap.store", "*bootstrap.worker", "[factory]", "2 definitions", "Health Check"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestNewAppFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := "name: billing\nversion: \"3.0.0\"\nbatch_size: 50\ncontainer:\n  eager: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var cfg testConfig
	app, err := NewAppFromConfig("billing", &cfg, []config.LoaderOption{config.WithConfigFile(path)},
		WithLogger(logger.Nop()), WithSummaryWriter(nil))
	if err != nil {
		t.Fatalf("NewAppFromConfig failed: %v", err)
	}
	if app.Name != "billing" || app.Version != "3.0.0" {
		t.Errorf("unexpected name/version %q/%q", app.Name, app.Version)
	}
	if cfg.BatchSize != 50 || !cfg.Container.Eager {
		t.Errorf("unexpected config %+v", cfg)
	}
}
