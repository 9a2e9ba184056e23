package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/injector/config"
	"github.com/kbukum/injector/di"
	"github.com/kbukum/injector/errors"
	"github.com/kbukum/injector/global"
	"github.com/kbukum/injector/logger"
	"github.com/kbukum/injector/observability"
)

// App is an application with a uniform lifecycle around one container.
// The type parameter C is the config type.
type App[C Config] struct {
	Name      string
	Version   string
	Cfg       C
	Container *di.Container
	Logger    *logger.Logger
	Summary   *Summary

	gracefulTimeout time.Duration
	modules         []*di.Module
	containerOpts   []di.Option
	summaryOut      io.Writer

	telemetry    *observability.Providers
	global       bool
	customLogger bool

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp creates an application from a typed config.
// It applies defaults, validates the config, and initializes the logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	settings := cfg.GetSettings()

	o := resolveOptions(opts)
	app := &App[C]{
		Name:            settings.Name,
		Version:         settings.Version,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
		modules:         o.modules,
		containerOpts:   o.containerOpts,
		summaryOut:      o.summary,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if app.summaryOut == nil {
		app.summaryOut = os.Stdout
	}

	if o.logger != nil {
		app.Logger = o.logger
		app.customLogger = true
	} else {
		logger.Init(settings.Logging)
		logger.RegisterDefaults()
		app.Logger = logger.GetGlobalLogger()
	}

	app.Summary = NewSummary(settings.Name, settings.Version)
	return app, nil
}

// NewAppFromConfig loads cfg for serviceName with config.LoadConfig and
// then creates the application.
func NewAppFromConfig[C Config](serviceName string, cfg C, loaderOpts []config.LoaderOption, opts ...Option) (*App[C], error) {
	if err := config.LoadConfig(serviceName, cfg, loaderOpts...); err != nil {
		return nil, err
	}
	return NewApp(cfg, opts...)
}

// Use adds modules to load when the container opens. It has no effect once
// the application has started; load into a.Container instead.
func (a *App[C]) Use(modules ...*di.Module) {
	a.modules = append(a.modules, modules...)
}

// ReadyCheck reports an error when the container is missing or closed.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	if a.Container == nil {
		return errors.NotInitialized("container is not open")
	}
	h := a.Container.CheckHealth(ctx)
	if h.Status != observability.HealthStatusUp {
		return fmt.Errorf("container %s is %s: %s", h.Name, h.Status, h.Message)
	}
	return nil
}

// Run executes the full lifecycle for long-running services:
// startup, block on signal or context, graceful shutdown.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	a.Logger.Info("Application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)

	return a.stop()
}

// RunTask executes a finite task with the full bootstrap lifecycle. The
// task context is canceled on SIGINT/SIGTERM. The task error takes
// precedence over a shutdown error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("Received signal, canceling task", map[string]interface{}{
				"signal": sig.String(),
			})
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	if stopErr := a.stop(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

func (a *App[C]) startup(ctx context.Context) error {
	start := time.Now()

	a.Logger.Info("Starting application", map[string]interface{}{
		"name":    a.Name,
		"version": a.Version,
	})

	if err := a.initTelemetry(ctx); err != nil {
		return fmt.Errorf("telemetry initialization failed: %w", err)
	}

	if err := a.openContainer(); err != nil {
		a.shutdownTelemetry()
		return fmt.Errorf("container initialization failed: %w", err)
	}

	if err := runHooks(ctx, a.onStart); err != nil {
		_ = a.stop()
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("Ready check reported issues", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := runHooks(ctx, a.onReady); err != nil {
		_ = a.stop()
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.Summary.SetStartupDuration(time.Since(start))
	a.DisplaySummary()
	return nil
}

func (a *App[C]) initTelemetry(ctx context.Context) error {
	s := a.Cfg.GetSettings()
	if !s.Telemetry.Enabled {
		return nil
	}
	providers, err := observability.Init(ctx, observability.Config{
		ServiceName:    s.Name,
		ServiceVersion: s.Version,
		Environment:    s.Environment,
		Endpoint:       s.Telemetry.Endpoint,
		Insecure:       s.Telemetry.Insecure,
		SampleRate:     s.Telemetry.SampleRate,
		MetricInterval: s.Telemetry.MetricInterval,
	})
	if err != nil {
		return err
	}
	a.telemetry = providers
	a.Logger.Info("Telemetry enabled", map[string]interface{}{
		"endpoint": s.Telemetry.Endpoint,
	})
	return nil
}

// containerOptions derives container options from config, followed by the
// ones given with WithContainerOptions.
func (a *App[C]) containerOptions() []di.Option {
	s := a.Cfg.GetSettings().Container
	opts := []di.Option{
		di.WithName(s.Name),
		di.WithEagerInit(s.Eager),
		di.WithCloseInstances(s.ShouldCloseInstances()),
		di.WithLogger(a.componentLogger(logger.ComponentDI)),
		di.WithInstrumentation(observability.DefaultInstrumentation()),
	}
	return append(opts, a.containerOpts...)
}

// componentLogger tags a custom logger with name, or returns the registered
// component logger when the app initialized the global one.
func (a *App[C]) componentLogger(name string) *logger.Logger {
	if a.customLogger {
		return a.Logger.WithComponent(name)
	}
	return logger.Get(name)
}

func (a *App[C]) openContainer() error {
	opts := a.containerOptions()

	if a.Cfg.GetSettings().Container.Global {
		if err := global.Start(a.modules, opts...); err != nil {
			return err
		}
		a.Container = global.GetOrNil()
		a.global = true
	} else {
		c, err := di.Open(a.modules, opts...)
		if err != nil {
			return err
		}
		a.Container = c
	}

	a.Logger.Info("Container opened", logger.Fields(
		logger.FieldContainerID, a.Container.ID(),
		logger.FieldContainer, a.Container.Name(),
		logger.FieldCount, len(a.Container.Registrations()),
	))
	return nil
}

// DisplaySummary prints the startup summary with the container's
// registrations and health.
func (a *App[C]) DisplaySummary() {
	a.Summary.DisplaySummary(a.summaryOut, a.Container)
}

// WaitForSignal blocks until an OS interrupt/term signal or context cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal, graceful shutdown starting", map[string]interface{}{
			"signal": sig.String(),
		})
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Shutdown performs graceful shutdown. Use when managing your own lifecycle.
func (a *App[C]) Shutdown(ctx context.Context) error {
	return a.stop()
}

// stop runs OnStop hooks, closes the container, then flushes telemetry.
// The first error is returned; all are logged.
func (a *App[C]) stop() error {
	a.Logger.Info("Shutting down application", map[string]interface{}{
		"timeout": a.gracefulTimeout.String(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error

	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("OnStop hook error", map[string]interface{}{
			"error": err.Error(),
		})
		shutdownErr = err
	}

	if err := a.closeContainer(); err != nil {
		a.Logger.Error("DI container close error", map[string]interface{}{
			"error": err.Error(),
		})
		if shutdownErr == nil {
			shutdownErr = err
		}
	}

	if a.telemetry != nil {
		if err := a.telemetry.Shutdown(ctx); err != nil {
			a.Logger.Error("Telemetry shutdown error", map[string]interface{}{
				"error": err.Error(),
			})
			if shutdownErr == nil {
				shutdownErr = err
			}
		}
		a.telemetry = nil
	}

	a.Logger.Info("Application shutdown complete")
	return shutdownErr
}

func (a *App[C]) closeContainer() error {
	if a.Container == nil {
		return nil
	}
	if a.global {
		a.global = false
		return global.Stop()
	}
	return a.Container.Close()
}

func (a *App[C]) shutdownTelemetry() {
	if a.telemetry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()
	_ = a.telemetry.Shutdown(ctx)
	a.telemetry = nil
}
