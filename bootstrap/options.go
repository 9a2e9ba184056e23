package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/injector/di"
	"github.com/kbukum/injector/logger"
)

// Option configures the App during creation.
// Options are non-generic so they can be used with any config type.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	modules         []*di.Module
	containerOpts   []di.Option
	summary         io.Writer
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application.
// If not set, the logger is initialized from the config's Logging field.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithModules adds modules to load when the container opens.
func WithModules(modules ...*di.Module) Option {
	return func(o *appOptions) {
		o.modules = append(o.modules, modules...)
	}
}

// WithContainerOptions adds container options. They are applied after the
// ones derived from config, so they win.
func WithContainerOptions(opts ...di.Option) Option {
	return func(o *appOptions) {
		o.containerOpts = append(o.containerOpts, opts...)
	}
}

// WithSummaryWriter sets where the startup summary is printed. Nil disables
// it. Defaults to stdout.
func WithSummaryWriter(w io.Writer) Option {
	return func(o *appOptions) {
		if w == nil {
			w = io.Discard
		}
		o.summary = w
	}
}
