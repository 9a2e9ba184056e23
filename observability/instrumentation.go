package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Span and metric names recorded by Instrumentation.
const (
	SpanResolve             = "di.resolve"
	MetricResolutions       = "di.resolutions"
	MetricFactoryInvocation = "di.factory.invocations"
	MetricResolveDuration   = "di.resolve.duration"
)

// Attribute keys.
const (
	AttrType      = "di.type"
	AttrLifecycle = "di.lifecycle"
	AttrOutcome   = "di.outcome"
	AttrPass      = "di.pass"
	AttrContainer = "di.container"
)

// Resolution outcomes.
const (
	OutcomeCreated = "created"
	OutcomeCached  = "cached"
	OutcomeError   = "error"
)

// Factory passes.
const (
	PassDryRun = "dry_run"
	PassReal   = "real"
)

// Instrumentation records traces and metrics for container resolutions.
// A nil *Instrumentation is valid and records nothing.
type Instrumentation struct {
	tracer        trace.Tracer
	resolutions   metric.Int64Counter
	factoryCalls  metric.Int64Counter
	resolveMillis metric.Float64Histogram
}

// NewInstrumentation creates instruments on the given providers. Nil
// providers fall back to no-op implementations.
func NewInstrumentation(tp trace.TracerProvider, mp metric.MeterProvider) (*Instrumentation, error) {
	if tp == nil {
		tp = tracenoop.NewTracerProvider()
	}
	if mp == nil {
		mp = metricnoop.NewMeterProvider()
	}
	meter := mp.Meter(ScopeName)

	resolutions, err := meter.Int64Counter(MetricResolutions,
		metric.WithDescription("Number of type resolutions by outcome"),
	)
	if err != nil {
		return nil, err
	}
	factoryCalls, err := meter.Int64Counter(MetricFactoryInvocation,
		metric.WithDescription("Number of factory invocations by pass"),
	)
	if err != nil {
		return nil, err
	}
	resolveMillis, err := meter.Float64Histogram(MetricResolveDuration,
		metric.WithDescription("Duration of type resolutions"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Instrumentation{
		tracer:        tp.Tracer(ScopeName),
		resolutions:   resolutions,
		factoryCalls:  factoryCalls,
		resolveMillis: resolveMillis,
	}, nil
}

// DefaultInstrumentation uses the global otel providers. It never returns nil.
func DefaultInstrumentation() *Instrumentation {
	inst, err := NewInstrumentation(otel.GetTracerProvider(), otel.GetMeterProvider())
	if err != nil {
		inst, _ = NewInstrumentation(nil, nil)
	}
	return inst
}

// ResolveSpan tracks one resolution from start to finish.
type ResolveSpan struct {
	inst  *Instrumentation
	span  trace.Span
	start time.Time
	attrs []attribute.KeyValue
}

// StartResolve opens a di.resolve span for typeName. The returned context
// carries the span so nested resolutions become its children.
func (i *Instrumentation) StartResolve(ctx context.Context, typeName, lifecycle string) (context.Context, *ResolveSpan) {
	if i == nil {
		return ctx, nil
	}
	attrs := []attribute.KeyValue{
		attribute.String(AttrType, typeName),
		attribute.String(AttrLifecycle, lifecycle),
	}
	ctx, span := i.tracer.Start(ctx, SpanResolve, trace.WithAttributes(attrs...))
	return ctx, &ResolveSpan{inst: i, span: span, start: time.Now(), attrs: attrs}
}

// End closes the span with outcome and records the resolution metrics.
func (s *ResolveSpan) End(ctx context.Context, outcome string, err error) {
	if s == nil {
		return
	}
	s.span.SetAttributes(attribute.String(AttrOutcome, outcome))
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()

	attrs := metric.WithAttributes(append(s.attrs, attribute.String(AttrOutcome, outcome))...)
	s.inst.resolutions.Add(ctx, 1, attrs)
	s.inst.resolveMillis.Record(ctx, float64(time.Since(s.start).Microseconds())/1000, metric.WithAttributes(s.attrs...))
}

// FactoryInvoked counts one factory call for typeName in the given pass.
func (i *Instrumentation) FactoryInvoked(ctx context.Context, typeName, pass string) {
	if i == nil {
		return
	}
	i.factoryCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrType, typeName),
		attribute.String(AttrPass, pass),
	))
}
