// Package observability provides OpenTelemetry tracing and metrics for
// injector containers.
//
// InitTracer and InitMeter install OTLP HTTP exporting providers as the
// global otel providers. Instrumentation turns every resolution into a
// di.resolve span plus counters and a duration histogram:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("orders"))
//	defer tp.Shutdown(ctx)
//
//	c := di.New(di.WithInstrumentation(observability.DefaultInstrumentation()))
//
// Without installed providers the global otel no-op implementations are used,
// so instrumentation costs nothing until telemetry is switched on.
package observability
