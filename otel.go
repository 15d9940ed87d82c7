package courier

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/rbaliyan/courier"
)

// otelInstrumentation holds OpenTelemetry instrumentation for the mailer.
type otelInstrumentation struct {
	enabled bool

	// Tracing
	tracingEnabled bool
	tracer         trace.Tracer

	// Metrics
	metricsEnabled bool

	composeLatency metric.Float64Histogram
	composeCount   metric.Int64Counter
	composeErrors  metric.Int64Counter
	deliverLatency metric.Float64Histogram
	deliverCount   metric.Int64Counter
	deliverErrors  metric.Int64Counter
}

// newOtelInstrumentation creates new OTel instrumentation from options.
func newOtelInstrumentation(opts *options) (*otelInstrumentation, error) {
	o := &otelInstrumentation{
		enabled:        opts.tracingEnabled || opts.metricsEnabled,
		tracingEnabled: opts.tracingEnabled,
		metricsEnabled: opts.metricsEnabled,
	}

	if !o.enabled {
		return o, nil
	}

	// Initialize tracer
	if opts.tracingEnabled {
		tp := opts.tracerProvider
		if tp == nil {
			tp = otel.GetTracerProvider()
		}
		o.tracer = tp.Tracer(instrumentationName)
	}

	// Initialize metrics
	if opts.metricsEnabled {
		mp := opts.meterProvider
		if mp == nil {
			mp = otel.GetMeterProvider()
		}
		if err := o.initMetrics(mp); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// initMetrics initializes all metric instruments.
func (o *otelInstrumentation) initMetrics(mp metric.MeterProvider) error {
	meter := mp.Meter(instrumentationName)

	var err error

	// Compose metrics
	o.composeLatency, err = meter.Float64Histogram(
		"courier.compose.duration",
		metric.WithDescription("Duration of compose operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.composeCount, err = meter.Int64Counter(
		"courier.compose.count",
		metric.WithDescription("Number of messages composed"),
	)
	if err != nil {
		return err
	}

	o.composeErrors, err = meter.Int64Counter(
		"courier.compose.errors",
		metric.WithDescription("Number of compose errors"),
	)
	if err != nil {
		return err
	}

	// Deliver metrics
	o.deliverLatency, err = meter.Float64Histogram(
		"courier.deliver.duration",
		metric.WithDescription("Duration of deliver operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.deliverCount, err = meter.Int64Counter(
		"courier.deliver.count",
		metric.WithDescription("Number of messages delivered"),
	)
	if err != nil {
		return err
	}

	o.deliverErrors, err = meter.Int64Counter(
		"courier.deliver.errors",
		metric.WithDescription("Number of deliver errors"),
	)
	if err != nil {
		return err
	}

	return nil
}

// startSpan starts a new span if tracing is enabled.
// The returned function ends the span and records the outcome.
func (o *otelInstrumentation) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	if !o.tracingEnabled || o.tracer == nil {
		return ctx, func(error) {}
	}
	ctx, span := o.tracer.Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// recordCompose records compose operation metrics.
func (o *otelInstrumentation) recordCompose(ctx context.Context, duration time.Duration, action string, err error) {
	if !o.metricsEnabled {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("action", action),
	)

	o.composeLatency.Record(ctx, duration.Seconds(), attrs)
	o.composeCount.Add(ctx, 1, attrs)
	if err != nil {
		o.composeErrors.Add(ctx, 1, attrs)
	}
}

// recordDeliver records deliver operation metrics.
func (o *otelInstrumentation) recordDeliver(ctx context.Context, duration time.Duration, transport string, recipientCount int, err error) {
	if !o.metricsEnabled {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("transport", transport),
		attribute.Int("recipient_count", recipientCount),
	)

	o.deliverLatency.Record(ctx, duration.Seconds(), attrs)
	o.deliverCount.Add(ctx, 1, attrs)
	if err != nil {
		o.deliverErrors.Add(ctx, 1, attrs)
	}
}
