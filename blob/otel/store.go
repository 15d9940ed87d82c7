// Package otel instruments a blob store with OpenTelemetry traces and
// metrics.
package otel

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/rbaliyan/courier/blob"
)

const instrumentationName = "github.com/rbaliyan/courier/blob/otel"

// Store decorates a blob.Store with spans and metrics per operation.
type Store struct {
	backend blob.Store
	opts    options

	tracer trace.Tracer

	opDuration metric.Float64Histogram
	opCount    metric.Int64Counter
	opErrors   metric.Int64Counter
	opBytes    metric.Int64Counter
}

var _ blob.Store = (*Store)(nil)

// New creates an instrumented store over backend.
func New(backend blob.Store, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{backend: backend, opts: o}
	if o.tracingEnabled {
		s.tracer = o.tracerProvider.Tracer(instrumentationName)
	}
	if o.metricsEnabled {
		if err := s.initMetrics(o.meterProvider); err != nil {
			return nil, fmt.Errorf("otel: init metrics: %w", err)
		}
	}
	return s, nil
}

func (s *Store) initMetrics(mp metric.MeterProvider) error {
	meter := mp.Meter(instrumentationName)

	var err error
	s.opDuration, err = meter.Float64Histogram(
		"blob.operation.duration",
		metric.WithDescription("Duration of blob store operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}
	s.opCount, err = meter.Int64Counter(
		"blob.operation.count",
		metric.WithDescription("Number of blob store operations"),
	)
	if err != nil {
		return err
	}
	s.opErrors, err = meter.Int64Counter(
		"blob.operation.errors",
		metric.WithDescription("Number of failed blob store operations"),
	)
	if err != nil {
		return err
	}
	s.opBytes, err = meter.Int64Counter(
		"blob.operation.bytes",
		metric.WithDescription("Bytes moved through the blob store"),
		metric.WithUnit("By"),
	)
	return err
}

// Upload uploads content with instrumentation around the backend call.
func (s *Store) Upload(ctx context.Context, filename, contentType string, content io.Reader) (string, error) {
	attrs := []attribute.KeyValue{
		attribute.String("blob.operation", "upload"),
		attribute.String("blob.content_type", contentType),
	}

	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, "blob.upload",
			trace.WithAttributes(attrs...),
			trace.WithSpanKind(trace.SpanKindClient),
		)
		defer span.End()
	}

	counted := &countingReader{reader: content}
	start := time.Now()
	uri, err := s.backend.Upload(ctx, filename, contentType, counted)
	s.record(ctx, attrs, time.Since(start), counted.bytes, err)

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("blob.uri", uri))
			span.SetStatus(codes.Ok, "")
		}
	}
	return uri, err
}

// Load opens a reader with instrumentation. The span stays open until
// the returned reader is closed so byte counts cover the full read.
func (s *Store) Load(ctx context.Context, uri string) (io.ReadCloser, error) {
	attrs := []attribute.KeyValue{
		attribute.String("blob.operation", "load"),
		attribute.String("blob.uri", uri),
	}

	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, "blob.load",
			trace.WithAttributes(attrs...),
			trace.WithSpanKind(trace.SpanKindClient),
		)
	}

	start := time.Now()
	reader, err := s.backend.Load(ctx, uri)
	s.record(ctx, attrs, time.Since(start), 0, err)

	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
		}
		return nil, err
	}
	return &spanReader{reader: reader, span: span, store: s, ctx: ctx, attrs: attrs}, nil
}

// Delete removes the blob with instrumentation around the backend call.
func (s *Store) Delete(ctx context.Context, uri string) error {
	attrs := []attribute.KeyValue{
		attribute.String("blob.operation", "delete"),
		attribute.String("blob.uri", uri),
	}

	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, "blob.delete",
			trace.WithAttributes(attrs...),
			trace.WithSpanKind(trace.SpanKindClient),
		)
		defer span.End()
	}

	start := time.Now()
	err := s.backend.Delete(ctx, uri)
	s.record(ctx, attrs, time.Since(start), 0, err)

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
	return err
}

func (s *Store) record(ctx context.Context, attrs []attribute.KeyValue, d time.Duration, bytes int64, err error) {
	if !s.opts.metricsEnabled {
		return
	}
	metricAttrs := metric.WithAttributes(attrs...)
	s.opDuration.Record(ctx, d.Seconds(), metricAttrs)
	s.opCount.Add(ctx, 1, metricAttrs)
	if bytes > 0 {
		s.opBytes.Add(ctx, bytes, metricAttrs)
	}
	if err != nil {
		s.opErrors.Add(ctx, 1, metricAttrs)
	}
}

type countingReader struct {
	reader io.Reader
	bytes  int64
}

func (r *countingReader) Read(p []byte) (n int, err error) {
	n, err = r.reader.Read(p)
	r.bytes += int64(n)
	return n, err
}

// spanReader keeps the load span open until the caller closes the
// reader, then records the bytes read.
type spanReader struct {
	reader io.ReadCloser
	span   trace.Span
	store  *Store
	ctx    context.Context
	attrs  []attribute.KeyValue
	bytes  int64
	closed bool
}

func (r *spanReader) Read(p []byte) (n int, err error) {
	n, err = r.reader.Read(p)
	r.bytes += int64(n)
	return n, err
}

func (r *spanReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	err := r.reader.Close()
	if r.store.opts.metricsEnabled && r.bytes > 0 {
		r.store.opBytes.Add(r.ctx, r.bytes, metric.WithAttributes(r.attrs...))
	}
	if r.span != nil {
		r.span.SetAttributes(attribute.Int64("blob.bytes", r.bytes))
		if err != nil {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, err.Error())
		} else {
			r.span.SetStatus(codes.Ok, "")
		}
		r.span.End()
	}
	return err
}
