package courier

import (
	"io/fs"
	"log/slog"
	"time"

	"github.com/rbaliyan/event/v3/transport"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/rbaliyan/courier/blob"
	"github.com/rbaliyan/courier/mail"
	"github.com/rbaliyan/courier/template"
)

// Default configuration values.
const (
	DefaultDeliveryMethod  = "smtp"
	DefaultDomain          = "localhost"
	DefaultShutdownTimeout = 30 * time.Second
	MinShutdownTimeout     = 1 * time.Second

	// Default message limits
	DefaultMaxSubjectLength   = 998              // RFC 5322 max line length
	DefaultMaxBodySize        = 10 * 1024 * 1024 // 10 MB
	DefaultMaxAttachmentSize  = 25 * 1024 * 1024 // 25 MB per attachment
	DefaultMaxAttachmentCount = 20
	DefaultMaxRecipientCount  = 100

	// Concurrency limits
	DefaultMaxConcurrentDeliveries = 10
)

// DefaultPartsOrder is the implicit-part priority order applied when
// sorting multipart children. The assembler inverts the ordering so the
// highest-priority type ends up last, where mail clients prefer it.
func DefaultPartsOrder() []string {
	return []string{"text/html", "text/enriched", "text/plain"}
}

// options holds mailer configuration.
type options struct {
	transports     map[string]mail.Transport
	deliveryMethod string

	performDeliveries   bool
	raiseDeliveryErrors bool

	resolver *template.Resolver
	renderer template.Renderer
	blobs    blob.Store

	domain      string
	charset     string
	contentType string
	partsOrder  []string

	logger  *slog.Logger
	plugins []Plugin

	// Message limits
	maxSubjectLength   int
	maxBodySize        int
	maxAttachmentSize  int64
	maxAttachmentCount int
	maxRecipientCount  int

	// Concurrency
	maxConcurrentDeliveries int
	shutdownTimeout         time.Duration

	// OpenTelemetry
	tracingEnabled bool
	metricsEnabled bool
	serviceName    string
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	// Event handling
	eventErrorsFatal      bool
	eventTransport        transport.Transport
	redisClient           redis.UniversalClient
	onEventPublishFailure EventPublishFailureFunc
}

// EventPublishFailureFunc is called when an event fails to publish.
type EventPublishFailureFunc func(eventName string, err error)

// safeEventPublishFailure calls the event failure callback with panic
// recovery so a misbehaving handler cannot take down a delivery.
func (o *options) safeEventPublishFailure(eventName string, err error) {
	if o.onEventPublishFailure == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic in event publish failure handler",
				"event", eventName,
				"original_error", err,
				"panic", r,
			)
		}
	}()
	o.onEventPublishFailure(eventName, err)
}

// newOptions creates options with defaults and applies provided options.
func newOptions(opts ...Option) *options {
	o := &options{
		transports:          make(map[string]mail.Transport),
		deliveryMethod:      DefaultDeliveryMethod,
		performDeliveries:   true,
		raiseDeliveryErrors: true,
		domain:              DefaultDomain,
		charset:             mail.DefaultCharset,
		contentType:         mail.DefaultContentType,
		partsOrder:          DefaultPartsOrder(),
		logger:              slog.Default(),
		// Message limits defaults
		maxSubjectLength:   DefaultMaxSubjectLength,
		maxBodySize:        DefaultMaxBodySize,
		maxAttachmentSize:  DefaultMaxAttachmentSize,
		maxAttachmentCount: DefaultMaxAttachmentCount,
		maxRecipientCount:  DefaultMaxRecipientCount,
		// Concurrency defaults
		maxConcurrentDeliveries: DefaultMaxConcurrentDeliveries,
		shutdownTimeout:         DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	// A single registered transport becomes the delivery method when
	// none was chosen explicitly.
	if len(o.transports) == 1 {
		if _, ok := o.transports[o.deliveryMethod]; !ok {
			for name := range o.transports {
				o.deliveryMethod = name
			}
		}
	}

	if o.onEventPublishFailure == nil {
		o.onEventPublishFailure = func(eventName string, err error) {
			o.logger.Error("failed to publish event", "event", eventName, "error", err)
		}
	}

	return o
}

// Option configures a mailer.
type Option func(*options)

// --- Transport Options ---

// WithTransport registers a delivery transport under its own name.
// Multiple transports can be registered; the active one is chosen via
// WithDeliveryMethod.
func WithTransport(t mail.Transport) Option {
	return func(o *options) {
		if t != nil {
			o.transports[t.Name()] = t
		}
	}
}

// WithTransports registers multiple transports at once.
func WithTransports(transports ...mail.Transport) Option {
	return func(o *options) {
		for _, t := range transports {
			if t != nil {
				o.transports[t.Name()] = t
			}
		}
	}
}

// WithDeliveryMethod selects the transport used for delivery by name.
// Default is "smtp", or the only registered transport when exactly one
// is configured.
func WithDeliveryMethod(name string) Option {
	return func(o *options) {
		if name != "" {
			o.deliveryMethod = name
		}
	}
}

// WithPerformDeliveries enables or disables actual delivery. When
// disabled, deliver calls succeed without contacting any transport.
// Default is enabled.
func WithPerformDeliveries(enabled bool) Option {
	return func(o *options) {
		o.performDeliveries = enabled
	}
}

// WithRaiseDeliveryErrors controls transport error propagation. When
// disabled, transport failures are logged and swallowed and delivery
// reports success. Default is enabled.
func WithRaiseDeliveryErrors(enabled bool) Option {
	return func(o *options) {
		o.raiseDeliveryErrors = enabled
	}
}

// --- Template Options ---

// WithTemplates configures template discovery and rendering over fsys.
// ext is the extension of the plain body template (default "tmpl").
func WithTemplates(fsys fs.FS, ext string) Option {
	return func(o *options) {
		if fsys != nil {
			o.resolver = template.NewResolver(fsys, ext)
			o.renderer = template.NewFSRenderer(fsys)
		}
	}
}

// WithResolver sets a custom template resolver.
func WithResolver(r *template.Resolver) Option {
	return func(o *options) {
		if r != nil {
			o.resolver = r
		}
	}
}

// WithRenderer sets a custom template renderer.
func WithRenderer(r template.Renderer) Option {
	return func(o *options) {
		if r != nil {
			o.renderer = r
		}
	}
}

// --- Attachment Options ---

// WithBlobStore sets the blob store used to resolve remote attachments
// referenced by URI during composition.
func WithBlobStore(s blob.Store) Option {
	return func(o *options) {
		if s != nil {
			o.blobs = s
		}
	}
}

// --- Composition Defaults ---

// WithDomain sets the domain used for generated Message-Id headers.
// Default is "localhost".
func WithDomain(domain string) Option {
	return func(o *options) {
		if domain != "" {
			o.domain = domain
		}
	}
}

// WithCharset sets the default charset for composed messages.
// Default is "utf-8".
func WithCharset(charset string) Option {
	return func(o *options) {
		if charset != "" {
			o.charset = charset
		}
	}
}

// WithContentType sets the default content type for composed messages.
// Default is "text/plain".
func WithContentType(contentType string) Option {
	return func(o *options) {
		if contentType != "" {
			o.contentType = contentType
		}
	}
}

// WithPartsOrder overrides the implicit-part priority order used by the
// part assembler.
func WithPartsOrder(order ...string) Option {
	return func(o *options) {
		if len(order) > 0 {
			o.partsOrder = append([]string(nil), order...)
		}
	}
}

// --- Core Options ---

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPlugin registers a plugin with the mailer.
// Plugins can hook into the delivery lifecycle. Multiple plugins can be
// registered by calling this option multiple times.
func WithPlugin(p Plugin) Option {
	return func(o *options) {
		if p != nil {
			o.plugins = append(o.plugins, p)
		}
	}
}

// WithPlugins registers multiple plugins at once.
func WithPlugins(plugins ...Plugin) Option {
	return func(o *options) {
		for _, p := range plugins {
			if p != nil {
				o.plugins = append(o.plugins, p)
			}
		}
	}
}

// --- Message Limit Options ---

// WithMaxSubjectLength sets the maximum subject length in characters.
// Default is 998 (RFC 5322 max line length).
func WithMaxSubjectLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSubjectLength = n
		}
	}
}

// WithMaxBodySize sets the maximum body size in bytes.
// Default is 10 MB.
func WithMaxBodySize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBodySize = n
		}
	}
}

// WithMaxAttachmentSize sets the maximum size per attachment in bytes.
// Default is 25 MB.
func WithMaxAttachmentSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttachmentSize = n
		}
	}
}

// WithMaxAttachmentCount sets the maximum number of attachments per
// message. Default is 20.
func WithMaxAttachmentCount(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttachmentCount = n
		}
	}
}

// WithMaxRecipients sets the maximum number of recipients per message.
// Default is 100.
func WithMaxRecipients(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRecipientCount = n
		}
	}
}

// --- Concurrency Options ---

// WithMaxConcurrentDeliveries sets the maximum number of concurrent
// delivery operations. Default is 10.
func WithMaxConcurrentDeliveries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConcurrentDeliveries = n
		}
	}
}

// WithShutdownTimeout sets the maximum time to wait for in-flight
// deliveries during graceful shutdown. Default is 30 seconds.
// Minimum is 1 second.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= MinShutdownTimeout {
			o.shutdownTimeout = d
		}
	}
}

// --- OTel Options ---

// WithTracing enables or disables OpenTelemetry tracing.
// Default is disabled.
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
	}
}

// WithMetrics enables or disables OpenTelemetry metrics.
// Default is disabled.
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metricsEnabled = enabled
	}
}

// WithOTel enables both OpenTelemetry tracing and metrics.
func WithOTel(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
		o.metricsEnabled = enabled
	}
}

// WithServiceName sets the service name for telemetry and event bus
// naming. Default is "courier".
func WithServiceName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.serviceName = name
		}
	}
}

// WithTracerProvider sets a custom OpenTelemetry tracer provider.
// Default uses the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

// WithMeterProvider sets a custom OpenTelemetry meter provider.
// Default uses the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// --- Event Options ---

// WithEventErrorsFatal configures whether event publishing failures
// should surface as errors. By default failures are logged and the
// operation succeeds.
func WithEventErrorsFatal(fatal bool) Option {
	return func(o *options) {
		o.eventErrorsFatal = fatal
	}
}

// WithEventTransport sets the event transport for publishing and
// subscribing. If not provided, a noop transport is used.
func WithEventTransport(t transport.Transport) Option {
	return func(o *options) {
		if t != nil {
			o.eventTransport = t
		}
	}
}

// WithRedisClient sets a Redis client for the event transport. When
// provided, events are published to Redis Streams.
//
// Compatible with *redis.Client, *redis.ClusterClient, and
// redis.UniversalClient.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(o *options) {
		if client != nil {
			o.redisClient = client
		}
	}
}

// WithEventPublishFailureHandler sets a callback for event publishing
// failures. By default failures are logged using the configured logger.
func WithEventPublishFailureHandler(fn EventPublishFailureFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.onEventPublishFailure = fn
		}
	}
}

// getLimits returns the configured message limits.
func (o *options) getLimits() MessageLimits {
	return MessageLimits{
		MaxSubjectLength:   o.maxSubjectLength,
		MaxBodySize:        o.maxBodySize,
		MaxAttachmentSize:  o.maxAttachmentSize,
		MaxAttachmentCount: o.maxAttachmentCount,
		MaxRecipientCount:  o.maxRecipientCount,
	}
}
