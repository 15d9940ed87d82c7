package courier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/rbaliyan/event/v3"
	"github.com/rbaliyan/event/v3/transport/noop"
	eventredis "github.com/rbaliyan/event/v3/transport/redis"
	"golang.org/x/sync/semaphore"

	"github.com/rbaliyan/courier/mail"
)

// MailerHealth provides health and state information about the mailer.
type MailerHealth interface {
	// IsConnected returns true if the mailer is connected and ready.
	IsConnected() bool
}

// Mailer composes messages from registered actions and dispatches them
// through the configured transport.
//
// Composed of:
//   - MailerHealth: Health and state queries (IsConnected)
type Mailer interface {
	MailerHealth

	// Connect initializes the event bus and plugins.
	Connect(ctx context.Context) error
	// Close waits for in-flight deliveries and releases resources.
	Close(ctx context.Context) error
	// Register binds a compose function to an action name.
	Register(action string, fn ComposeFunc) error
	// Actions returns the names of all registered actions, sorted.
	Actions() []string
	// Compose runs the action's compose function and builds the
	// resulting message without delivering it.
	Compose(ctx context.Context, action string, vars map[string]any) (*mail.Message, error)
	// Deliver composes the action and delivers the built message.
	// The built message is returned even when delivery fails.
	Deliver(ctx context.Context, action string, vars map[string]any) (*mail.Message, error)
	// DeliverMessage delivers a previously built message.
	DeliverMessage(ctx context.Context, msg *mail.Message) error
	// Events returns per-mailer event instances for subscribing and
	// publishing.
	Events() *MailerEvents
}

// Connection states for the mailer.
const (
	stateDisconnected int32 = 0
	stateConnecting   int32 = 1
	stateConnected    int32 = 2
)

// mailer is the default implementation of Mailer.
type mailer struct {
	logger  *slog.Logger
	opts    *options
	state   int32 // stateDisconnected, stateConnecting, or stateConnected
	plugins *pluginRegistry
	otel    *otelInstrumentation

	deliverSem *semaphore.Weighted // Limits concurrent deliveries
	eventBus   *event.Bus
	events     *MailerEvents

	mu      sync.RWMutex
	actions map[string]ComposeFunc
}

// NewMailer creates a new mailer.
// Call Connect() before composing or delivering.
func NewMailer(opts ...Option) (Mailer, error) {
	o := newOptions(opts...)

	if o.performDeliveries {
		if len(o.transports) == 0 {
			return nil, ErrTransportRequired
		}
		if _, ok := o.transports[o.deliveryMethod]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, o.deliveryMethod)
		}
	}
	if o.resolver != nil && o.renderer == nil {
		return nil, ErrRendererRequired
	}

	// Initialize plugin registry
	plugins := newPluginRegistry(o.logger)
	for _, p := range o.plugins {
		plugins.register(p)
	}

	// Initialize OTel instrumentation
	otelInstr, err := newOtelInstrumentation(o)
	if err != nil {
		return nil, fmt.Errorf("init otel: %w", err)
	}

	return &mailer{
		logger:     o.logger,
		opts:       o,
		plugins:    plugins,
		otel:       otelInstr,
		deliverSem: semaphore.NewWeighted(int64(o.maxConcurrentDeliveries)),
		actions:    make(map[string]ComposeFunc),
	}, nil
}

// Events returns per-mailer event instances for subscribing and publishing.
func (m *mailer) Events() *MailerEvents {
	return m.events
}

// IsConnected returns true if the mailer is connected and ready.
func (m *mailer) IsConnected() bool {
	return atomic.LoadInt32(&m.state) == stateConnected
}

// Connect initializes the event bus and plugins.
func (m *mailer) Connect(ctx context.Context) error {
	// Three-state transition prevents deliveries from observing partial
	// initialization: stateDisconnected -> stateConnecting -> stateConnected
	if !atomic.CompareAndSwapInt32(&m.state, stateDisconnected, stateConnecting) {
		return ErrAlreadyConnected
	}

	// Reset to disconnected on failure, set to connected on success
	success := false
	defer func() {
		if success {
			atomic.StoreInt32(&m.state, stateConnected)
		} else {
			atomic.StoreInt32(&m.state, stateDisconnected)
		}
	}()

	if err := m.initEventBus(ctx); err != nil {
		return fmt.Errorf("init event bus: %w", err)
	}

	if err := m.plugins.initAll(ctx); err != nil {
		m.eventBus.Close(ctx)
		return fmt.Errorf("init plugins: %w", err)
	}

	success = true
	m.logger.Info("mailer connected", "delivery_method", m.opts.deliveryMethod)
	return nil
}

// busCounter generates unique suffixes for event bus names.
var busCounter int64

// initEventBus initializes the event bus for this mailer.
// Each mailer creates its own bus with its own event instances.
func (m *mailer) initEventBus(ctx context.Context) error {
	serviceName := m.opts.serviceName
	if serviceName == "" {
		serviceName = "courier"
	}
	// Each bus needs a unique name, so append a counter suffix
	busName := fmt.Sprintf("%s-%d", serviceName, atomic.AddInt64(&busCounter, 1))

	var bus *event.Bus
	var err error

	switch {
	case m.opts.eventTransport != nil:
		m.logger.Info("initializing event bus with custom transport")
		bus, err = event.NewBus(busName, event.WithTransport(m.opts.eventTransport))
	case m.opts.redisClient != nil:
		m.logger.Info("initializing event bus with Redis transport")
		t, transportErr := eventredis.New(m.opts.redisClient)
		if transportErr != nil {
			return fmt.Errorf("create redis transport: %w", transportErr)
		}
		bus, err = event.NewBus(busName, event.WithTransport(t))
	default:
		m.logger.Debug("initializing event bus with noop transport")
		bus, err = event.NewBus(busName, event.WithTransport(noop.New()))
	}

	if err != nil {
		return fmt.Errorf("create event bus: %w", err)
	}
	m.eventBus = bus

	// Create and register per-mailer events (unique per mailer instance).
	m.events = newMailerEvents(busName)
	if err := registerMailerEvents(ctx, bus, m.events); err != nil {
		bus.Close(ctx)
		return fmt.Errorf("register mailer events: %w", err)
	}

	return nil
}

// Close waits for in-flight deliveries and releases resources.
func (m *mailer) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&m.state, stateConnected, stateDisconnected) {
		return nil
	}

	var errs []error

	// Wait for in-flight deliveries to complete. After the state flips
	// to disconnected no new deliveries can start, so acquiring all
	// semaphore slots waits out the existing ones.
	m.logger.Info("waiting for in-flight deliveries to complete...", "timeout", m.opts.shutdownTimeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, m.opts.shutdownTimeout)
	defer shutdownCancel()
	if err := m.deliverSem.Acquire(shutdownCtx, int64(m.opts.maxConcurrentDeliveries)); err != nil {
		m.logger.Warn("timeout waiting for in-flight deliveries, proceeding with shutdown",
			"error", err)
		errs = append(errs, fmt.Errorf("graceful shutdown timeout: %w", err))
	} else {
		m.deliverSem.Release(int64(m.opts.maxConcurrentDeliveries))
		m.logger.Info("all in-flight deliveries completed")
	}

	// Close plugins first (reverse order of init)
	if err := m.plugins.closeAll(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close plugins: %w", err))
	}

	// Close the event bus only if it uses a real transport. A noop bus
	// holds no resources.
	if m.eventBus != nil && (m.opts.eventTransport != nil || m.opts.redisClient != nil) {
		if err := m.eventBus.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}

	return errors.Join(errs...)
}
