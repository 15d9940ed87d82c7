// Package capture provides an in-memory transport that records delivered
// messages instead of sending them. It backs test runs and local
// development.
package capture

import (
	"context"
	"sync"

	"github.com/rbaliyan/courier/mail"
)

// Transport records every message handed to Deliver. The zero value is
// ready to use and safe for concurrent deliveries.
type Transport struct {
	mu         sync.Mutex
	deliveries []*mail.Message
}

// New creates an empty capture transport.
func New() *Transport {
	return &Transport{}
}

// Name implements mail.Transport.
func (t *Transport) Name() string {
	return "test-capture"
}

// Deliver appends msg to the capture log.
func (t *Transport) Deliver(ctx context.Context, msg *mail.Message) error {
	if msg == nil {
		return mail.ErrNilMessage
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deliveries = append(t.deliveries, msg)
	return nil
}

// Deliveries returns a snapshot of the captured messages in delivery
// order.
func (t *Transport) Deliveries() []*mail.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*mail.Message, len(t.deliveries))
	copy(out, t.deliveries)
	return out
}

// Count returns the number of captured messages.
func (t *Transport) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.deliveries)
}

// Last returns the most recently captured message, or nil when the log
// is empty.
func (t *Transport) Last() *mail.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.deliveries) == 0 {
		return nil
	}
	return t.deliveries[len(t.deliveries)-1]
}

// Clear empties the capture log.
func (t *Transport) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deliveries = nil
}
