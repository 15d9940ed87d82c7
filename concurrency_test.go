package courier

import (
	"context"
	"sync"
	"testing"
)

func TestConcurrentDeliveries(t *testing.T) {
	ctx := context.Background()
	m, rec := newTestMailer(t)
	registerEnvelope(t, m, "reset")

	const workers = 10
	const messagesPerWorker = 5

	var wg sync.WaitGroup
	errCh := make(chan error, workers*messagesPerWorker)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < messagesPerWorker; j++ {
				if _, err := m.Deliver(ctx, "reset", map[string]any{"name": "Ada"}); err != nil {
					errCh <- err
				}
			}
		}()
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Errorf("deliver error: %v", err)
	}

	if got := rec.Count(); got != workers*messagesPerWorker {
		t.Errorf("captured %d messages, want %d", got, workers*messagesPerWorker)
	}
}

func TestConcurrentRegisterAndCompose(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMailer(t)
	registerEnvelope(t, m, "reset")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = m.Compose(ctx, "reset", map[string]any{"name": "Ada"})
		}()
		go func() {
			defer wg.Done()
			_ = m.Actions()
		}()
	}
	wg.Wait()
}

func TestCloseWaitsForDeliveries(t *testing.T) {
	ctx := context.Background()
	m, rec := newTestMailer(t)
	registerEnvelope(t, m, "reset")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Deliver(ctx, "reset", map[string]any{"name": "Ada"})
		}()
	}
	wg.Wait()

	if err := m.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if m.IsConnected() {
		t.Error("still connected after Close")
	}
	if rec.Count() != 8 {
		t.Errorf("captured %d messages, want 8", rec.Count())
	}

	// No deliveries after close.
	if _, err := m.Deliver(ctx, "reset", map[string]any{"name": "Ada"}); err == nil {
		t.Error("expected error delivering after Close")
	}
}
