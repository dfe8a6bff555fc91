package activity

import (
	"context"
	"sync"
)

// CaptureHook collects the normalized settings events it receives so tests
// can assert on what a store emitted. Set Err to simulate a failing sink.
type CaptureHook struct {
	Events []Event
	Err    error
	mu     sync.Mutex
}

// Notify appends the normalized settings event and returns the configured
// error, if any.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, NormalizeEvent(event))
	return h.Err
}
