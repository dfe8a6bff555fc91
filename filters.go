package settings

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errFilterShape = errors.New("settings: filter returned incompatible shape")

// noopDispatcher is the default hook collaborator: identity passthrough.
type noopDispatcher struct{}

func (noopDispatcher) Apply(_ context.Context, _ string, value any, _ ...any) any {
	return value
}

// Filters is an ordered, named filter registry implementing Dispatcher.
// Hooks without registered filters pass values through unchanged. A filter
// that errors is skipped — the value entering it survives — and the failure
// is logged rather than surfaced.
type Filters struct {
	mu     sync.RWMutex
	chains map[string][]Filter
	logger Logger
}

// FiltersOption configures a Filters registry.
type FiltersOption func(*Filters)

// FiltersWithLogger routes filter failures and timings to logger.
func FiltersWithLogger(logger Logger) FiltersOption {
	return func(f *Filters) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFilters constructs an empty registry.
func NewFilters(opts ...FiltersOption) *Filters {
	f := &Filters{
		chains: map[string][]Filter{},
		logger: noopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Add appends filter to the chain registered under hook. Nil filters are
// dropped so engine constructors that are unavailable at build time (see the
// js_filters tag) can be passed through unconditionally.
func (f *Filters) Add(hook string, filter Filter) {
	if hook == "" || filter == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chains == nil {
		f.chains = map[string][]Filter{}
	}
	f.chains[hook] = append(f.chains[hook], filter)
}

// AddFunc registers a plain function under hook.
func (f *Filters) AddFunc(hook string, fn FilterFunc) {
	if fn == nil {
		return
	}
	f.Add(hook, fn)
}

// Len reports how many filters are registered under hook.
func (f *Filters) Len(hook string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.chains[hook])
}

// Apply runs value through the chain registered under hook in registration
// order and returns the final result.
func (f *Filters) Apply(ctx context.Context, hook string, value any, args ...any) any {
	f.mu.RLock()
	chain := append([]Filter(nil), f.chains[hook]...)
	f.mu.RUnlock()
	if len(chain) == 0 {
		return value
	}

	fctx := FilterContext{
		Context: ctx,
		Hook:    hook,
		Args:    args,
	}
	if len(args) > 0 {
		if key, ok := args[0].(string); ok {
			fctx.Key = key
		}
	}
	fctx = fctx.withDefaults()

	for _, filter := range chain {
		start := time.Now()
		next, err := filter.Apply(fctx, value)
		event := LogEvent{
			Op:       "filter",
			Key:      fctx.Key,
			Hook:     hook,
			Duration: time.Since(start),
			Err:      err,
		}
		var filterErr *FilterError
		if errors.As(err, &filterErr) {
			event.Engine = filterErr.Engine
		}
		f.logger.LogOperation(event)
		if err != nil {
			continue
		}
		value = next
	}
	return value
}
