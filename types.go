package settings

import (
	"context"
	"time"

	"github.com/goliatone/go-settings/pkg/activity"
)

// Backend persists one diff blob per option name. Load returns the last
// mapping written for name, or an empty/nil mapping when nothing is stored.
// Implementations must never interpret the blob; the Store owns its shape.
type Backend interface {
	Load(ctx context.Context, name string) (map[string]any, error)
	Save(ctx context.Context, name string, values map[string]any) error
}

// Dispatcher applies named filter hooks to values flowing through a Store.
// When no filter is registered for hook the value must pass through unchanged.
type Dispatcher interface {
	Apply(ctx context.Context, hook string, value any, args ...any) any
}

// Filter transforms a single value at one extension point.
type Filter interface {
	Apply(ctx FilterContext, value any) (any, error)
}

// FilterFunc allows plain functions to satisfy Filter.
type FilterFunc func(ctx FilterContext, value any) (any, error)

// Apply dispatches to the underlying function.
func (fn FilterFunc) Apply(ctx FilterContext, value any) (any, error) {
	if fn == nil {
		return value, nil
	}
	return fn(ctx, value)
}

// FilterContext carries inputs needed when applying a filter.
type FilterContext struct {
	Context  context.Context
	Hook     string
	Key      string
	Args     []any
	Now      *time.Time
	Metadata map[string]any
}

func (ctx FilterContext) withDefaultNow() FilterContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx FilterContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx FilterContext) withDefaults() FilterContext {
	ctx = ctx.withDefaultNow()
	if ctx.Context == nil {
		ctx.Context = context.Background()
	}
	if ctx.Args == nil {
		ctx.Args = []any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx FilterContext) hookLabel() string {
	if ctx.Hook == "" {
		return "unknown"
	}
	return ctx.Hook
}

// Hook name suffixes scoped by the store namespace.
const (
	hookGetSetting       = "get_setting"
	hookPreUpdateSetting = "pre_update_setting"
	hookGetAllSettings   = "get_all_settings"
)

// Option configures a Store during construction.
type Option func(*config)

type config struct {
	defaults   map[string]any
	namespace  string
	backend    Backend
	dispatcher Dispatcher
	logger     Logger
	emitter    *activity.Emitter
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithDefaults seeds the defaults table. The mapping is deep copied so the
// Store stays detached from the caller's reference.
func WithDefaults(defaults map[string]any) Option {
	return func(cfg *config) {
		cfg.defaults = cloneMap(defaults)
	}
}

// WithNamespace overrides the namespace used to scope filter hook names.
func WithNamespace(namespace string) Option {
	return func(cfg *config) {
		cfg.namespace = namespace
	}
}

// WithBackend wires the persistence collaborator.
func WithBackend(backend Backend) Option {
	return func(cfg *config) {
		cfg.backend = backend
	}
}

// WithDispatcher wires the filter hook collaborator. Without one every hook
// is an identity passthrough.
func WithDispatcher(dispatcher Dispatcher) Option {
	return func(cfg *config) {
		cfg.dispatcher = dispatcher
	}
}
