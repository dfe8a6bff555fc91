package settings

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrOptionNameRequired indicates New was called without a store key.
	ErrOptionNameRequired = errors.New("settings: option name must be provided")
	// ErrBackendRequired indicates New was called without a persistence backend.
	ErrBackendRequired = errors.New("settings: backend must be provided")
)

// Store is a settings accessor layered over a key-value backend. It keeps a
// lazily loaded in-memory cache (one backend round trip per instance unless
// ClearCache is called), resolves dot-notation keys through nested mappings,
// falls back to a defaults table, and persists only values that diverge from
// those defaults.
//
// A Store owns its cache exclusively and performs no locking; concurrent
// writers sharing the same option name race at the backend layer.
type Store struct {
	optionName string
	namespace  string
	defaults   map[string]any
	cache      map[string]any
	loaded     bool
	cfg        config
}

// New constructs a Store persisting under optionName. The namespace defaults
// to optionName with hyphens normalised to underscores.
func New(optionName string, opts ...Option) (*Store, error) {
	if optionName == "" {
		return nil, ErrOptionNameRequired
	}
	cfg := applyOptions(opts)
	if cfg.backend == nil {
		return nil, ErrBackendRequired
	}
	namespace := cfg.namespace
	if namespace == "" {
		namespace = strings.ReplaceAll(optionName, "-", "_")
	}
	defaults := cfg.defaults
	if defaults == nil {
		defaults = map[string]any{}
	}
	return &Store{
		optionName: optionName,
		namespace:  namespace,
		defaults:   defaults,
		cfg:        cfg,
	}, nil
}

// OptionName returns the backend key the settings blob is persisted under.
func (s *Store) OptionName() string {
	return s.optionName
}

// Namespace returns the prefix used to scope filter hook names.
func (s *Store) Namespace() string {
	return s.namespace
}

// ClearCache discards the in-memory cache without touching the backend. The
// next operation reloads from storage.
func (s *Store) ClearCache() {
	s.cache = nil
	s.loaded = false
}

// RegisterDefaults merges newDefaults into the defaults table, with the new
// entries winning on conflict. When the cache is already loaded, keys absent
// from it are back-filled so late-registered defaults become visible without
// a reload; stored overrides are never clobbered.
func (s *Store) RegisterDefaults(newDefaults map[string]any) {
	for key, value := range newDefaults {
		s.defaults[key] = cloneAny(value)
	}
	if !s.loaded {
		return
	}
	for key, value := range newDefaults {
		if _, ok := s.cache[key]; !ok {
			s.cache[key] = cloneAny(value)
		}
	}
}

// Reset discards every stored override, leaving the cache equal to the
// defaults table, and persists the (empty) diff.
func (s *Store) Reset(ctx context.Context) bool {
	s.cache = cloneMap(s.defaults)
	s.loaded = true
	ok := s.save(ctx)
	s.emitReset(ctx, ok)
	return ok
}

func (s *Store) hookName(suffix string) string {
	return s.namespace + "_" + suffix
}

func (s *Store) dispatcher() Dispatcher {
	if s.cfg.dispatcher != nil {
		return s.cfg.dispatcher
	}
	return noopDispatcher{}
}

func (s *Store) logger() Logger {
	if s.cfg.logger != nil {
		return s.cfg.logger
	}
	return noopLogger{}
}

// load populates the cache on first use: the defaults table is cloned, then
// the stored diff is merged over it with stored values winning per key.
// Backend failures and malformed blobs degrade to "nothing stored".
func (s *Store) load(ctx context.Context) {
	if s.loaded {
		return
	}
	start := time.Now()
	stored, err := s.cfg.backend.Load(ctx, s.optionName)
	s.logger().LogOperation(LogEvent{
		Op:       "load",
		Key:      s.optionName,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		stored = nil
	}
	cache := cloneMap(s.defaults)
	for key, value := range stored {
		cache[key] = cloneAny(value)
	}
	s.cache = cache
	s.loaded = true
}

// save persists the diff between cache and defaults: every key with no
// default, or whose value differs from it, is written. An all-default cache
// persists as an empty mapping.
func (s *Store) save(ctx context.Context) bool {
	diff := map[string]any{}
	for key, value := range s.cache {
		def, ok := s.defaults[key]
		if !ok || !equalValues(value, def) {
			diff[key] = cloneAny(value)
		}
	}
	start := time.Now()
	err := s.cfg.backend.Save(ctx, s.optionName, diff)
	s.logger().LogOperation(LogEvent{
		Op:       "save",
		Key:      s.optionName,
		Duration: time.Since(start),
		Err:      err,
	})
	return err == nil
}
