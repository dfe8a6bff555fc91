package settings

// Read-side operations: resolution walks the cache (path-aware for dotted
// keys), falls through the explicit fallback and defaults table, then applies
// JSON-string decoding and value/label collapsing before the get filter hook.

import "context"

// Get resolves key against the merged settings view. Absent keys yield nil
// after exhausting the defaults chain; no error is ever surfaced.
func (s *Store) Get(ctx context.Context, key string) any {
	return s.GetDefault(ctx, key, nil)
}

// GetDefault behaves like Get with an explicit fallback that takes precedence
// over the defaults table.
func (s *Store) GetDefault(ctx context.Context, key string, fallback any) any {
	value, _ := s.resolve(ctx, key, fallback)
	return value
}

// GetWithTrace resolves key and reports which layer produced the value.
func (s *Store) GetWithTrace(ctx context.Context, key string, fallback any) (any, Trace) {
	return s.resolve(ctx, key, fallback)
}

// Has reports whether key resolves to a value. Dotted keys are true only when
// the nested walk reaches a non-nil leaf; simple keys are true whenever the
// key is present in the cache, even with a nil value. The asymmetry between
// the two forms is kept for compatibility with the original accessor.
func (s *Store) Has(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}
	s.load(ctx)
	if isPathKey(key) {
		return s.getNested(key) != nil
	}
	_, ok := s.cache[key]
	return ok
}

// All returns the merged defaults-plus-overrides view, passed through the
// get_all_settings hook. The returned mapping is detached from the cache.
func (s *Store) All(ctx context.Context) map[string]any {
	s.load(ctx)
	view := cloneMap(s.cache)
	filtered := s.dispatcher().Apply(ctx, s.hookName(hookGetAllSettings), view)
	if mapping, ok := filtered.(map[string]any); ok {
		return mapping
	}
	s.logger().LogOperation(LogEvent{
		Op:   "all",
		Hook: s.hookName(hookGetAllSettings),
		Err:  errFilterShape,
	})
	return view
}

func (s *Store) resolve(ctx context.Context, key string, fallback any) (any, Trace) {
	s.load(ctx)
	trace := Trace{Key: key, Source: SourceNone}

	var value any
	if isPathKey(key) {
		value = s.getNested(key)
	} else {
		value = s.cache[key]
	}
	if value != nil {
		trace.Source = SourceCache
	}

	// Fallback chain: explicit fallback first, then the top-level defaults
	// entry under the full (possibly dotted) key.
	if value == nil {
		if fallback != nil {
			value = fallback
			trace.Source = SourceFallback
		} else if def, ok := s.defaults[key]; ok && def != nil {
			value = def
			trace.Source = SourceDefault
		}
	}

	value = cloneAny(value)
	if decoded, ok := decodeIfJSON(value); ok {
		value = decoded
		trace.Decoded = true
	}
	if collapsed, ok := collapseValuePair(value); ok {
		value = collapsed
		trace.Collapsed = true
	}

	value = s.dispatcher().Apply(ctx, s.hookName(hookGetSetting), value, key, fallback)
	trace.Value = value
	return value, trace
}
