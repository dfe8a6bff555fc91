package settings

import "context"

// Update writes value under key (path-aware) and persists the diff. The value
// first passes the pre_update_setting hook; if the filtered result classifies
// as empty — nil, empty string, empty mapping or sequence, but never a number
// or boolean — the update degrades to Delete so clearing a form field removes
// the override instead of storing an empty value. Returns the persist result.
func (s *Store) Update(ctx context.Context, key string, value any) bool {
	if key == "" {
		return false
	}
	s.load(ctx)

	value = s.dispatcher().Apply(ctx, s.hookName(hookPreUpdateSetting), value, key)
	if isEmptyValue(value) {
		return s.Delete(ctx, key)
	}

	old := s.peek(key)
	s.setNested(key, cloneAny(value))
	ok := s.save(ctx)
	s.emitUpdated(ctx, key, old, value, ok)
	return ok
}

// Delete removes key from the cache (path-aware; missing intermediate
// segments make it a no-op) and persists the diff. Returns the persist
// result, or false for an empty key.
func (s *Store) Delete(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}
	s.load(ctx)

	old := s.peek(key)
	s.deleteNested(key)
	ok := s.save(ctx)
	s.emitDeleted(ctx, key, old, ok)
	return ok
}

// peek reads the raw cached value for key without fallback, decoding, or
// hooks. Used to report prior values on activity events.
func (s *Store) peek(key string) any {
	if isPathKey(key) {
		return s.getNested(key)
	}
	return s.cache[key]
}
