package settings

import (
	"strings"
	"sync"
)

const pathSeparator = "."

// segmentCache memoises key splits; dot keys are typically a small, stable
// set per process so the cache never needs eviction.
var segmentCache sync.Map // string -> []string

func isPathKey(key string) bool {
	return strings.Contains(key, pathSeparator)
}

func splitKey(key string) []string {
	if cached, ok := segmentCache.Load(key); ok {
		return cached.([]string)
	}
	segments := strings.Split(key, pathSeparator)
	segmentCache.Store(key, segments)
	return segments
}

// getNested walks the cache along key's segments, returning nil the moment a
// segment is missing or a non-mapping is reached mid-path. A nil leaf is
// indistinguishable from an absent one.
func (s *Store) getNested(key string) any {
	segments := splitKey(key)
	var current any = s.cache
	for _, segment := range segments {
		mapping, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = mapping[segment]
		if !ok {
			return nil
		}
	}
	return current
}

// setNested writes value at key, creating intermediate mappings as needed.
// A non-mapping value found at an intermediate segment is replaced with a
// fresh mapping, discarding whatever was there. The live cache structure is
// mutated in place.
func (s *Store) setNested(key string, value any) {
	segments := splitKey(key)
	current := s.cache
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

// deleteNested removes the leaf at key. A missing or non-mapping intermediate
// segment aborts as a no-op.
func (s *Store) deleteNested(key string) {
	segments := splitKey(key)
	current := s.cache
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			return
		}
		current = next
	}
	delete(current, segments[len(segments)-1])
}
