package settings

import "reflect"

// equalValues compares settings values structurally.
func equalValues(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// cloneMap deep copies a settings mapping so callers and cache never share
// nested structure.
func cloneMap(origin map[string]any) map[string]any {
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = cloneAny(value)
	}
	return out
}

// cloneAny deep copies the mapping/sequence shapes settings values take.
// Scalars and unrecognised types are returned as-is.
func cloneAny(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		if typed == nil {
			return nil
		}
		return cloneMap(typed)
	case []any:
		if typed == nil {
			return nil
		}
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneAny(item)
		}
		return out
	default:
		return value
	}
}
