package settings

import (
	"encoding/json"
	"reflect"

	"github.com/goliatone/go-settings/internal/decode"
)

// decodeIfJSON replaces a string value that looks like a JSON document (first
// byte `{` or `[`) with its decoded structure. Decode failures are swallowed
// and the original string kept.
func decodeIfJSON(value any) (any, bool) {
	raw, ok := value.(string)
	if !ok || raw == "" {
		return value, false
	}
	if raw[0] != '{' && raw[0] != '[' {
		return value, false
	}
	decoded, ok := decode.Maybe(raw)
	if !ok {
		return value, false
	}
	return decoded, true
}

// collapseValuePair reduces a two-entry mapping carrying a "value" entry to
// just that entry's value — the select-field {value, label} convention. The
// heuristic is deliberately loose and can misfire on unrelated two-key data;
// it is kept for compatibility.
func collapseValuePair(value any) (any, bool) {
	mapping, ok := value.(map[string]any)
	if !ok || len(mapping) != 2 {
		return value, false
	}
	inner, ok := mapping["value"]
	if !ok {
		return value, false
	}
	return inner, true
}

// isEmptyValue classifies values for the delete-on-empty update rule. The
// rule is deliberately asymmetric: numeric zero and false are valid stored
// values, while nil, empty strings, and empty mappings/sequences are not.
func isEmptyValue(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case bool:
		return false
	case string:
		return typed == ""
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return false
	case map[string]any:
		return len(typed) == 0
	case []any:
		return len(typed) == 0
	}

	// Typed maps/slices supplied by callers (e.g. []string, map[string]int).
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
