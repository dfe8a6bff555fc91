package settings

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// FieldDescriptor describes one dot path in the merged settings view: the
// inferred value type, the default at that path when one exists, and whether
// the current value diverges from it.
type FieldDescriptor struct {
	Path       string `json:"path"`
	Type       string `json:"type"`
	Default    any    `json:"default,omitempty"`
	HasDefault bool   `json:"has_default"`
	Overridden bool   `json:"overridden"`
}

// Describe flattens the merged settings view into sorted field descriptors.
// Settings forms and admin surfaces use this to render what is configurable
// and what has been changed; it describes, it does not validate.
func (s *Store) Describe(ctx context.Context) []FieldDescriptor {
	s.load(ctx)
	descriptors := deriveFieldDescriptors(s.cache, "")
	for i := range descriptors {
		def, ok := lookupPath(s.defaults, descriptors[i].Path)
		descriptors[i].HasDefault = ok
		if ok {
			descriptors[i].Default = cloneAny(def)
			current, _ := lookupPath(s.cache, descriptors[i].Path)
			descriptors[i].Overridden = !equalValues(current, def)
		} else {
			descriptors[i].Overridden = true
		}
	}
	return descriptors
}

func deriveFieldDescriptors(value any, prefix string) []FieldDescriptor {
	if value == nil {
		return nil
	}

	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			return []FieldDescriptor{{
				Path: prefix,
				Type: "map[string]any",
			}}
		}
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var fields []FieldDescriptor
		for _, key := range keys {
			nextPrefix := joinPath(prefix, key)
			fields = append(fields, deriveFieldDescriptors(typed[key], nextPrefix)...)
		}
		return fields
	case []any:
		elementType := "any"
		if len(typed) > 0 {
			elementType = typeName(typed[0])
		}
		return []FieldDescriptor{{
			Path: prefix,
			Type: "[]" + elementType,
		}}
	default:
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{
			Path: prefix,
			Type: typeName(typed),
		}}
	}
}

func lookupPath(mapping map[string]any, path string) (any, bool) {
	var current any = mapping
	for _, segment := range strings.Split(path, pathSeparator) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, pathSeparator)
}
