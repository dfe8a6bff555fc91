//go:build !js_filters

package settings

// NewJSFilter is unavailable without the js_filters build tag. Filters.Add
// drops the nil result, so registration sites need no tag awareness.
func NewJSFilter(expression string, opts ...JSFilterOption) Filter {
	_ = applyJSFilterOptions(opts)
	return nil
}

func jsFiltersAvailable() bool {
	return false
}
