package settings

type jsFilterConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// JSFilterOption configures a JavaScript-backed filter instance.
type JSFilterOption func(*jsFilterConfig)

// JSWithProgramCache applies a ProgramCache to the JS filter.
func JSWithProgramCache(cache ProgramCache) JSFilterOption {
	return func(cfg *jsFilterConfig) {
		cfg.cache = cache
	}
}

// JSWithFunctionRegistry applies a FunctionRegistry to the JS filter.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSFilterOption {
	return func(cfg *jsFilterConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyJSFilterOptions(opts []JSFilterOption) jsFilterConfig {
	cfg := jsFilterConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
