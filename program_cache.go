package settings

import "sync"

// ProgramCache stores compiled expression programs keyed by expression
// strings so filters reused across many lookups compile once.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MemoryProgramCache is a process-local ProgramCache safe for concurrent use.
type MemoryProgramCache struct {
	programs sync.Map
}

// NewMemoryProgramCache constructs an empty cache.
func NewMemoryProgramCache() *MemoryProgramCache {
	return &MemoryProgramCache{}
}

// Get returns the cached program for key when present.
func (c *MemoryProgramCache) Get(key string) (any, bool) {
	return c.programs.Load(key)
}

// Set stores program under key, replacing any previous entry.
func (c *MemoryProgramCache) Set(key string, value any) {
	c.programs.Store(key, value)
}
