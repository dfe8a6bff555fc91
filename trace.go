package settings

import "encoding/json"

// Source identifies the layer that produced a resolved value.
type Source string

const (
	// SourceCache marks values resolved from the merged cache.
	SourceCache Source = "cache"
	// SourceFallback marks values taken from the caller's explicit fallback.
	SourceFallback Source = "fallback"
	// SourceDefault marks values taken from the defaults table.
	SourceDefault Source = "default"
	// SourceNone marks lookups that resolved nothing.
	SourceNone Source = "none"
)

// Trace captures provenance for a single lookup: where the value came from
// and whether normalisation rewrote it on the way out.
type Trace struct {
	Key       string `json:"key"`
	Source    Source `json:"source"`
	Value     any    `json:"value,omitempty"`
	Decoded   bool   `json:"decoded,omitempty"`
	Collapsed bool   `json:"collapsed,omitempty"`
}

// ToJSON serialises the trace for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload previously produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
