package settings

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// fakeBackend is a call-counting persistence double.
type fakeBackend struct {
	stored    map[string]map[string]any
	loadCalls int
	saveCalls int
	loadErr   error
	saveErr   error
	lastSaved map[string]any
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{stored: map[string]map[string]any{}}
}

func (b *fakeBackend) Load(_ context.Context, name string) (map[string]any, error) {
	b.loadCalls++
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	return b.stored[name], nil
}

func (b *fakeBackend) Save(_ context.Context, name string, values map[string]any) error {
	b.saveCalls++
	if b.saveErr != nil {
		return b.saveErr
	}
	b.stored[name] = values
	b.lastSaved = values
	return nil
}

type dispatchCall struct {
	hook  string
	value any
	args  []any
}

// capturingDispatcher records hook invocations and optionally rewrites values.
type capturingDispatcher struct {
	calls   []dispatchCall
	rewrite func(hook string, value any, args []any) any
}

func (d *capturingDispatcher) Apply(_ context.Context, hook string, value any, args ...any) any {
	d.calls = append(d.calls, dispatchCall{hook: hook, value: value, args: args})
	if d.rewrite != nil {
		return d.rewrite(hook, value, args)
	}
	return value
}

func newStore(t *testing.T, backend Backend, opts ...Option) *Store {
	t.Helper()
	store, err := New("plugin-settings", append([]Option{WithBackend(backend)}, opts...)...)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestNewValidation(t *testing.T) {
	if _, err := New("", WithBackend(newFakeBackend())); !errors.Is(err, ErrOptionNameRequired) {
		t.Fatalf("expected ErrOptionNameRequired, got %v", err)
	}
	if _, err := New("plugin-settings"); !errors.Is(err, ErrBackendRequired) {
		t.Fatalf("expected ErrBackendRequired, got %v", err)
	}
}

func TestNamespaceDerivedFromOptionName(t *testing.T) {
	store := newStore(t, newFakeBackend())
	if store.Namespace() != "plugin_settings" {
		t.Fatalf("expected hyphens normalised, got %q", store.Namespace())
	}
	if store.OptionName() != "plugin-settings" {
		t.Fatalf("unexpected option name %q", store.OptionName())
	}

	custom := newStore(t, newFakeBackend(), WithNamespace("custom"))
	if custom.Namespace() != "custom" {
		t.Fatalf("expected explicit namespace, got %q", custom.Namespace())
	}
}

func TestGetFallbackChain(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, newFakeBackend(), WithDefaults(map[string]any{"theme": "dark"}))

	if got := store.Get(ctx, "missing"); got != nil {
		t.Fatalf("expected nil for unknown key, got %v", got)
	}
	if got := store.GetDefault(ctx, "missing", "fallback"); got != "fallback" {
		t.Fatalf("expected explicit fallback, got %v", got)
	}
	if got := store.Get(ctx, "theme"); got != "dark" {
		t.Fatalf("expected default value, got %v", got)
	}
	// The explicit fallback wins over the defaults table only when the key
	// resolves nothing; a cached value beats both.
	if got := store.GetDefault(ctx, "theme", "light"); got != "dark" {
		t.Fatalf("expected cached default over fallback, got %v", got)
	}
}

func TestStoredValuesOverrideDefaults(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.stored["plugin-settings"] = map[string]any{"theme": "light"}

	store := newStore(t, backend, WithDefaults(map[string]any{"theme": "dark", "lang": "en"}))
	if got := store.Get(ctx, "theme"); got != "light" {
		t.Fatalf("expected stored override, got %v", got)
	}
	if got := store.Get(ctx, "lang"); got != "en" {
		t.Fatalf("expected default for unstored key, got %v", got)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, newFakeBackend())

	if !store.Update(ctx, "theme", "light") {
		t.Fatalf("expected update to persist")
	}
	if got := store.Get(ctx, "theme"); got != "light" {
		t.Fatalf("expected updated value, got %v", got)
	}
	if !store.Has(ctx, "theme") {
		t.Fatalf("expected Has true after update")
	}
	if !store.Delete(ctx, "theme") {
		t.Fatalf("expected delete to persist")
	}
	if store.Has(ctx, "theme") {
		t.Fatalf("expected Has false after delete")
	}
}

func TestUpdateEmptyKeyRejected(t *testing.T) {
	backend := newFakeBackend()
	dispatcher := &capturingDispatcher{}
	store := newStore(t, backend, WithDispatcher(dispatcher))

	if store.Update(context.Background(), "", "value") {
		t.Fatalf("expected empty key update to fail")
	}
	if backend.saveCalls != 0 {
		t.Fatalf("expected no persistence, got %d saves", backend.saveCalls)
	}
	if len(dispatcher.calls) != 0 {
		t.Fatalf("expected no hook calls, got %d", len(dispatcher.calls))
	}
	if store.Delete(context.Background(), "") {
		t.Fatalf("expected empty key delete to fail")
	}
}

func TestUpdateEmptyValueDegradesToDelete(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name  string
		value any
	}{
		{"nil", nil},
		{"empty string", ""},
		{"empty map", map[string]any{}},
		{"empty slice", []any{}},
		{"typed empty slice", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore(t, newFakeBackend())
			if !store.Update(ctx, "field", "kept") {
				t.Fatalf("seed update failed")
			}
			if !store.Update(ctx, "field", tc.value) {
				t.Fatalf("empty update should report delete result")
			}
			if store.Has(ctx, "field") {
				t.Fatalf("expected key removed after empty update")
			}
		})
	}
}

func TestZeroAndFalseArePersisted(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, newFakeBackend())

	if !store.Update(ctx, "count", 0) {
		t.Fatalf("zero should persist")
	}
	if got := store.Get(ctx, "count"); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if !store.Update(ctx, "enabled", false) {
		t.Fatalf("false should persist")
	}
	if got := store.Get(ctx, "enabled"); got != false {
		t.Fatalf("expected false, got %v", got)
	}
}

func TestDotPathRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, newFakeBackend())

	if !store.Update(ctx, "a.b.c", "deep") {
		t.Fatalf("nested update failed")
	}
	if got := store.Get(ctx, "a.b.c"); got != "deep" {
		t.Fatalf("expected nested value, got %v", got)
	}

	// Intermediate scalars are replaced with mappings on write.
	if !store.Update(ctx, "a.b", "scalar") {
		t.Fatalf("scalar write failed")
	}
	if !store.Update(ctx, "a.b.d", "rebuilt") {
		t.Fatalf("write through scalar failed")
	}
	if got := store.Get(ctx, "a.b.d"); got != "rebuilt" {
		t.Fatalf("expected rebuilt path, got %v", got)
	}
	if got := store.Get(ctx, "a.b.c"); got != nil {
		t.Fatalf("expected scalar overwrite to discard old subtree, got %v", got)
	}
}

func TestDeleteMissingPathIsNoop(t *testing.T) {
	store := newStore(t, newFakeBackend())
	if !store.Delete(context.Background(), "a.b.c") {
		t.Fatalf("expected no-op delete to report persist success")
	}
}

func TestHasSemantics(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.stored["plugin-settings"] = map[string]any{
		"simple": nil,
		"nested": map[string]any{"leaf": nil},
	}
	store := newStore(t, backend)

	// Simple keys count presence even with a nil value; dotted keys treat a
	// nil leaf as absent because the resolver's not-found sentinel is nil.
	if !store.Has(ctx, "simple") {
		t.Fatalf("expected present nil-valued simple key to count")
	}
	if store.Has(ctx, "nested.leaf") {
		t.Fatalf("expected nil leaf to read as absent for dotted key")
	}
	if store.Has(ctx, "nested.missing") {
		t.Fatalf("expected missing leaf to be absent")
	}
	if store.Has(ctx, "") {
		t.Fatalf("expected empty key to be absent")
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	defaults := map[string]any{"theme": "dark", "lang": "en"}
	store := newStore(t, backend, WithDefaults(defaults))

	store.Update(ctx, "theme", "light")
	store.Update(ctx, "extra", "value")

	if !store.Reset(ctx) {
		t.Fatalf("reset should persist")
	}
	if got := store.All(ctx); !reflect.DeepEqual(got, defaults) {
		t.Fatalf("expected all == defaults after reset, got %v", got)
	}
	if len(backend.lastSaved) != 0 {
		t.Fatalf("expected empty diff persisted on reset, got %v", backend.lastSaved)
	}
}

func TestRegisterDefaultsBackfillsLoadedCache(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, newFakeBackend(), WithDefaults(map[string]any{"existing": "stored"}))

	store.Update(ctx, "existing", "override")

	store.RegisterDefaults(map[string]any{"new": 5, "existing": 99})
	if got := store.Get(ctx, "new"); got != 5 {
		t.Fatalf("expected late default visible without reload, got %v", got)
	}
	if got := store.Get(ctx, "existing"); got != "override" {
		t.Fatalf("expected cached override untouched, got %v", got)
	}

	// The defaults table itself takes the newer value.
	store.Delete(ctx, "existing")
	if got := store.Get(ctx, "existing"); got != 99 {
		t.Fatalf("expected re-registered default after delete, got %v", got)
	}
}

func TestJSONStringValuesDecodeOnRead(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	store := newStore(t, backend)

	store.Update(ctx, "cfg", `{"k":"v"}`)
	got := store.Get(ctx, "cfg")
	if !reflect.DeepEqual(got, map[string]any{"k": "v"}) {
		t.Fatalf("expected decoded mapping, got %#v", got)
	}
	// The raw string is what gets persisted.
	if backend.lastSaved["cfg"] != `{"k":"v"}` {
		t.Fatalf("expected raw string persisted, got %v", backend.lastSaved["cfg"])
	}

	store.Update(ctx, "broken", `{"k":`)
	if got := store.Get(ctx, "broken"); got != `{"k":` {
		t.Fatalf("expected malformed JSON left untouched, got %v", got)
	}

	store.Update(ctx, "list", `[1,2]`)
	if got := store.Get(ctx, "list"); !reflect.DeepEqual(got, []any{float64(1), float64(2)}) {
		t.Fatalf("expected decoded array, got %#v", got)
	}
}

func TestValueLabelPairCollapses(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, newFakeBackend())

	store.Update(ctx, "country", map[string]any{"value": "US", "label": "United States"})
	if got := store.Get(ctx, "country"); got != "US" {
		t.Fatalf("expected collapsed value, got %v", got)
	}
}

func TestSaveDiffOmitsDefaultEqualValues(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	store := newStore(t, backend, WithDefaults(map[string]any{"x": "default"}))

	store.Update(ctx, "x", "changed")
	if backend.lastSaved["x"] != "changed" {
		t.Fatalf("expected diverging value in diff, got %v", backend.lastSaved)
	}

	store.Update(ctx, "x", "default")
	if _, ok := backend.lastSaved["x"]; ok {
		t.Fatalf("expected default-equal value omitted from diff, got %v", backend.lastSaved)
	}
}

func TestClearCacheReloadsOnce(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	store := newStore(t, backend)

	store.Get(ctx, "a")
	store.Get(ctx, "b")
	store.Has(ctx, "c")
	if backend.loadCalls != 1 {
		t.Fatalf("expected one load per lifetime, got %d", backend.loadCalls)
	}

	store.ClearCache()
	store.Get(ctx, "a")
	store.Get(ctx, "b")
	if backend.loadCalls != 2 {
		t.Fatalf("expected exactly one reload after ClearCache, got %d", backend.loadCalls)
	}
}

func TestBackendFailuresDegrade(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.loadErr = errors.New("storage down")
	store := newStore(t, backend, WithDefaults(map[string]any{"theme": "dark"}))

	if got := store.Get(ctx, "theme"); got != "dark" {
		t.Fatalf("expected defaults to survive load failure, got %v", got)
	}

	backend.saveErr = errors.New("write refused")
	if store.Update(ctx, "theme", "light") {
		t.Fatalf("expected update to report persist failure")
	}
}

func TestHooksFireWithNamespaceScopedNames(t *testing.T) {
	ctx := context.Background()
	dispatcher := &capturingDispatcher{}
	store := newStore(t, newFakeBackend(), WithDispatcher(dispatcher))

	store.GetDefault(ctx, "theme", "fallback")
	store.Update(ctx, "theme", "light")
	store.All(ctx)

	hooks := make([]string, 0, len(dispatcher.calls))
	for _, call := range dispatcher.calls {
		hooks = append(hooks, call.hook)
	}
	want := []string{
		"plugin_settings_get_setting",
		"plugin_settings_pre_update_setting",
		"plugin_settings_get_all_settings",
	}
	if !reflect.DeepEqual(hooks, want) {
		t.Fatalf("unexpected hook sequence: %v", hooks)
	}

	getCall := dispatcher.calls[0]
	if getCall.value != "fallback" {
		t.Fatalf("expected resolved value through hook, got %v", getCall.value)
	}
	if !reflect.DeepEqual(getCall.args, []any{"theme", "fallback"}) {
		t.Fatalf("expected key and fallback as hook args, got %v", getCall.args)
	}
}

func TestPreUpdateHookRewritesValue(t *testing.T) {
	ctx := context.Background()
	dispatcher := &capturingDispatcher{
		rewrite: func(hook string, value any, _ []any) any {
			if hook == "plugin_settings_pre_update_setting" {
				return "sanitised"
			}
			return value
		},
	}
	store := newStore(t, newFakeBackend(), WithDispatcher(dispatcher))

	store.Update(ctx, "field", "raw")
	if got := store.GetDefault(ctx, "field", nil); got != "sanitised" {
		t.Fatalf("expected filtered value stored, got %v", got)
	}
}

func TestPreUpdateHookEmptyResultDeletes(t *testing.T) {
	ctx := context.Background()
	dispatcher := &capturingDispatcher{
		rewrite: func(hook string, value any, _ []any) any {
			if hook == "plugin_settings_pre_update_setting" {
				return ""
			}
			return value
		},
	}
	store := newStore(t, newFakeBackend(), WithDispatcher(dispatcher))

	store.Update(ctx, "field", "anything")
	if store.Has(ctx, "field") {
		t.Fatalf("expected hook-emptied value to delete the key")
	}
}

func TestAllToleratesBadFilterShape(t *testing.T) {
	ctx := context.Background()
	dispatcher := &capturingDispatcher{
		rewrite: func(hook string, value any, _ []any) any {
			if hook == "plugin_settings_get_all_settings" {
				return "not a mapping"
			}
			return value
		},
	}
	store := newStore(t, newFakeBackend(), WithDefaults(map[string]any{"a": 1}), WithDispatcher(dispatcher))

	got := store.All(ctx)
	if !reflect.DeepEqual(got, map[string]any{"a": 1}) {
		t.Fatalf("expected unfiltered view on shape mismatch, got %v", got)
	}
}

func TestAllReturnsDetachedView(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, newFakeBackend(), WithDefaults(map[string]any{"nested": map[string]any{"a": 1}}))

	view := store.All(ctx)
	view["nested"].(map[string]any)["a"] = 99
	if got := store.Get(ctx, "nested.a"); got != 1 {
		t.Fatalf("expected cache isolated from returned view, got %v", got)
	}
}

func TestGetWithTraceReportsSource(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.stored["plugin-settings"] = map[string]any{"stored": "yes"}
	store := newStore(t, backend, WithDefaults(map[string]any{"default": "d"}))

	_, trace := store.GetWithTrace(ctx, "stored", nil)
	if trace.Source != SourceCache {
		t.Fatalf("expected cache source, got %q", trace.Source)
	}
	_, trace = store.GetWithTrace(ctx, "missing", "fb")
	if trace.Source != SourceFallback {
		t.Fatalf("expected fallback source, got %q", trace.Source)
	}
	store.Delete(ctx, "default")
	_, trace = store.GetWithTrace(ctx, "default", nil)
	if trace.Source != SourceDefault {
		t.Fatalf("expected default source, got %q", trace.Source)
	}
	_, trace = store.GetWithTrace(ctx, "missing", nil)
	if trace.Source != SourceNone {
		t.Fatalf("expected none source, got %q", trace.Source)
	}

	store.Update(ctx, "doc", `{"a":1}`)
	_, trace = store.GetWithTrace(ctx, "doc", nil)
	if !trace.Decoded {
		t.Fatalf("expected decode flag on JSON string value")
	}
}

func TestLoggerObservesOperations(t *testing.T) {
	ctx := context.Background()
	var events []LogEvent
	store := newStore(t, newFakeBackend(), WithLogger(LoggerFunc(func(event LogEvent) {
		events = append(events, event)
	})))

	store.Update(ctx, "key", "value")
	var ops []string
	for _, event := range events {
		ops = append(ops, event.Op)
	}
	if !reflect.DeepEqual(ops, []string{"load", "save"}) {
		t.Fatalf("expected load then save logged, got %v", ops)
	}
}
