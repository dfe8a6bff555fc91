package settings

import "testing"

func TestJSFilterRegistrationMatchesBuildMode(t *testing.T) {
	filters := NewFilters()
	filters.Add("hook", NewJSFilter("value"))

	want := 0
	if jsFiltersAvailable() {
		want = 1
	}
	if got := filters.Len("hook"); got != want {
		t.Fatalf("expected %d registered filters for this build, got %d", want, got)
	}
}
