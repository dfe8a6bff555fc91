package decode

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

type webhookSettings struct {
	URL     string   `json:"url"`
	Retries int      `json:"retries"`
	Events  []string `json:"events"`
}

func TestMaybe(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		want  any
		valid bool
	}{
		{"object", `{"a":1}`, map[string]any{"a": float64(1)}, true},
		{"array", `[true,false]`, []any{true, false}, true},
		{"empty", "", nil, false},
		{"garbage", `{"a":`, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, valid := Maybe(tc.raw)
			if valid != tc.valid {
				t.Fatalf("valid = %v, want %v", valid, tc.valid)
			}
			if tc.valid && !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestDecodeBasic(t *testing.T) {
	decoder := NewDecoder[webhookSettings]()
	got, err := decoder.Decode(Context{Store: "site", Key: "webhook"}, map[string]any{
		"url":     "https://hooks.example.com",
		"retries": 3,
		"events":  []any{"created", "deleted"},
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := webhookSettings{
		URL:     "https://hooks.example.com",
		Retries: 3,
		Events:  []string{"created", "deleted"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestDecodeNilPayload(t *testing.T) {
	decoder := NewDecoder[webhookSettings]()
	if _, err := decoder.Decode(Context{Key: "webhook"}, nil); err == nil {
		t.Fatalf("expected nil payload error")
	}
}

func TestDecodePreHookNormalises(t *testing.T) {
	decoder := NewDecoder[webhookSettings](WithPreHook[webhookSettings](
		func(_ Context, payload map[string]any) (map[string]any, error) {
			if raw, ok := payload["events"].(string); ok {
				parts := strings.Split(raw, ",")
				events := make([]any, 0, len(parts))
				for _, p := range parts {
					events = append(events, strings.TrimSpace(p))
				}
				payload["events"] = events
			}
			return payload, nil
		},
	))

	got, err := decoder.Decode(Context{Key: "webhook"}, map[string]any{
		"url":    "https://hooks.example.com",
		"events": "created, deleted",
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got.Events, []string{"created", "deleted"}) {
		t.Fatalf("expected pre-hook split, got %v", got.Events)
	}
}

func TestDecodePreHookDoesNotMutateCaller(t *testing.T) {
	payload := map[string]any{"url": "original"}
	decoder := NewDecoder[webhookSettings](WithPreHook[webhookSettings](
		func(_ Context, p map[string]any) (map[string]any, error) {
			p["url"] = "rewritten"
			return p, nil
		},
	))

	if _, err := decoder.Decode(Context{Key: "webhook"}, payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["url"] != "original" {
		t.Fatalf("expected caller payload untouched, got %v", payload["url"])
	}
}

func TestDecodePostHookValidates(t *testing.T) {
	bad := errors.New("url required")
	decoder := NewDecoder[webhookSettings](WithPostHook[webhookSettings](
		func(_ Context, result *webhookSettings) error {
			if result.URL == "" {
				return bad
			}
			return nil
		},
	))

	if _, err := decoder.Decode(Context{Key: "webhook"}, map[string]any{"retries": 1}); !errors.Is(err, bad) {
		t.Fatalf("expected post-hook failure, got %v", err)
	}
}

func TestDecodeDisallowUnknownFields(t *testing.T) {
	decoder := NewDecoder[webhookSettings](WithDisallowUnknownFields[webhookSettings]())
	_, err := decoder.Decode(Context{Key: "webhook"}, map[string]any{
		"url":     "https://hooks.example.com",
		"unknown": true,
	})
	if err == nil {
		t.Fatalf("expected unknown field rejection")
	}
}

func TestDecodeUseNumber(t *testing.T) {
	type numberBag struct {
		Raw map[string]any `json:"raw"`
	}
	decoder := NewDecoder[numberBag](WithUseNumber[numberBag]())
	got, err := decoder.Decode(Context{Key: "numbers"}, map[string]any{
		"raw": map[string]any{"count": 10},
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := got.Raw["count"].(json.Number); !ok {
		t.Fatalf("expected json.Number, got %T", got.Raw["count"])
	}
}

func TestDecodeCustomDecoder(t *testing.T) {
	decoder := NewDecoder[webhookSettings](WithCustomDecoder[webhookSettings](
		func(ctx Context, payload map[string]any) (webhookSettings, error) {
			url, _ := payload["url"].(string)
			if url == "" {
				return webhookSettings{}, fmt.Errorf("missing url for %s", ctx.Key)
			}
			return webhookSettings{URL: url}, nil
		},
	))

	got, err := decoder.Decode(Context{Key: "webhook"}, map[string]any{"url": "custom"})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.URL != "custom" {
		t.Fatalf("expected custom path, got %+v", got)
	}

	if _, err := decoder.Decode(Context{Key: "webhook"}, map[string]any{}); err == nil {
		t.Fatalf("expected custom decoder error surfaced")
	}
}
