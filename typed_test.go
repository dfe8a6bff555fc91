package settings

import (
	"context"
	"errors"
	"testing"
)

type smtpSettings struct {
	Host    string `json:"host"`
	Port    int    `json:"port"`
	UseTLS  bool   `json:"use_tls"`
	Replyto string `json:"reply_to"`
}

func TestAsDecodesMapping(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, newFakeBackend())
	store.Update(ctx, "smtp", map[string]any{
		"host":     "mail.example.com",
		"port":     587,
		"use_tls":  true,
		"reply_to": "ops@example.com",
	})

	got, err := As[smtpSettings](ctx, store, "smtp")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Host != "mail.example.com" || got.Port != 587 || !got.UseTLS {
		t.Fatalf("unexpected decode result: %+v", got)
	}
}

func TestAsDecodesJSONStringValue(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, newFakeBackend())
	store.Update(ctx, "smtp", `{"host":"mail.example.com","port":25}`)

	got, err := As[smtpSettings](ctx, store, "smtp")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Host != "mail.example.com" || got.Port != 25 {
		t.Fatalf("unexpected decode result: %+v", got)
	}
}

func TestAsMissingKey(t *testing.T) {
	store := newStore(t, newFakeBackend())
	_, err := As[smtpSettings](context.Background(), store, "missing")
	if !errors.Is(err, ErrNoValue) {
		t.Fatalf("expected ErrNoValue, got %v", err)
	}
}

func TestAsRejectsScalar(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, newFakeBackend())
	store.Update(ctx, "scalar", "just a string")

	if _, err := As[smtpSettings](ctx, store, "scalar"); err == nil {
		t.Fatalf("expected mapping shape error")
	}
}
