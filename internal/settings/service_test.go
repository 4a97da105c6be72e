package settings

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	snap, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.BaseURL != DefaultBaseURL {
		t.Fatalf("base url = %q", snap.BaseURL)
	}
	if snap.MaxConcurrent != DefaultMaxConcurrent {
		t.Fatalf("max concurrent = %d", snap.MaxConcurrent)
	}
	if snap.Timeout != DefaultTimeoutSeconds*time.Second {
		t.Fatalf("timeout = %v", snap.Timeout)
	}
}

func TestLoadParsesStoredValues(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	err := repo.SetMany(ctx, map[string]string{
		KeyAPIKey:         "sk-test",
		KeyBaseURL:        "https://llm.internal/v1",
		KeyModel:          "gpt-4o",
		KeyMaxConcurrent:  "7",
		KeyTimeoutSeconds: "60",
	})
	if err != nil {
		t.Fatalf("SetMany: %v", err)
	}

	snap, err := svc.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.MaxConcurrent != 7 {
		t.Fatalf("max concurrent = %d, want 7", snap.MaxConcurrent)
	}
	if snap.Timeout != time.Minute {
		t.Fatalf("timeout = %v, want 1m", snap.Timeout)
	}
	if snap.BaseURL != "https://llm.internal/v1" {
		t.Fatalf("base url = %q", snap.BaseURL)
	}
}

func TestUpdateRejectsInvalidValues(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	cases := []map[string]string{
		{KeyAPIKey: "not-a-key"},
		{KeyBaseURL: "ftp://nope"},
		{KeyModel: "   "},
		{KeySystemPrompt: ""},
		{KeyMaxConcurrent: "0"},
		{KeyMaxConcurrent: "three"},
		{KeyTimeoutSeconds: "-5"},
		{"unknown_key": "x"},
	}
	for _, values := range cases {
		if err := svc.Update(ctx, values); err == nil {
			t.Fatalf("expected error for %v", values)
		}
	}
}

func TestMaskedHidesAPIKey(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if err := repo.Set(ctx, KeyAPIKey, "sk-abcdef1234567890"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := repo.Set(ctx, KeyModel, "gpt-4o"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	out, err := svc.Masked(ctx)
	if err != nil {
		t.Fatalf("Masked: %v", err)
	}
	for _, s := range out {
		switch s.Key {
		case KeyAPIKey:
			if strings.Contains(s.Value, "abcdef1234567890") {
				t.Fatalf("api key leaked: %q", s.Value)
			}
		case KeyModel:
			if s.Value != "gpt-4o" {
				t.Fatalf("model = %q", s.Value)
			}
		}
	}
}
