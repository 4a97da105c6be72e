package setup

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"analysis-backend/internal/adminauth"
	"analysis-backend/internal/settings"
)

func newTestSetup(t *testing.T) (*Service, *settings.MemoryRepo) {
	t.Helper()
	auth := adminauth.NewService(adminauth.NewMemoryRepo())
	auth.BcryptCost = bcrypt.MinCost
	settingsRepo := settings.NewMemoryRepo()
	return NewService(auth, settings.NewService(settingsRepo)), settingsRepo
}

func validPayload() Payload {
	return Payload{
		Username:           "admin",
		Password:           "longenough",
		OpenAIAPIKey:       "sk-test-key",
		OpenAIBaseURL:      "https://api.openai.com/v1",
		OpenAIModel:        "gpt-4o",
		SystemPrompt:       "You analyze code submissions.",
		MaxConcurrentTasks: 2,
		RequestTimeoutSecs: 120,
	}
}

func TestInitializeCreatesAdminAndSettings(t *testing.T) {
	svc, settingsRepo := newTestSetup(t)
	ctx := context.Background()

	if err := svc.Initialize(ctx, validPayload()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	done, err := svc.Initialized(ctx)
	if err != nil || !done {
		t.Fatalf("Initialized = %v, %v", done, err)
	}

	model, err := settingsRepo.Get(ctx, settings.KeyModel)
	if err != nil || model != "gpt-4o" {
		t.Fatalf("model = %q, %v", model, err)
	}
	maxTasks, err := settingsRepo.Get(ctx, settings.KeyMaxConcurrent)
	if err != nil || maxTasks != "2" {
		t.Fatalf("max tasks = %q, %v", maxTasks, err)
	}
	timeout, err := settingsRepo.Get(ctx, settings.KeyTimeoutSeconds)
	if err != nil || timeout != "120" {
		t.Fatalf("timeout = %q, %v", timeout, err)
	}

	if _, err := svc.Auth.Authenticate(ctx, "admin", "longenough"); err != nil {
		t.Fatalf("Authenticate after init: %v", err)
	}
}

func TestInitializeIsOneShot(t *testing.T) {
	svc, _ := newTestSetup(t)
	ctx := context.Background()

	if err := svc.Initialize(ctx, validPayload()); err != nil {
		t.Fatalf("first Initialize: %v", err)
	}
	if err := svc.Initialize(ctx, validPayload()); err != ErrAlreadyInitialized {
		t.Fatalf("err = %v, want ErrAlreadyInitialized", err)
	}
}

func TestInitializeValidation(t *testing.T) {
	svc, _ := newTestSetup(t)
	ctx := context.Background()

	cases := []func(*Payload){
		func(p *Payload) { p.Password = "short" },
		func(p *Payload) { p.OpenAIAPIKey = "" },
		func(p *Payload) { p.OpenAIAPIKey = "no-prefix" },
		func(p *Payload) { p.OpenAIBaseURL = "" },
		func(p *Payload) { p.OpenAIBaseURL = "not-a-url" },
		func(p *Payload) { p.OpenAIModel = "  " },
		func(p *Payload) { p.SystemPrompt = "" },
	}
	for i, mutate := range cases {
		p := validPayload()
		mutate(&p)
		if err := svc.Initialize(ctx, p); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
		// A rejected payload must not leave a half-created state behind;
		// the wizard stays open until one attempt succeeds in full.
		if done, err := svc.Initialized(ctx); err != nil || done {
			t.Fatalf("case %d: initialized = %v, %v after rejected payload", i, done, err)
		}
	}
}

func TestInitializeRejectedSettingsLeaveNoSettings(t *testing.T) {
	svc, settingsRepo := newTestSetup(t)
	ctx := context.Background()

	p := validPayload()
	p.OpenAIAPIKey = "no-prefix"
	if err := svc.Initialize(ctx, p); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := settingsRepo.Get(ctx, settings.KeyModel); err == nil {
		t.Fatal("settings persisted despite rejected payload")
	}
}

func TestInitializeEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _ := newTestSetup(t)

	router := gin.New()
	api := router.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/initialize/status", nil))
	if resp.Code != http.StatusOK || !bytes.Contains(resp.Body.Bytes(), []byte(`"initialized":false`)) {
		t.Fatalf("status = %d, body %s", resp.Code, resp.Body.String())
	}

	body, _ := json.Marshal(validPayload())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/initialize", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", resp.Code, resp.Body.String())
	}

	// Second attempt is rejected like any other invalid submission.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/initialize", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}
