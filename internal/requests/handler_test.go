package requests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"analysis-backend/internal/queue"
)

func setupRequestsRouter(t *testing.T) (*gin.Engine, *MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := NewMemoryRepo()
	svc := NewService(repo, newFakeStore(), queue.NewMemory(8), nil)
	handler := NewHandler(svc)

	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)
	handler.RegisterAdminRoutes(api)
	return router, repo
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestCreateRequestEndpoint(t *testing.T) {
	router, repo := setupRequestsRouter(t)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/requests", Submission{UserPrompt: "analyze this"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", resp.Code, resp.Body.String())
	}

	var created Summary
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Status != StatusQueued {
		t.Fatalf("status = %q, want %q", created.Status, StatusQueued)
	}

	stored, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if stored.UserPrompt != "analyze this" {
		t.Fatalf("prompt = %q", stored.UserPrompt)
	}
}

func TestCreateRequestRejectsEmptyBody(t *testing.T) {
	router, _ := setupRequestsRouter(t)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/requests", Submission{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
	var errResp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Error.Code != "validation_error" {
		t.Fatalf("code = %q", errResp.Error.Code)
	}
}

func TestGetRequestNotFound(t *testing.T) {
	router, _ := setupRequestsRouter(t)

	resp := doJSON(t, router, http.MethodGet, "/api/v1/requests/999", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}

func TestGetRequestViewEndpoint(t *testing.T) {
	router, repo := setupRequestsRouter(t)

	raw := json.RawMessage(`{"original_code":"a\n","modified_code":"b\n"}`)
	req, err := repo.Create(context.Background(), Request{
		UserPrompt:     "p",
		Status:         StatusCompleted,
		IsSuccess:      true,
		GPTRawResponse: raw,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/requests/%d/view?ignore_whitespace=true", req.ID), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.Code, resp.Body.String())
	}

	var view View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.State != "parsed" {
		t.Fatalf("state = %q", view.State)
	}
	if view.Diff.HTML == "" {
		t.Fatal("expected diff html")
	}
}

func TestRegenerateWhileProcessingConflicts(t *testing.T) {
	router, repo := setupRequestsRouter(t)

	req, err := repo.Create(context.Background(), Request{UserPrompt: "p", Status: StatusProcessing})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/requests/%d/regenerate", req.ID), nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.Code)
	}
}

func TestDeleteRequestEndpoint(t *testing.T) {
	router, repo := setupRequestsRouter(t)

	req, err := repo.Create(context.Background(), Request{UserPrompt: "p", Status: StatusFailed})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/requests/%d", req.ID), nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.Code)
	}
	if _, err := repo.GetByID(context.Background(), req.ID); err == nil {
		t.Fatal("request still present after delete")
	}
}

func TestListRequestsRejectsUnknownStatus(t *testing.T) {
	router, _ := setupRequestsRouter(t)

	resp := doJSON(t, router, http.MethodGet, "/api/v1/requests?status=Bogus", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestBatchRequestsEndpoint(t *testing.T) {
	router, repo := setupRequestsRouter(t)
	ctx := context.Background()

	failed, err := repo.Create(ctx, Request{UserPrompt: "p", Status: StatusFailed})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp := doJSON(t, router, http.MethodPost, "/api/v1/requests/batch", batchPayload{
		Action:     BatchActionRetry,
		RequestIDs: []int64{failed.ID, 999},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.Code, resp.Body.String())
	}

	var out struct {
		Results BatchResult `json:"results"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Results.Success) != 1 || out.Results.Success[0] != failed.ID {
		t.Fatalf("success = %v, want [%d]", out.Results.Success, failed.ID)
	}
	if len(out.Results.Failed) != 1 || out.Results.Failed[0].ID != 999 {
		t.Fatalf("failed = %v, want one entry for 999", out.Results.Failed)
	}

	resp = doJSON(t, router, http.MethodPost, "/api/v1/requests/batch", batchPayload{
		Action:     "purge",
		RequestIDs: []int64{failed.ID},
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}

	resp = doJSON(t, router, http.MethodPost, "/api/v1/requests/batch", batchPayload{Action: BatchActionDelete})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}
