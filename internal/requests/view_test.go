package requests

import (
	"encoding/json"
	"strings"
	"testing"

	"analysis-backend/internal/diffview"
	"analysis-backend/internal/status"
)

func TestBuildViewBeforeCompletion(t *testing.T) {
	for _, st := range []string{StatusQueued, StatusProcessing} {
		view := BuildView(Request{ID: 1, Status: st}, diffview.Options{})
		if view.State != "not_applicable" {
			t.Fatalf("status %s: state = %q", st, view.State)
		}
		if view.Projection != status.Project(st, false) {
			t.Fatalf("status %s: projection = %+v", st, view.Projection)
		}
		if view.Problem != nil || view.Cards != nil || view.Diff.HTML != "" {
			t.Fatalf("status %s: view should carry no content", st)
		}
	}
}

func TestBuildViewCompletedButUnsuccessful(t *testing.T) {
	msg := "model returned an error"
	view := BuildView(Request{
		ID:           2,
		Status:       StatusCompleted,
		IsSuccess:    false,
		ErrorMessage: &msg,
	}, diffview.Options{})

	if view.State != "failed" {
		t.Fatalf("state = %q", view.State)
	}
	if view.FailureReason != msg {
		t.Fatalf("reason = %q", view.FailureReason)
	}
}

func TestBuildViewParsed(t *testing.T) {
	raw := json.RawMessage(`{
		"organized_problem": {"title": "Two Sum", "description": "Find **two** numbers."},
		"original_code": "def f():\n    return 0\n",
		"modified_code": "def f():\n    return 1\n",
		"modification_analysis": [
			{"original_snippet": "return 0", "modified_snippet": "return 1", "explanation": "Fix the result."}
		]
	}`)
	req := Request{ID: 3, Status: StatusCompleted, IsSuccess: true, GPTRawResponse: raw}

	view := BuildView(req, diffview.Options{})
	if view.State != "parsed" {
		t.Fatalf("state = %q (reason %q)", view.State, view.FailureReason)
	}
	if len(view.Problem) == 0 {
		t.Fatal("expected problem sections")
	}
	if view.Source == nil || view.Source.Text != "def f():\n    return 0\n" {
		t.Fatalf("source = %+v", view.Source)
	}
	if view.ModifiedCode == nil || view.ModifiedCode.Text != "def f():\n    return 1\n" {
		t.Fatalf("modified = %+v", view.ModifiedCode)
	}
	if view.Diff.Empty || view.Diff.HTML == "" {
		t.Fatalf("diff = %+v", view.Diff)
	}
	if len(view.Cards) != 1 {
		t.Fatalf("cards = %d, want 1", len(view.Cards))
	}
	card := view.Cards[0]
	if card.Original == nil || card.Original.ID != "req-3-mod-0-original" {
		t.Fatalf("original snippet = %+v", card.Original)
	}
	if card.Modified == nil || card.Modified.ID != "req-3-mod-0-modified" {
		t.Fatalf("modified snippet = %+v", card.Modified)
	}
	if view.RawResponse == "" {
		t.Fatal("expected raw response text")
	}
}

func TestBuildViewDiffEmptyWhenCodeUnchanged(t *testing.T) {
	raw := json.RawMessage(`{"original_code": "a\nb\n", "modified_code": "a\nb\n"}`)
	view := BuildView(Request{ID: 4, Status: StatusCompleted, IsSuccess: true, GPTRawResponse: raw}, diffview.Options{})

	if view.State != "parsed" {
		t.Fatalf("state = %q", view.State)
	}
	if !view.Diff.Empty || view.Diff.HTML != "" {
		t.Fatalf("diff = %+v, want empty", view.Diff)
	}
}

func TestBuildViewSourceFallsBackToPrompt(t *testing.T) {
	raw := json.RawMessage(`{"modified_code": "print(1)\n"}`)
	req := Request{
		ID:             5,
		UserPrompt:     "print(0)\n",
		Status:         StatusCompleted,
		IsSuccess:      true,
		GPTRawResponse: raw,
	}

	view := BuildView(req, diffview.Options{})
	if view.Source == nil || view.Source.Text != req.UserPrompt {
		t.Fatalf("source = %+v, want prompt fallback", view.Source)
	}
	if view.Diff.Empty || view.Diff.HTML == "" {
		t.Fatalf("diff = %+v", view.Diff)
	}
}

func TestBuildViewMalformedPayloadStaysScoped(t *testing.T) {
	raw := json.RawMessage(`"{not json at all`)
	view := BuildView(Request{ID: 6, Status: StatusCompleted, IsSuccess: true, GPTRawResponse: raw}, diffview.Options{})

	if view.State != "failed" {
		t.Fatalf("state = %q", view.State)
	}
	if !strings.Contains(view.FailureReason, "decode") && !strings.Contains(view.FailureReason, "JSON object") {
		t.Fatalf("reason = %q", view.FailureReason)
	}
	// The raw payload stays visible even when parsing fails.
	if view.RawResponse == "" {
		t.Fatal("expected raw response passthrough")
	}
}
