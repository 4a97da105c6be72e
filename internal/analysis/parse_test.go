package analysis

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseStringAndObjectEquivalence(t *testing.T) {
	object := json.RawMessage(`{"modified_code":"int main(){}","original_code":"int main(){return 0;}"}`)
	encoded, err := json.Marshal(string(object))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	fromObject := Parse("Completed", true, object, "")
	fromString := Parse("Completed", true, encoded, "")

	if !fromObject.Parsed() || !fromString.Parsed() {
		t.Fatalf("expected both parses to succeed, got %v and %v", fromObject.State, fromString.State)
	}
	if diff := cmp.Diff(fromObject.Content, fromString.Content); diff != "" {
		t.Errorf("string/object outcomes differ (-object +string):\n%s", diff)
	}
}

func TestParseMalformedStringNeverPanics(t *testing.T) {
	inputs := []string{
		`"{"`,
		`"not json at all"`,
		`"{\"modified_code\": }"`,
		`{`,
		`}`,
		`{"modified_code": 42}`,
	}
	for _, in := range inputs {
		out := Parse("Completed", true, json.RawMessage(in), "")
		if !out.Failed() {
			t.Errorf("Parse(%q) state = %v, want failed", in, out.State)
		}
		if out.Reason == "" {
			t.Errorf("Parse(%q) produced failure with empty reason", in)
		}
	}
}

func TestParseNonObjectPayload(t *testing.T) {
	for _, in := range []string{`42`, `[1,2,3]`, `true`, `"\"scalar\""`} {
		out := Parse("Completed", true, json.RawMessage(in), "")
		if !out.Failed() {
			t.Fatalf("Parse(%q) state = %v, want failed", in, out.State)
		}
		if !strings.Contains(out.Reason, "not a JSON object") {
			t.Errorf("Parse(%q) reason = %q, want invalid-object reason", in, out.Reason)
		}
	}
}

func TestParseEmptyResponse(t *testing.T) {
	for _, in := range []json.RawMessage{nil, json.RawMessage(``), json.RawMessage(`null`), json.RawMessage(`""`)} {
		out := Parse("Completed", true, in, "")
		if !out.Failed() {
			t.Fatalf("Parse(%q) state = %v, want failed", in, out.State)
		}
		if !strings.Contains(out.Reason, "empty") {
			t.Errorf("Parse(%q) reason = %q, want empty-response reason", in, out.Reason)
		}
	}
}

func TestParseNotApplicableWhenNotCompleted(t *testing.T) {
	stale := json.RawMessage(`{"modified_code":"x"}`)
	for _, status := range []string{"Queued", "Processing", "Failed", "whatever"} {
		out := Parse(status, true, stale, "")
		if out.State != StateNotApplicable {
			t.Errorf("Parse(status=%q) state = %v, want not-applicable", status, out.State)
		}
		if out.Content != nil || out.Reason != "" {
			t.Errorf("Parse(status=%q) leaked content/reason", status)
		}
	}
}

func TestParseCompletedButUnsuccessful(t *testing.T) {
	out := Parse("Completed", false, json.RawMessage(`{"modified_code":"x"}`), "model refused")
	if !out.Failed() {
		t.Fatalf("state = %v, want failed", out.State)
	}
	if out.Reason != "model refused" {
		t.Errorf("reason = %q, want stored error message", out.Reason)
	}

	out = Parse("Completed", false, nil, "")
	if !out.Failed() || out.Reason == "" {
		t.Error("expected generic completed-but-failed reason when no error message stored")
	}
}

func TestParseIdempotent(t *testing.T) {
	raw := json.RawMessage(`{
		"organized_problem": {"title": "Two Sum", "description": "Find indices."},
		"modified_code": "return map;",
		"modification_analysis": [
			{"original_snippet": "a", "modified_snippet": "b", "explanation": "swap"},
			{"explanation": "second"}
		]
	}`)
	first := Parse("Completed", true, raw, "")
	second := Parse("Completed", true, raw, "")
	if !first.Parsed() || !second.Parsed() {
		t.Fatalf("expected parsed outcomes, got %v and %v", first.State, second.State)
	}
	if diff := cmp.Diff(first.Content, second.Content); diff != "" {
		t.Errorf("repeated parse differs:\n%s", diff)
	}
	if got := len(first.Content.ModificationAnalysis); got != 2 {
		t.Fatalf("expected 2 modification entries, got %d", got)
	}
	if first.Content.ModificationAnalysis[0].Explanation != "swap" {
		t.Error("modification entries out of order")
	}
}

func TestParseDropsEmptyOrganizedProblem(t *testing.T) {
	out := Parse("Completed", true, json.RawMessage(`{"organized_problem": {}, "modified_code": "x"}`), "")
	if !out.Parsed() {
		t.Fatalf("state = %v, want parsed", out.State)
	}
	if out.Content.OrganizedProblem != nil {
		t.Error("empty organized_problem should normalize to nil")
	}
}

func TestOriginalTextFallback(t *testing.T) {
	c := &ParsedContent{OriginalCode: "code"}
	if got := c.OriginalText("prompt"); got != "code" {
		t.Errorf("OriginalText = %q, want parsed original_code", got)
	}
	c = &ParsedContent{}
	if got := c.OriginalText("prompt"); got != "prompt" {
		t.Errorf("OriginalText = %q, want user prompt fallback", got)
	}
	var nilContent *ParsedContent
	if got := nilContent.OriginalText(""); got != "" {
		t.Errorf("OriginalText on nil = %q, want empty", got)
	}
}
