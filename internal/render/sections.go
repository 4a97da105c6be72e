package render

import (
	"encoding/json"
	"fmt"

	"analysis-backend/internal/analysis"
)

// Section is one titled block of a detail tab. Text always carries the exact
// unmodified field value so the copy-to-clipboard affordance never copies
// rendered markup.
type Section struct {
	ID       string `json:"id"`
	LabelKey string `json:"labelKey"`
	Kind     string `json:"kind"` // "text" | "markdown" | "code"
	Text     string `json:"text"`
	HTML     string `json:"html,omitempty"`
	Language string `json:"language,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Snippet is a highlighted code excerpt with a stable DOM identity.
type Snippet struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	HTML string `json:"html"`
}

// Card is the rendered form of one modification-analysis entry. Fields the
// entry lacks stay nil/empty and render nothing.
type Card struct {
	Index           int      `json:"index"`
	Original        *Snippet `json:"original,omitempty"`
	Modified        *Snippet `json:"modified,omitempty"`
	ExplanationHTML string   `json:"explanationHtml,omitempty"`
	ExplanationText string   `json:"explanationText,omitempty"`
}

// SnippetID builds the DOM-addressable identity for a snippet: unique per
// request, entry position and role, stable across re-renders.
func SnippetID(requestID int64, index int, role string) string {
	return fmt.Sprintf("req-%d-mod-%d-%s", requestID, index, role)
}

// ProblemSections maps an organized problem to display sections, skipping
// every field that is absent or empty.
func ProblemSections(p *analysis.OrganizedProblem) []Section {
	if p == nil {
		return nil
	}
	var sections []Section
	add := func(id, label, kind, value, lang string) {
		if value == "" {
			return
		}
		s := Section{ID: id, LabelKey: label, Kind: kind, Text: value, Language: lang}
		switch kind {
		case "markdown":
			htmlOut, err := Markdown(value)
			if err != nil {
				s.Error = err.Error()
			} else {
				s.HTML = htmlOut
			}
		case "code":
			htmlOut, err := Highlight(value, lang)
			if err != nil {
				s.Error = err.Error()
			} else {
				s.HTML = htmlOut
			}
		}
		sections = append(sections, s)
	}

	add("problem-title", "problem.title", "text", p.Title, "")
	add("problem-description", "problem.description", "markdown", p.Description, "")
	add("problem-input-format", "problem.inputFormat", "markdown", p.InputFormat, "")
	add("problem-output-format", "problem.outputFormat", "markdown", p.OutputFormat, "")
	add("problem-input-sample", "problem.inputSample", "code", p.InputSample, "text")
	add("problem-output-sample", "problem.outputSample", "code", p.OutputSample, "text")
	add("problem-notes", "problem.notes", "markdown", p.Notes, "")
	add("problem-time-limit", "problem.timeLimit", "text", p.TimeLimit, "")
	add("problem-memory-limit", "problem.memoryLimit", "text", p.MemoryLimit, "")
	return sections
}

// CodeSection renders a single code field as a section, or nil when empty.
func CodeSection(id, label, code, lang string) *Section {
	if code == "" {
		return nil
	}
	s := &Section{ID: id, LabelKey: label, Kind: "code", Text: code, Language: lang}
	htmlOut, err := Highlight(code, lang)
	if err != nil {
		s.Error = err.Error()
		return s
	}
	s.HTML = htmlOut
	return s
}

// AnalysisCards renders the modification-analysis entries in payload order.
// Entries with no populated sub-field produce no card.
func AnalysisCards(entries []analysis.ModificationEntry, requestID int64) []Card {
	var cards []Card
	for i, entry := range entries {
		card := Card{Index: i}
		if entry.OriginalSnippet != "" {
			card.Original = renderSnippet(SnippetID(requestID, i, "original"), entry.OriginalSnippet)
		}
		if entry.ModifiedSnippet != "" {
			card.Modified = renderSnippet(SnippetID(requestID, i, "modified"), entry.ModifiedSnippet)
		}
		if entry.Explanation != "" {
			card.ExplanationText = entry.Explanation
			if htmlOut, err := Markdown(entry.Explanation); err == nil {
				card.ExplanationHTML = htmlOut
			}
		}
		if card.Original == nil && card.Modified == nil && card.ExplanationText == "" {
			continue
		}
		cards = append(cards, card)
	}
	return cards
}

func renderSnippet(id, code string) *Snippet {
	s := &Snippet{ID: id, Text: code}
	if htmlOut, err := Highlight(code, ""); err == nil {
		s.HTML = htmlOut
	}
	return s
}

// RawJSON pretty-prints the raw payload for the raw-response tab. Invalid
// JSON is returned verbatim so the tab still shows what the backend stored.
func RawJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var buf interface{}
	if err := json.Unmarshal(raw, &buf); err != nil {
		return string(raw)
	}
	pretty, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(pretty)
}
