package requests

import (
	"analysis-backend/internal/analysis"
	"analysis-backend/internal/diffview"
	"analysis-backend/internal/render"
	"analysis-backend/internal/status"
)

// DiffTab carries the rendered comparison view. Failures stay scoped to this
// tab: a diff error never hides the rest of the view.
type DiffTab struct {
	HTML  string `json:"html,omitempty"`
	Empty bool   `json:"empty"`
	Error string `json:"error,omitempty"`
}

// View is the server-built detail view model. Everything in it is derived
// from the stored request and recomputed on every fetch.
type View struct {
	ID            int64             `json:"id"`
	Status        string            `json:"status"`
	Projection    status.Projection `json:"projection"`
	State         string            `json:"state"` // "not_applicable" | "parsed" | "failed"
	FailureReason string            `json:"failureReason,omitempty"`
	Problem       []render.Section  `json:"problem,omitempty"`
	Source        *render.Section   `json:"source,omitempty"`
	ModifiedCode  *render.Section   `json:"modifiedCode,omitempty"`
	Diff          DiffTab           `json:"diff"`
	Cards         []render.Card     `json:"cards,omitempty"`
	RawResponse   string            `json:"rawResponse,omitempty"`
}

// BuildView assembles the full detail view for a request.
func BuildView(req Request, opts diffview.Options) View {
	view := View{
		ID:         req.ID,
		Status:     req.Status,
		Projection: status.Project(req.Status, req.IsSuccess),
	}

	errMsg := ""
	if req.ErrorMessage != nil {
		errMsg = *req.ErrorMessage
	}
	outcome := analysis.Parse(req.Status, req.IsSuccess, req.GPTRawResponse, errMsg)
	view.RawResponse = render.RawJSON(req.GPTRawResponse)

	switch outcome.State {
	case analysis.StateNotApplicable:
		view.State = "not_applicable"
		return view
	case analysis.StateFailed:
		view.State = "failed"
		view.FailureReason = outcome.Reason
		return view
	}

	view.State = "parsed"
	content := outcome.Content

	view.Problem = render.ProblemSections(content.OrganizedProblem)

	original := content.OriginalText(req.UserPrompt)
	if original != "" {
		view.Source = render.CodeSection("source-code", "tab.sourceCode", original, "")
	}
	if content.ModifiedCode != "" {
		view.ModifiedCode = render.CodeSection("modified-code", "tab.modifiedCode", content.ModifiedCode, "")
	}

	view.Diff = buildDiffTab(original, content.ModifiedCode, opts)
	view.Cards = render.AnalysisCards(content.ModificationAnalysis, req.ID)
	return view
}

func buildDiffTab(original, modified string, opts diffview.Options) DiffTab {
	if modified == "" {
		return DiffTab{Empty: true}
	}
	patch, err := diffview.Generate(original, modified, opts)
	if err != nil {
		return DiffTab{Error: "failed to compute the comparison view"}
	}
	if patch == nil {
		return DiffTab{Empty: true}
	}
	return DiffTab{HTML: diffview.RenderHTML(patch)}
}
