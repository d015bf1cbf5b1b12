package api

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/grant-review/internal/analysis"
	"github.com/sells-group/grant-review/internal/model"
	"github.com/sells-group/grant-review/internal/perspective"
	"github.com/sells-group/grant-review/internal/vote"
)

// AnalyzeTextRequest asks for a multi-perspective analysis. Exactly one of
// Text or Submission is expected; Perspectives entries are either a
// predefined name or a {name, prompt} object.
type AnalyzeTextRequest struct {
	Text         string                      `json:"text"`
	Submission   *model.StructuredSubmission `json:"submission,omitempty"`
	Perspectives []model.PerspectiveSpec     `json:"perspectives"`
	VoteOptions  []string                    `json:"vote_options,omitempty"`
	SubmissionID string                      `json:"submission_id,omitempty"`
}

// AnalyzeResponse is the analysis, inlined, plus an optional vote
// recommendation.
type AnalyzeResponse struct {
	*model.MultiPerspectiveResult
	Vote *model.VoteRecommendation `json:"vote,omitempty"`
}

// GeneratePerspectivesRequest asks for program-specific perspectives.
type GeneratePerspectivesRequest struct {
	Program  model.ProgramContext `json:"program"`
	Fields   []model.FormField    `json:"fields"`
	Criteria []model.Criterion    `json:"criteria"`
	Count    int                  `json:"count"`
}

type perspectiveInfo struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

func (s *Server) handleListPerspectives(w http.ResponseWriter, _ *http.Request) {
	names := perspective.Names()
	out := make([]perspectiveInfo, 0, len(names))
	for _, n := range names {
		p, _ := perspective.Predefined(n)
		out = append(out, perspectiveInfo{Name: p.Name, Prompt: p.Prompt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"perspectives": out})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var raw any
	switch {
	case req.Submission != nil:
		raw = *req.Submission
	case strings.TrimSpace(req.Text) != "":
		raw = req.Text
	default:
		writeError(w, http.StatusBadRequest, "text or submission is required")
		return
	}

	perspectives := s.deps.DefaultPerspectives
	if len(req.Perspectives) > 0 {
		perspectives = perspective.ResolveSpecs(req.Perspectives)
	}
	if len(perspectives) == 0 {
		writeError(w, http.StatusBadRequest, "no valid perspectives")
		return
	}

	analyzer, err := analysis.New(s.deps.AnalysisGen, s.deps.Parser, perspectives,
		analysis.WithConcurrency(s.deps.AnalysisConcurrency),
		analysis.WithSynthesisGenerator(s.deps.SynthesisGen),
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result := analyzer.Analyze(r.Context(), raw)
	resp := AnalyzeResponse{MultiPerspectiveResult: result}

	if len(req.VoteOptions) > 0 || req.SubmissionID != "" {
		options := req.VoteOptions
		if len(options) == 0 {
			options = s.deps.VoteOptions
		}
		rec := vote.NewSynthesizer(s.deps.VoteGen).Synthesize(r.Context(), result, options, req.SubmissionID)
		resp.Vote = &rec
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGeneratePerspectives(w http.ResponseWriter, r *http.Request) {
	var req GeneratePerspectivesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Program.Name) == "" {
		writeError(w, http.StatusBadRequest, "program.name is required")
		return
	}

	count := req.Count
	if count <= 0 {
		count = s.deps.GeneratorCount
	}
	generated := perspective.NewGenerator(s.deps.PerspectiveGen, count).
		Generate(r.Context(), req.Program, req.Fields, req.Criteria)

	zap.L().Debug("api: perspectives generated", zap.Int("count", len(generated)))
	writeJSON(w, http.StatusOK, map[string]any{"perspectives": generated})
}
