package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/grant-review/internal/evaluation"
	"github.com/sells-group/grant-review/internal/store"
)

// EvaluationRequest identifies one participant's submission.
type EvaluationRequest struct {
	OrgID  string `json:"org_id"`
	FormID string `json:"form_id"`
	UserID string `json:"user_id"`
	TeamID string `json:"team_id,omitempty"`
}

// BatchEvaluationRequest identifies several participants of one form.
type BatchEvaluationRequest struct {
	OrgID   string   `json:"org_id"`
	FormID  string   `json:"form_id"`
	UserIDs []string `json:"user_ids"`
	TeamID  string   `json:"team_id,omitempty"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if s.deps.Engine == nil {
		writeError(w, http.StatusServiceUnavailable, "evaluation engine not configured")
		return
	}
	var req EvaluationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	score, err := s.deps.Engine.EvaluateSubmission(r.Context(), req.OrgID, req.FormID, req.UserID, req.TeamID)
	switch {
	case eris.Is(err, evaluation.ErrMissingContext):
		writeError(w, http.StatusBadRequest, "org_id, form_id and user_id are required")
		return
	case err != nil:
		zap.L().Error("api: evaluation failed",
			zap.String("form_id", req.FormID),
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (s *Server) handleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Engine == nil {
		writeError(w, http.StatusServiceUnavailable, "evaluation engine not configured")
		return
	}
	var req BatchEvaluationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.OrgID == "" || req.FormID == "" || len(req.UserIDs) == 0 {
		writeError(w, http.StatusBadRequest, "org_id, form_id and user_ids are required")
		return
	}

	scores := s.deps.Engine.EvaluateBatch(r.Context(), req.OrgID, req.FormID, req.UserIDs, req.TeamID)
	writeJSON(w, http.StatusOK, scores)
}

func (s *Server) handleLatestEvaluation(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}
	formID := chi.URLParam(r, "formID")
	userID := chi.URLParam(r, "userID")

	score, err := s.deps.Store.GetLatestEvaluation(r.Context(), formID, userID)
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no evaluation found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, score)
}
