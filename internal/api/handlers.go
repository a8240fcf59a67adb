package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"reach/workflowd/internal/domain"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Goal          string `json:"goal"`
		Mode          string `json:"mode"`
		SafetyProfile string `json:"safety_profile"`
	}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
			return
		}
	}
	session, err := s.engine.CreateSession(r.Context(), body.Goal, domain.SessionMode(body.Mode), domain.SafetyProfile(body.SafetyProfile))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.engine.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type stepInputBody struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Tool       string         `json:"tool"`
	Inputs     map[string]any `json:"inputs"`
	TimeoutSec int            `json:"timeout_sec"`
	Risk       string         `json:"risk"`
}

func (s *Server) handleImportPlan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Version     int             `json:"version"`
		Title       string          `json:"title"`
		SessionGoal *string         `json:"session_goal"`
		Steps       []stepInputBody `json:"steps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	steps := make([]domain.StepInput, 0, len(body.Steps))
	for _, st := range body.Steps {
		steps = append(steps, domain.StepInput{
			ID: st.ID, Title: st.Title, Tool: st.Tool, Inputs: st.Inputs,
			TimeoutSec: st.TimeoutSec, Risk: domain.Risk(st.Risk),
		})
	}
	plan, err := s.engine.ImportPlan(r.Context(), r.PathValue("id"), body.Version, body.Title, body.SessionGoal, steps)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(r.PathValue("v"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "version must be an integer")
		return
	}
	plan, err := s.engine.GetPlan(r.Context(), r.PathValue("id"), version)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleApprovePlan(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(r.PathValue("v"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "version must be an integer")
		return
	}
	var body struct {
		ApprovedBy string `json:"approved_by"`
		Source     string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	sessionID := r.PathValue("id")
	if err := s.engine.ApprovePlan(r.Context(), sessionID, version, body.ApprovedBy, body.Source); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "version": version, "approved": true})
}

func (s *Server) handleApproveStep(w http.ResponseWriter, r *http.Request) {
	stepKey := r.PathValue("sid")
	var body struct {
		ApprovedBy string `json:"approved_by"`
		Source     string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	sessionID := r.PathValue("id")
	if err := s.engine.ApproveStep(r.Context(), sessionID, stepKey, body.ApprovedBy, body.Source); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "step_id": stepKey, "approved": true})
}

func (s *Server) handleExecuteStep(w http.ResponseWriter, r *http.Request) {
	stepKey := r.PathValue("sid")
	var body struct {
		ConfirmHighRisk bool `json:"confirm_high_risk"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	result, err := s.engine.ExecuteStep(r.Context(), r.PathValue("id"), stepKey, body.ConfirmHighRisk)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if _, err := s.engine.StopSession(r.Context(), sessionID); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "status": "cancelled"})
}

func (s *Server) handleSearchEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	events, err := s.engine.SearchEvents(r.Context(), r.PathValue("id"), query)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": events})
}

func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	artifacts, err := s.engine.ListArtifacts(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": artifacts})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	toolList, err := s.engine.ListTools(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": toolList})
}

func (s *Server) handleToolPermissions(w http.ResponseWriter, r *http.Request) {
	tool, err := s.engine.GetToolPermissions(r.Context(), r.PathValue("name"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tool)
}
