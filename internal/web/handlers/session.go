package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/facelab/annotator/internal/annotation"
	"github.com/facelab/annotator/internal/config"
	"github.com/facelab/annotator/internal/pairs"
	"github.com/facelab/annotator/internal/sheets"
	"github.com/facelab/annotator/internal/web/middleware"
)

// SessionHandler manages annotator sessions: starting a run, reporting
// progress, switching annotators, and restarting a finished run.
type SessionHandler struct {
	config         *config.Config
	sessionManager *middleware.SessionManager
	writer         sheets.Writer
	table          []pairs.Pair
}

func NewSessionHandler(cfg *config.Config, sm *middleware.SessionManager, writer sheets.Writer, table []pairs.Pair) *SessionHandler {
	return &SessionHandler{
		config:         cfg,
		sessionManager: sm,
		writer:         writer,
		table:          table,
	}
}

type startRequest struct {
	AnnotatorID string `json:"annotator_id"`
}

type sessionResponse struct {
	AnnotatorID string `json:"annotator_id"`
	Completed   int    `json:"completed"`
	Total       int    `json:"total"`
	Stage       string `json:"stage"`
}

// Start begins a session for an annotator. Progress already on the
// sheet is recovered so a returning annotator resumes where they left
// off; if the sheet cannot be read, the run starts from scratch rather
// than blocking the login.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	annotatorID := strings.TrimSpace(req.AnnotatorID)
	minLen := h.config.Validation.MinNameLength
	if len(annotatorID) < minLen {
		respondValidationError(w, fmt.Sprintf("name/ID must be at least %d characters (%d/%d)", minLen, len(annotatorID), minLen))
		return
	}

	completed, err := h.writer.Completed(r.Context(), annotatorID)
	if err != nil {
		log.Printf("could not recover progress for %q: %v", annotatorID, err)
		completed = nil
	}

	run := annotation.NewRun(annotatorID, completed)
	session := h.sessionManager.CreateSession(run)
	h.sessionManager.SetSessionCookie(w, session)

	respondJSON(w, http.StatusCreated, h.status(run))
}

// Status reports the session's annotator and progress.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondJSON(w, http.StatusOK, map[string]bool{"active": false})
		return
	}
	resp := struct {
		Active bool `json:"active"`
		sessionResponse
	}{true, h.status(session.Run)}
	respondJSON(w, http.StatusOK, resp)
}

// End drops the session so a different annotator can take over.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	if session := h.sessionManager.GetSessionFromRequest(r); session != nil {
		h.sessionManager.DeleteSession(session.ID)
	}
	h.sessionManager.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Restart clears the run's progress so every pair can be annotated
// again.
func (h *SessionHandler) Restart(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondError(w, http.StatusUnauthorized, "no active session")
		return
	}
	session.Run.Restart()
	respondJSON(w, http.StatusOK, h.status(session.Run))
}

func (h *SessionHandler) status(run *annotation.Run) sessionResponse {
	return sessionResponse{
		AnnotatorID: run.AnnotatorID(),
		Completed:   run.CompletedCount(h.table),
		Total:       len(h.table),
		Stage:       string(run.Stage()),
	}
}
