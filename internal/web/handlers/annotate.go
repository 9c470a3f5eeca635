package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/facelab/annotator/internal/annotation"
	"github.com/facelab/annotator/internal/config"
	"github.com/facelab/annotator/internal/images"
	"github.com/facelab/annotator/internal/pairs"
	"github.com/facelab/annotator/internal/sheets"
	"github.com/facelab/annotator/internal/web/middleware"
)

// AnnotateHandler drives the two-stage annotation flow: serving the
// current pair and accepting the initial and followup submissions.
type AnnotateHandler struct {
	config         *config.Config
	sessionManager *middleware.SessionManager
	writer         sheets.Writer
	resolver       *images.Resolver
	table          []pairs.Pair
}

func NewAnnotateHandler(cfg *config.Config, sm *middleware.SessionManager, writer sheets.Writer, resolver *images.Resolver, table []pairs.Pair) *AnnotateHandler {
	return &AnnotateHandler{
		config:         cfg,
		sessionManager: sm,
		writer:         writer,
		resolver:       resolver,
		table:          table,
	}
}

type currentPairResponse struct {
	Done      bool     `json:"done"`
	Index     int      `json:"index,omitempty"`
	ImageA    string   `json:"image_a,omitempty"`
	ImageB    string   `json:"image_b,omitempty"`
	Stage     string   `json:"stage,omitempty"`
	Completed int      `json:"completed"`
	Total     int      `json:"total"`
	Warnings  []string `json:"warnings,omitempty"`

	// Set only in the followup stage, where the correct answer has
	// been revealed.
	GroundTruth  string `json:"ground_truth,omitempty"`
	YourDecision string `json:"your_decision,omitempty"`
}

// Current returns the pair the annotator should see next, with resolved
// image references. A missing local image is reported as a warning; the
// pair is still shown and the flow continues.
func (h *AnnotateHandler) Current(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondError(w, http.StatusUnauthorized, "no active session")
		return
	}
	run := session.Run

	resp := currentPairResponse{
		Completed: run.CompletedCount(h.table),
		Total:     len(h.table),
	}

	pair, ok := run.Current(h.table)
	if !ok {
		resp.Done = true
		respondJSON(w, http.StatusOK, resp)
		return
	}

	resp.Index = pair.Index
	resp.Stage = string(run.Stage())
	resp.ImageA = h.resolveRef(pair.ImageA, &resp.Warnings)
	resp.ImageB = h.resolveRef(pair.ImageB, &resp.Warnings)

	if truth, decision, ok := run.GroundTruthHint(); ok {
		resp.GroundTruth = truth
		resp.YourDecision = decision
	}

	respondJSON(w, http.StatusOK, resp)
}

// resolveRef resolves an image identifier, collecting a warning instead
// of failing when the local file is missing.
func (h *AnnotateHandler) resolveRef(identifier string, warnings *[]string) string {
	ref, err := h.resolver.Resolve(identifier)
	if err == nil {
		return ref
	}
	if errors.Is(err, images.ErrNotFound) {
		*warnings = append(*warnings, fmt.Sprintf("image %q not found", identifier))
		return "/images/" + identifier
	}
	*warnings = append(*warnings, err.Error())
	return ""
}

type initialRequest struct {
	Decision    string `json:"decision"`
	Explanation string `json:"explanation"`
}

type initialResponse struct {
	Correct bool   `json:"correct"`
	Saved   bool   `json:"saved"`
	Stage   string `json:"stage"`

	// Present when the decision was wrong: the review step shows the
	// correct answer and asks for a reflection.
	GroundTruth string `json:"ground_truth,omitempty"`
}

// SubmitInitial accepts the decision plus initial explanation for the
// current pair. A correct decision is appended to the sheet right away;
// a wrong one reveals the ground truth and waits for the followup.
func (h *AnnotateHandler) SubmitInitial(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondError(w, http.StatusUnauthorized, "no active session")
		return
	}
	run := session.Run

	var req initialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if req.Decision == "" {
		respondValidationError(w, "select whether these are the same person or different people before submitting")
		return
	}
	if msg, ok := h.checkExplanation(req.Explanation); !ok {
		respondValidationError(w, msg)
		return
	}

	pair, ok := run.Current(h.table)
	if !ok {
		respondError(w, http.StatusConflict, "all pairs are already annotated")
		return
	}

	rec, err := run.SubmitInitial(pair, req.Decision, strings.TrimSpace(req.Explanation))
	if err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	if rec == nil {
		// Wrong answer: ground truth revealed, followup outstanding.
		respondJSON(w, http.StatusOK, initialResponse{
			Correct:     false,
			Saved:       false,
			Stage:       string(annotation.StageFollowup),
			GroundTruth: pair.GroundTruth,
		})
		return
	}

	if !h.save(w, r, run, rec) {
		return
	}
	respondJSON(w, http.StatusOK, initialResponse{
		Correct: true,
		Saved:   true,
		Stage:   string(annotation.StageInitial),
	})
}

type followupRequest struct {
	Explanation string `json:"explanation"`
}

// SubmitFollowup accepts the reflection for an incorrectly answered
// pair, completing and appending its record.
func (h *AnnotateHandler) SubmitFollowup(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondError(w, http.StatusUnauthorized, "no active session")
		return
	}
	run := session.Run

	var req followupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if msg, ok := h.checkExplanation(req.Explanation); !ok {
		respondValidationError(w, msg)
		return
	}

	rec, err := run.SubmitFollowup(strings.TrimSpace(req.Explanation))
	if err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	if !h.save(w, r, run, rec) {
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"saved": true})
}

// save appends the record and advances the run only on success. On
// failure the run stays exactly where it was: the annotator sees the
// error and resubmits, so nothing is silently lost.
func (h *AnnotateHandler) save(w http.ResponseWriter, r *http.Request, run *annotation.Run, rec *annotation.Record) bool {
	if err := h.writer.Append(r.Context(), *rec); err != nil {
		respondError(w, http.StatusBadGateway, "could not save annotation, please submit again: "+err.Error())
		return false
	}
	run.Complete(rec.PairIndex)
	return true
}

func (h *AnnotateHandler) checkExplanation(explanation string) (string, bool) {
	minLen := h.config.Validation.MinExplanationLength
	got := len(strings.TrimSpace(explanation))
	if got < minLen {
		return fmt.Sprintf("explanation must be at least %d characters (%d/%d)", minLen, got, minLen), false
	}
	return "", true
}
