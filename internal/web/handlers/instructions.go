package handlers

import (
	"net/http"

	"github.com/facelab/annotator/internal/config"
)

// InstructionsHandler exposes the annotator-facing instructions document
// together with the validation minimums the frontend enforces inline.
type InstructionsHandler struct {
	config *config.Config
}

func NewInstructionsHandler(cfg *config.Config) *InstructionsHandler {
	return &InstructionsHandler{config: cfg}
}

type instructionsResponse struct {
	config.InstructionsConfig
	MinNameLength        int `json:"min_name_length"`
	MinExplanationLength int `json:"min_explanation_length"`
}

func (h *InstructionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, instructionsResponse{
		InstructionsConfig:   h.config.Instructions,
		MinNameLength:        h.config.Validation.MinNameLength,
		MinExplanationLength: h.config.Validation.MinExplanationLength,
	})
}
