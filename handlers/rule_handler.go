package handlers

import (
	"net/http"

	"github.com/tilewise/scrabble-director/middleware"
	"github.com/tilewise/scrabble-director/models"
	"github.com/tilewise/scrabble-director/services"
)

type RuleHandler struct {
	ruleService services.RuleService
}

func NewRuleHandler(rs services.RuleService) *RuleHandler {
	return &RuleHandler{ruleService: rs}
}

// ListHandler handles GET /tournaments/{tournamentID}/pairing-rules
func (h *RuleHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rules, err := h.ruleService.ListRules(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rules": rules}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ReplaceHandler handles PUT /tournaments/{tournamentID}/pairing-rules. The
// submitted set replaces the existing one as a whole.
func (h *RuleHandler) ReplaceHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Rules []*models.PairingRule `json:"rules"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rules, err := h.ruleService.ReplaceRules(r.Context(), currentUserID, tournamentID, input.Rules)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rules": rules}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
