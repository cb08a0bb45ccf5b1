package handlers

import (
	"net/http"

	"github.com/tilewise/scrabble-director/middleware"
	"github.com/tilewise/scrabble-director/services"
)

type PairingHandler struct {
	pairingService services.PairingService
}

func NewPairingHandler(ps services.PairingService) *PairingHandler {
	return &PairingHandler{pairingService: ps}
}

// PairRoundHandler handles POST /tournaments/{tournamentID}/rounds/{round}/pair.
// This is the manual override: the round is paired with Swiss off live
// standings regardless of the scheduled rule.
func (h *PairingHandler) PairRoundHandler(w http.ResponseWriter, r *http.Request) {
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
	round, err := getIDFromURL(r, "round")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.pairingService.PairRoundManually(r.Context(), currentUserID, tournamentID, round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
