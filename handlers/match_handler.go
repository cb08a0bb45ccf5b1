package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/tilewise/scrabble-director/middleware"
	"github.com/tilewise/scrabble-director/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

// ListHandler handles GET /tournaments/{tournamentID}/matches, optionally
// filtered with ?round=N.
func (h *MatchHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var round *int
	if roundStr := r.URL.Query().Get("round"); roundStr != "" {
		n, err := strconv.Atoi(roundStr)
		if err != nil || n < 1 {
			badRequestResponse(w, r, errors.New("invalid round query parameter"))
			return
		}
		round = &n
	}

	matches, err := h.matchService.ListByTournament(r.Context(), tournamentID, round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitScoreHandler handles POST /matches/{matchID}/score. A full round of
// scores triggers the next round's pairing; if that pairing fails the score
// is still saved and the response says so.
func (h *MatchHandler) SubmitScoreHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SubmitScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.SubmitScore(r.Context(), currentUserID, matchID, input)
	if err != nil {
		if errors.Is(err, services.ErrScoresSavedPairingFailed) {
			// The score committed. Return it together with the failure.
			writeErr := writeJSON(w, http.StatusInternalServerError, jsonResponse{
				"match": match,
				"error": err.Error(),
			}, nil)
			if writeErr != nil {
				serverErrorResponse(w, r, writeErr)
			}
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// EditScoreHandler handles PUT /matches/{matchID}/score for correcting an
// already scored match.
func (h *MatchHandler) EditScoreHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SubmitScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.EditScore(r.Context(), currentUserID, matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ForfeitHandler handles POST /matches/{matchID}/forfeit
func (h *MatchHandler) ForfeitHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		ForfeitedPlayerID int `json:"forfeited_player_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.ForfeitedPlayerID < 1 {
		badRequestResponse(w, r, errors.New("forfeited_player_id is required"))
		return
	}

	match, err := h.matchService.RecordForfeit(r.Context(), currentUserID, matchID, input.ForfeitedPlayerID)
	if err != nil {
		if errors.Is(err, services.ErrScoresSavedPairingFailed) {
			writeErr := writeJSON(w, http.StatusInternalServerError, jsonResponse{
				"match": match,
				"error": err.Error(),
			}, nil)
			if writeErr != nil {
				serverErrorResponse(w, r, writeErr)
			}
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
