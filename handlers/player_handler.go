package handlers

import (
	"net/http"

	"github.com/tilewise/scrabble-director/middleware"
	"github.com/tilewise/scrabble-director/models"
	"github.com/tilewise/scrabble-director/services"
)

type PlayerHandler struct {
	rosterService services.RosterService
}

func NewPlayerHandler(rs services.RosterService) *PlayerHandler {
	return &PlayerHandler{rosterService: rs}
}

// AddHandler handles POST /tournaments/{tournamentID}/players
func (h *PlayerHandler) AddHandler(w http.ResponseWriter, r *http.Request) {
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

	var input services.AddPlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.rosterService.AddPlayer(r.Context(), currentUserID, tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /tournaments/{tournamentID}/players. With
// ?active=true withdrawn players are excluded.
func (h *PlayerHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var players []*models.Player
	if r.URL.Query().Get("active") == "true" {
		players, err = h.rosterService.ListActivePlayers(r.Context(), tournamentID)
	} else {
		players, err = h.rosterService.ListPlayers(r.Context(), tournamentID)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler handles PUT /tournaments/{tournamentID}/players/{playerID}
func (h *PlayerHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
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
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var player models.Player
	if err := readJSON(w, r, &player); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	player.ID = playerID
	player.TournamentID = tournamentID

	if err := h.rosterService.UpdatePlayer(r.Context(), currentUserID, &player); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// WithdrawHandler handles DELETE /tournaments/{tournamentID}/players/{playerID}.
// Withdrawal is a soft status change; the player's history stays in standings.
func (h *PlayerHandler) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
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
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.rosterService.WithdrawPlayer(r.Context(), currentUserID, tournamentID, playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReseedHandler handles POST /tournaments/{tournamentID}/players/reseed
func (h *PlayerHandler) ReseedHandler(w http.ResponseWriter, r *http.Request) {
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

	players, err := h.rosterService.ReseedRoster(r.Context(), currentUserID, tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
