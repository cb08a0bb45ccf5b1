package handlers

import (
	"net/http"

	"github.com/tilewise/scrabble-director/services"
)

type StandingsHandler struct {
	standingsService services.StandingsService
}

func NewStandingsHandler(ss services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standingsService: ss}
}

// CurrentHandler handles GET /tournaments/{tournamentID}/standings. The
// response is always computed live from the match list.
func (h *StandingsHandler) CurrentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.standingsService.CurrentStandings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SnapshotHandler handles GET /tournaments/{tournamentID}/standings/{round},
// serving the frozen after-round snapshot.
func (h *StandingsHandler) SnapshotHandler(w http.ResponseWriter, r *http.Request) {
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

	snapshot, err := h.standingsService.SnapshotForRound(r.Context(), tournamentID, round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"snapshot": snapshot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
