package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/tilewise/scrabble-director/middleware"
	"github.com/tilewise/scrabble-director/models"
	"github.com/tilewise/scrabble-director/services"
)

const maxLogoUploadBytes = 5 << 20 // 5MB

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts}
}

// CreateHandler handles POST /tournaments
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create tournament")
		return
	}

	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	t := &models.Tournament{
		Name:        input.Name,
		Description: input.Description,
		TotalRounds: input.TotalRounds,
	}
	if input.StartDate != "" {
		startDate, err := time.Parse(time.RFC3339, input.StartDate)
		if err != nil {
			badRequestResponse(w, r, errors.New("start_date must be an RFC 3339 timestamp"))
			return
		}
		t.StartDate = startDate
	}
	if input.Settings != nil {
		t.Settings = *input.Settings
	}

	if err := h.tournamentService.Create(r.Context(), currentUserID, t); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": t}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler handles GET /tournaments/{tournamentID}. With ?full=true the
// response includes the roster and the full match list.
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var tournament *models.Tournament
	if r.URL.Query().Get("full") == "true" {
		tournament, err = h.tournamentService.GetFullTournamentData(r.Context(), id)
	} else {
		tournament, err = h.tournamentService.GetByID(r.Context(), id)
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /tournaments
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var status *models.TournamentStatus
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		s := models.TournamentStatus(statusStr)
		status = &s
	}

	tournaments, err := h.tournamentService.List(r.Context(), status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler handles PUT /tournaments/{tournamentID}
func (h *TournamentHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var t models.Tournament
	if err := readJSON(w, r, &t); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	t.ID = id

	if err := h.tournamentService.Update(r.Context(), currentUserID, &t); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": t}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateSettingsHandler handles PUT /tournaments/{tournamentID}/settings
func (h *TournamentHandler) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var settings models.TournamentSettings
	if err := readJSON(w, r, &settings); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.UpdateSettings(r.Context(), currentUserID, id, settings)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetStatusHandler handles PUT /tournaments/{tournamentID}/status
func (h *TournamentHandler) SetStatusHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status models.TournamentStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.SetStatus(r.Context(), currentUserID, id, input.Status); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": input.Status}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadLogoHandler handles POST /tournaments/{tournamentID}/logo (multipart)
func (h *TournamentHandler) UploadLogoHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxLogoUploadBytes); err != nil {
		badRequestResponse(w, r, errors.New("could not parse multipart form"))
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		badRequestResponse(w, r, errors.New("logo file is required"))
		return
	}
	defer file.Close()

	tournament, err := h.tournamentService.UploadLogo(
		r.Context(), currentUserID, id, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler handles DELETE /tournaments/{tournamentID}
func (h *TournamentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.Delete(r.Context(), currentUserID, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
