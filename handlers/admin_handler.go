package handlers

import (
	"net/http"
	"strconv"

	"github.com/esportshub/esports-hub/middleware"
	"github.com/esportshub/esports-hub/models"
	"github.com/esportshub/esports-hub/services"
)

type AdminHandler struct {
	tournamentService   services.TournamentService
	registrationService services.RegistrationService
	rankingService      services.RankingService
	archiverService     services.ArchiverService
	auditService        services.AuditService
}

func NewAdminHandler(
	tournamentService services.TournamentService,
	registrationService services.RegistrationService,
	rankingService services.RankingService,
	archiverService services.ArchiverService,
	auditService services.AuditService,
) *AdminHandler {
	return &AdminHandler{
		tournamentService:   tournamentService,
		registrationService: registrationService,
		rankingService:      rankingService,
		archiverService:     archiverService,
		auditService:        auditService,
	}
}

func (h *AdminHandler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var input services.TournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) UpdateTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		notFoundResponse(w, r, "tournament not found")
		return
	}

	var input services.TournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.UpdateTournament(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	tournaments, err := h.tournamentService.ListAll(r.Context(), limit, offset)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) SetTournamentHidden(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		notFoundResponse(w, r, "tournament not found")
		return
	}

	var input struct {
		Hidden bool `json:"hidden"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.SetHidden(r.Context(), tournamentID, input.Hidden); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "visibility updated"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ArchiveTournament переводит турнир в архив вручную, вместе с его
// подтверждёнными регистрациями.
func (h *AdminHandler) ArchiveTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		notFoundResponse(w, r, "tournament not found")
		return
	}

	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.tournamentService.ArchiveTournament(r.Context(), tournamentID, &actorID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "tournament archived"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) ApproveRegistration(w http.ResponseWriter, r *http.Request) {
	h.changeRegistrationStatus(w, r, models.RegistrationApproved)
}

func (h *AdminHandler) RejectRegistration(w http.ResponseWriter, r *http.Request) {
	h.changeRegistrationStatus(w, r, models.RegistrationRejected)
}

func (h *AdminHandler) changeRegistrationStatus(w http.ResponseWriter, r *http.Request, status models.RegistrationStatus) {
	registrationID, err := idParam(r, "registrationID")
	if err != nil {
		notFoundResponse(w, r, "registration not found")
		return
	}

	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var (
		reg       *models.Registration
		changeErr error
	)
	if status == models.RegistrationApproved {
		reg, changeErr = h.registrationService.ApproveRegistration(r.Context(), registrationID, actorID)
	} else {
		reg, changeErr = h.registrationService.RejectRegistration(r.Context(), registrationID, actorID)
	}
	if changeErr != nil {
		mapServiceErrorToHTTP(w, r, changeErr)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RunSweep запускает проход архивации немедленно, не дожидаясь тикера.
func (h *AdminHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	archived, err := h.archiverService.SweepExpired(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"archived": archived}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) SaveRankSnapshot(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	snapshot, err := h.rankingService.SaveSnapshot(r.Context(), scopeFromQuery(r), actorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"snapshot": snapshot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) LatestRankSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.rankingService.GetLatestSnapshot(r.Context(), scopeFromQuery(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"snapshot": snapshot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	var filter models.AuditFilter
	filter.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.auditService.List(r.Context(), filter)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) ExportAuditLog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="audit_log.json"`)

	if err := h.auditService.Export(r.Context(), w); err != nil {
		serverErrorResponse(w, r, err)
	}
}
