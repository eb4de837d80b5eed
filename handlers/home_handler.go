package handlers

import (
	"net/http"

	"github.com/esportshub/esports-hub/models"
	"github.com/esportshub/esports-hub/services"
)

type HomeHandler struct {
	dashboardService services.DashboardService
	rankingService   services.RankingService
}

func NewHomeHandler(dashboardService services.DashboardService, rankingService services.RankingService) *HomeHandler {
	return &HomeHandler{
		dashboardService: dashboardService,
		rankingService:   rankingService,
	}
}

// Home отдаёт рейтинг, предстоящие турниры и категории. Параметр category
// переключает scope с глобального на категорийный.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	view, err := h.dashboardService.Home(r.Context(), scopeFromQuery(r))
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *HomeHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromQuery(r)
	rankings, err := h.rankingService.ComputeRankings(r.Context(), scope)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scope": scope, "rankings": rankings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func scopeFromQuery(r *http.Request) models.RankScope {
	if category := r.URL.Query().Get("category"); category != "" {
		return models.CategoryScope(category)
	}
	return models.GlobalScope()
}
