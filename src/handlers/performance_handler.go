package handlers

import (
	"net/http"

	"github.com/username/perfolio/src/logger"
	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/services"
	"github.com/username/perfolio/src/utils"
)

type PerformanceHandler struct {
	performanceService services.PerformanceService
}

func NewPerformanceHandler(service services.PerformanceService) *PerformanceHandler {
	return &PerformanceHandler{
		performanceService: service,
	}
}

func (h *PerformanceHandler) HandleGetAttributionSankey(w http.ResponseWriter, r *http.Request) {
	var req models.PerformanceAttributionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		sendServiceError(w, r, err, "computing the attribution")
		return
	}
	logger.FromContext(r.Context()).Info("Handling GetAttributionSankey",
		"startDate", req.StartDate, "endDate", req.EndDate, "accounts", len(req.AccountCodes))

	resp, err := h.performanceService.GetAttribution(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, err, "computing the attribution")
		return
	}
	if resp.UnclassifiedTx == nil {
		resp.UnclassifiedTx = []models.ClassificationDecision{}
	}
	if resp.PerAccount == nil {
		resp.PerAccount = map[string]models.AccountAttribution{}
	}
	utils.WriteJSONWithETag(w, r, resp)
}

func (h *PerformanceHandler) HandleGetSankeyLevels(w http.ResponseWriter, r *http.Request) {
	levels := h.performanceService.GetAvailableLevels()
	if levels == nil {
		levels = []string{}
	}
	utils.WriteJSONWithETag(w, r, map[string][]string{"available_levels": levels})
}
