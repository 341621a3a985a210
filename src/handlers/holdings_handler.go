package handlers

import (
	"net/http"

	"github.com/username/perfolio/src/logger"
	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/services"
	"github.com/username/perfolio/src/utils"
)

type HoldingsHandler struct {
	holdingsService services.HoldingsService
}

func NewHoldingsHandler(service services.HoldingsService) *HoldingsHandler {
	return &HoldingsHandler{
		holdingsService: service,
	}
}

func (h *HoldingsHandler) HandleGetFxRates(w http.ResponseWriter, r *http.Request) {
	var req models.FxRateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		sendServiceError(w, r, err, "reading FX rates")
		return
	}
	logger.FromContext(r.Context()).Info("Handling GetFxRates", "asOfDate", req.AsOfDate)

	rates, err := h.holdingsService.GetFxRates(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, err, "reading FX rates")
		return
	}
	if rates.Rates == nil {
		rates.Rates = []models.FxRatePoint{}
	}
	utils.WriteJSONWithETag(w, r, rates)
}

func (h *HoldingsHandler) HandleGetSankeyColumns(w http.ResponseWriter, r *http.Request) {
	columns, err := h.holdingsService.GetAvailableSankeyColumns(r.Context())
	if err != nil {
		sendServiceError(w, r, err, "listing grouping columns")
		return
	}
	if columns.AccountColumns == nil {
		columns.AccountColumns = []models.AvailableColumn{}
	}
	if columns.SecurityColumns == nil {
		columns.SecurityColumns = []models.AvailableColumn{}
	}
	utils.WriteJSONWithETag(w, r, columns)
}

func (h *HoldingsHandler) HandleGetHoldingsSankey(w http.ResponseWriter, r *http.Request) {
	var req models.SankeyRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		sendServiceError(w, r, err, "building the holdings graph")
		return
	}
	logger.FromContext(r.Context()).Info("Handling GetHoldingsSankey",
		"asOfDate", req.AsOfDate, "accounts", len(req.AccountCodes), "levels", req.SankeyLevels)

	graph, err := h.holdingsService.GetHoldingsSankey(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, err, "building the holdings graph")
		return
	}
	utils.WriteJSONWithETag(w, r, graph)
}

func (h *HoldingsHandler) HandleGetAvailableDates(w http.ResponseWriter, r *http.Request) {
	var req models.AvailableDatesRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		sendServiceError(w, r, err, "listing available dates")
		return
	}

	dates, err := h.holdingsService.GetAvailableDates(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, err, "listing available dates")
		return
	}
	utils.WriteJSONWithETag(w, r, dates)
}
