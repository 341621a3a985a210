package handlers

import (
	"net/http"

	"github.com/username/perfolio/src/logger"
	"github.com/username/perfolio/src/models"
	"github.com/username/perfolio/src/services"
	"github.com/username/perfolio/src/utils"
)

type BenchmarkHandler struct {
	benchmarkService services.BenchmarkService
}

func NewBenchmarkHandler(service services.BenchmarkService) *BenchmarkHandler {
	return &BenchmarkHandler{
		benchmarkService: service,
	}
}

func (h *BenchmarkHandler) HandleGetBenchmarkPerformance(w http.ResponseWriter, r *http.Request) {
	var req models.BenchmarkPerformanceRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		sendServiceError(w, r, err, "computing benchmark performance")
		return
	}
	logger.FromContext(r.Context()).Info("Handling GetBenchmarkPerformance",
		"startDate", req.StartDate, "endDate", req.EndDate, "benchmarks", req.BenchmarkList)

	resp, err := h.benchmarkService.GetBenchmarkPerformance(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, err, "computing benchmark performance")
		return
	}
	utils.WriteJSONWithETag(w, r, resp)
}
