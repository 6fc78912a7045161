package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sino-med/hms-lab-api/internal/service"
	"github.com/sino-med/hms-lab-api/pkg/response"
)

// HistoryHandler exposes the per-patient history projection.
type HistoryHandler struct {
	history *service.HistoryService
}

// NewHistoryHandler constructs handler.
func NewHistoryHandler(history *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// History godoc
// @Summary Completed test history for a patient
// @Tags History
// @Produce json
// @Param id path string true "Patient ID"
// @Success 200 {object} response.Envelope
// @Router /lab/patients/{id}/history [get]
func (h *HistoryHandler) History(c *gin.Context) {
	history, err := h.history.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// Report godoc
// @Summary Tabular PDF of a patient's completed tests
// @Tags History
// @Produce application/pdf
// @Param id path string true "Patient ID"
// @Success 200 {file} file
// @Router /lab/patients/{id}/history/report [get]
func (h *HistoryHandler) Report(c *gin.Context) {
	payload, err := h.history.ReportPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Blob(c, "application/pdf", "lab-history.pdf", payload)
}
