package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sino-med/hms-lab-api/internal/models"
	"github.com/sino-med/hms-lab-api/internal/service"
	appErrors "github.com/sino-med/hms-lab-api/pkg/errors"
	"github.com/sino-med/hms-lab-api/pkg/response"
)

// ReagentHandler exposes the reagent ledger read endpoints.
type ReagentHandler struct {
	reagents *service.ReagentService
}

// NewReagentHandler constructs handler.
func NewReagentHandler(reagents *service.ReagentService) *ReagentHandler {
	return &ReagentHandler{reagents: reagents}
}

// List godoc
// @Summary List reagent lots with derived ledger fields
// @Tags Reagents
// @Produce json
// @Param status query string false "Filter by derived status"
// @Success 200 {object} response.Envelope
// @Router /lab/reagents [get]
func (h *ReagentHandler) List(c *gin.Context) {
	var filter models.ReagentStatus
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseReagentStatus(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown reagent status "+raw))
			return
		}
		filter = status
	}
	views, err := h.reagents.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// Get godoc
// @Summary Get one reagent lot
// @Tags Reagents
// @Produce json
// @Param id path string true "Reagent lot ID"
// @Success 200 {object} response.Envelope
// @Router /lab/reagents/{id} [get]
func (h *ReagentHandler) Get(c *gin.Context) {
	view, err := h.reagents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Usage godoc
// @Summary List consumption history of a reagent lot
// @Tags Reagents
// @Produce json
// @Param id path string true "Reagent lot ID"
// @Param limit query int false "Max rows"
// @Success 200 {object} response.Envelope
// @Router /lab/reagents/{id}/usage [get]
func (h *ReagentHandler) Usage(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	usage, err := h.reagents.Usage(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, usage, nil)
}

// Export godoc
// @Summary Export the reagent inventory as CSV
// @Tags Reagents
// @Produce text/csv
// @Success 200 {file} file
// @Router /lab/reagents/export [get]
func (h *ReagentHandler) Export(c *gin.Context) {
	payload, err := h.reagents.ExportCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Blob(c, "text/csv", "reagents.csv", payload)
}
