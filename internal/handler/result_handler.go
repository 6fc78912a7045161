package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sino-med/hms-lab-api/internal/service"
	appErrors "github.com/sino-med/hms-lab-api/pkg/errors"
	"github.com/sino-med/hms-lab-api/pkg/response"
)

// ResultHandler exposes result submission and retrieval endpoints.
type ResultHandler struct {
	results *service.ResultService
	metrics *service.MetricsService
}

// NewResultHandler constructs handler.
func NewResultHandler(results *service.ResultService, metrics *service.MetricsService) *ResultHandler {
	return &ResultHandler{results: results, metrics: metrics}
}

// Submit godoc
// @Summary Submit results for an order
// @Tags Results
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param payload body service.SubmitResultRequest true "Result payload"
// @Success 201 {object} response.Envelope
// @Router /lab/orders/{id}/results [post]
func (h *ResultHandler) Submit(c *gin.Context) {
	var req service.SubmitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	createdBy := ""
	if claims := claimsFromContext(c); claims != nil {
		createdBy = claims.UserID
	}

	result, err := h.results.Submit(c.Request.Context(), c.Param("id"), req, createdBy)
	if err != nil {
		h.metrics.RecordSubmission(appErrors.FromError(err).Code)
		response.Error(c, err)
		return
	}
	h.metrics.RecordSubmission("ok")
	response.Created(c, result)
}

// Get godoc
// @Summary Get an order with its classification and result
// @Tags Results
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} response.Envelope
// @Router /lab/orders/{id}/result [get]
func (h *ResultHandler) Get(c *gin.Context) {
	view, err := h.results.GetOrderResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Classify godoc
// @Summary Preview the schema the entry form should render
// @Tags Results
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} response.Envelope
// @Router /lab/orders/{id}/classify [get]
func (h *ResultHandler) Classify(c *gin.Context) {
	view, err := h.results.Classify(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
