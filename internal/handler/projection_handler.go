package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/scheduling-api/internal/models"
	"github.com/tutorhive/scheduling-api/internal/service"
	appErrors "github.com/tutorhive/scheduling-api/pkg/errors"
	"github.com/tutorhive/scheduling-api/pkg/response"
)

// defaultHorizonDays is the window span served when the caller omits bounds.
const defaultHorizonDays = 13

// timeNow is swapped in tests.
var timeNow = time.Now

type projectionService interface {
	Project(ctx context.Context, teacherID string, from, to models.DateOnly) ([]models.AvailabilityWindow, error)
	ValidateBooking(ctx context.Context, teacherID string, req service.BookingValidationRequest) (*service.BookingValidationResult, error)
	ExportTimetable(ctx context.Context, teacherID string, from, to models.DateOnly, format string) ([]byte, string, error)
}

// ProjectionHandler serves projected availability windows.
type ProjectionHandler struct {
	service       projectionService
	exportEnabled bool
}

// NewProjectionHandler constructs handler.
func NewProjectionHandler(svc projectionService, exportEnabled bool) *ProjectionHandler {
	return &ProjectionHandler{service: svc, exportEnabled: exportEnabled}
}

// Windows godoc
// @Summary Project bookable windows for a teacher
// @Tags Projection
// @Produce json
// @Param id path string true "Teacher ID"
// @Param from query string false "Horizon start (YYYY-MM-DD)"
// @Param to query string false "Horizon end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability/windows [get]
func (h *ProjectionHandler) Windows(c *gin.Context) {
	from, to, err := horizonFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	windows, err := h.service.Project(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, windows)
}

// Validate godoc
// @Summary Validate a proposed booking against projected availability
// @Tags Projection
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.BookingValidationRequest true "Booking window"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability/validate [post]
func (h *ProjectionHandler) Validate(c *gin.Context) {
	var req service.BookingValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.service.ValidateBooking(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Export godoc
// @Summary Export projected availability as CSV or PDF
// @Tags Projection
// @Produce octet-stream
// @Param id path string true "Teacher ID"
// @Param format query string false "csv or pdf"
// @Param from query string false "Horizon start (YYYY-MM-DD)"
// @Param to query string false "Horizon end (YYYY-MM-DD)"
// @Success 200
// @Router /teachers/{id}/availability/export [get]
func (h *ProjectionHandler) Export(c *gin.Context) {
	if !h.exportEnabled {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export is disabled"))
		return
	}

	from, to, err := horizonFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.service.ExportTimetable(c.Request.Context(), c.Param("id"), from, to, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("availability_%s_%s.%s", from, to, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

func horizonFromQuery(c *gin.Context) (models.DateOnly, models.DateOnly, error) {
	from := models.NewDateOnly(timeNow())
	to := from.AddDays(defaultHorizonDays)

	if raw := c.Query("from"); raw != "" {
		parsed, err := models.ParseDateOnly(raw)
		if err != nil {
			return models.DateOnly{}, models.DateOnly{}, appErrors.Clone(appErrors.ErrValidation, "invalid from date")
		}
		from = parsed
		to = from.AddDays(defaultHorizonDays)
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := models.ParseDateOnly(raw)
		if err != nil {
			return models.DateOnly{}, models.DateOnly{}, appErrors.Clone(appErrors.ErrValidation, "invalid to date")
		}
		to = parsed
	}
	return from, to, nil
}
