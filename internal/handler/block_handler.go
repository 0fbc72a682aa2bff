package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhive/scheduling-api/internal/models"
	"github.com/tutorhive/scheduling-api/internal/service"
	appErrors "github.com/tutorhive/scheduling-api/pkg/errors"
	"github.com/tutorhive/scheduling-api/pkg/response"
)

type blockService interface {
	Create(ctx context.Context, callerTeacherID string, req service.CreateBlockRequest) (*models.UnavailableBlock, error)
	Delete(ctx context.Context, callerTeacherID, blockID string) error
	ListFuture(ctx context.Context, teacherID string) ([]models.UnavailableBlock, error)
}

// BlockHandler manages unavailable block endpoints.
type BlockHandler struct {
	service blockService
}

// NewBlockHandler constructs handler.
func NewBlockHandler(svc blockService) *BlockHandler {
	return &BlockHandler{service: svc}
}

// Create godoc
// @Summary Carve out an unavailable block
// @Tags Blocks
// @Accept json
// @Produce json
// @Param payload body service.CreateBlockRequest true "Block payload"
// @Success 201 {object} response.Envelope
// @Router /unavailable-blocks [post]
func (h *BlockHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	block, err := h.service.Create(c.Request.Context(), claims.TeacherID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}

// List godoc
// @Summary List the caller's upcoming unavailable blocks
// @Tags Blocks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /unavailable-blocks [get]
func (h *BlockHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	blocks, err := h.service.ListFuture(c.Request.Context(), claims.TeacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blocks)
}

// Delete godoc
// @Summary Delete an unavailable block
// @Tags Blocks
// @Produce json
// @Param id path string true "Block ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /unavailable-blocks/{id} [delete]
func (h *BlockHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims.TeacherID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
