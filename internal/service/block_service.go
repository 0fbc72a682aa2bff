package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorhive/scheduling-api/internal/models"
	appErrors "github.com/tutorhive/scheduling-api/pkg/errors"
)

type unavailableBlockRepository interface {
	ListFuture(ctx context.Context, teacherID string) ([]models.UnavailableBlock, error)
	FindByID(ctx context.Context, id string) (*models.UnavailableBlock, error)
	Create(ctx context.Context, block *models.UnavailableBlock) error
	Delete(ctx context.Context, id string) error
}

// CreateBlockRequest is the payload for carving out an exception.
type CreateBlockRequest struct {
	BlockedDate  models.DateOnly  `json:"blocked_date" validate:"required"`
	BlockedStart models.ClockTime `json:"blocked_start"`
	BlockedEnd   models.ClockTime `json:"blocked_end"`
	Reason       *string          `json:"reason" validate:"omitempty,max=500"`
}

// BlockService manages unavailable blocks. Blocks are never checked against
// each other: each one simply subtracts from projected availability, so
// stacking redundant blocks has no cost worth preventing.
type BlockService struct {
	repo      unavailableBlockRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBlockService wires the block service.
func NewBlockService(repo unavailableBlockRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *BlockService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlockService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Create validates and persists a block for the caller.
func (s *BlockService) Create(ctx context.Context, callerTeacherID string, req CreateBlockRequest) (*models.UnavailableBlock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid block payload")
	}
	if req.BlockedEnd <= req.BlockedStart {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "")
	}

	block := &models.UnavailableBlock{
		TeacherID:    callerTeacherID,
		BlockedDate:  req.BlockedDate,
		BlockedStart: req.BlockedStart,
		BlockedEnd:   req.BlockedEnd,
	}
	if req.Reason != nil {
		if reason := strings.TrimSpace(*req.Reason); reason != "" {
			block.Reason = &reason
		}
	}

	if err := s.repo.Create(ctx, block); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create block")
	}
	s.invalidateProjections(ctx, callerTeacherID)
	return block, nil
}

// Delete removes a block owned by the caller.
func (s *BlockService) Delete(ctx context.Context, callerTeacherID, blockID string) error {
	block, err := s.repo.FindByID(ctx, blockID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "unavailable block not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load block")
	}
	if block.TeacherID != callerTeacherID {
		return appErrors.Clone(appErrors.ErrForbidden, "block belongs to another teacher")
	}

	if err := s.repo.Delete(ctx, blockID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete block")
	}
	s.invalidateProjections(ctx, callerTeacherID)
	return nil
}

// ListFuture returns the caller's upcoming blocks ordered by date then start.
func (s *BlockService) ListFuture(ctx context.Context, teacherID string) ([]models.UnavailableBlock, error) {
	blocks, err := s.repo.ListFuture(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blocks")
	}
	return blocks, nil
}

func (s *BlockService) invalidateProjections(ctx context.Context, teacherID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, projectionCachePattern(teacherID)); err != nil {
		s.logger.Warn("failed to invalidate projection cache", zap.String("teacher_id", teacherID), zap.Error(err))
	}
}
