package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/tutorhive/scheduling-api/internal/models"
	appErrors "github.com/tutorhive/scheduling-api/pkg/errors"
)

type availabilityRuleRepository interface {
	ListRelevant(ctx context.Context, teacherID string) ([]models.AvailabilityRule, error)
	FindByID(ctx context.Context, id string) (*models.AvailabilityRule, error)
	ListForUpdateTx(ctx context.Context, tx *sqlx.Tx, teacherID string, dayOfWeek int) ([]models.AvailabilityRule, error)
	InsertTx(ctx context.Context, tx *sqlx.Tx, rule *models.AvailabilityRule) error
	UpdateWindowTx(ctx context.Context, tx *sqlx.Tx, id string, start, end models.ClockTime) error
	DeleteTx(ctx context.Context, tx *sqlx.Tx, ids []string) error
	Delete(ctx context.Context, id string) error
}

type teacherDirectory interface {
	Exists(ctx context.Context, teacherID string) (bool, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ProposeAvailabilityRequest is the payload for publishing a new window.
type ProposeAvailabilityRequest struct {
	DayOfWeek    int              `json:"day_of_week" validate:"min=0,max=6"`
	StartTime    models.ClockTime `json:"start_time"`
	EndTime      models.ClockTime `json:"end_time"`
	IsRecurring  bool             `json:"is_recurring"`
	SpecificDate *models.DateOnly `json:"specific_date,omitempty"`
}

// AvailabilityService owns the availability rule lifecycle, including the
// overlap resolution that keeps a teacher's rule set conflict-free.
type AvailabilityService struct {
	repo      availabilityRuleRepository
	directory teacherDirectory
	tx        txProvider
	cache     cacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAvailabilityService wires the availability service.
func NewAvailabilityService(
	repo availabilityRuleRepository,
	directory teacherDirectory,
	tx txProvider,
	cache cacheInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		repo:      repo,
		directory: directory,
		tx:        tx,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Propose validates a candidate window, resolves every conflict with the
// teacher's persisted rules, and persists the resolution plan plus the
// candidate as one atomic batch. On rejection nothing is mutated.
func (s *AvailabilityService) Propose(ctx context.Context, callerTeacherID string, req ProposeAvailabilityRequest) (*models.AvailabilityRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if req.EndTime <= req.StartTime {
		s.observeProposal("invalid_range")
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "")
	}

	exists, err := s.directory.Exists(ctx, callerTeacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}

	specificDate, err := s.resolveSpecificDate(req)
	if err != nil {
		s.observeProposal("invalid_date")
		return nil, err
	}

	candidate := &models.AvailabilityRule{
		TeacherID:    callerTeacherID,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		IsRecurring:  req.IsRecurring,
		SpecificDate: specificDate,
	}

	// The snapshot read, the plan application, and the candidate insert
	// share one serializable transaction: two concurrent proposals for the
	// same teacher and day cannot both observe a pre-conflict snapshot.
	tx, err := s.tx.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	snapshot, err := s.repo.ListForUpdateTx(ctx, tx, callerTeacherID, candidate.DayOfWeek)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to snapshot rules")
		return nil, err
	}

	plan, err := resolveOverlaps(candidate, snapshot)
	if err != nil {
		s.observeProposal("conflict")
		return nil, err
	}

	if err = s.applyPlan(ctx, tx, plan, candidate); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit resolution batch")
		return nil, err
	}

	s.invalidateProjections(ctx, callerTeacherID)
	s.observeProposal("created")
	s.logger.Info("availability rule created",
		zap.String("rule_id", candidate.ID),
		zap.String("teacher_id", callerTeacherID),
		zap.Int("day_of_week", candidate.DayOfWeek),
		zap.Bool("recurring", candidate.IsRecurring),
		zap.Int("deleted", len(plan.deleteIDs)),
		zap.Int("trimmed", len(plan.trims)),
		zap.Int("remainders", len(plan.remainders)),
	)
	return candidate, nil
}

// Delete removes a rule owned by the caller.
func (s *AvailabilityService) Delete(ctx context.Context, callerTeacherID, ruleID string) error {
	rule, err := s.repo.FindByID(ctx, ruleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "availability rule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rule")
	}
	if rule.TeacherID != callerTeacherID {
		return appErrors.Clone(appErrors.ErrForbidden, "rule belongs to another teacher")
	}

	if err := s.repo.Delete(ctx, ruleID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete rule")
	}
	s.invalidateProjections(ctx, callerTeacherID)
	return nil
}

// List returns the caller's relevant rules ordered by day then start time.
func (s *AvailabilityService) List(ctx context.Context, teacherID string) ([]models.AvailabilityRule, error) {
	rules, err := s.repo.ListRelevant(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rules")
	}
	return rules, nil
}

// resolveSpecificDate enforces the date preconditions. Recurring candidates
// carry no date. A one-off without a date lands on the next occurrence of
// its weekday, rolling a week forward when today's matching window has
// already started.
func (s *AvailabilityService) resolveSpecificDate(req ProposeAvailabilityRequest) (*models.DateOnly, error) {
	if req.IsRecurring {
		return nil, nil
	}

	now := s.now().UTC()
	today := models.NewDateOnly(now)

	if req.SpecificDate == nil {
		daysAhead := (req.DayOfWeek - int(now.Weekday()) + 7) % 7
		if daysAhead == 0 && models.MinuteOfDay(now) >= req.StartTime {
			daysAhead = 7
		}
		date := today.AddDays(daysAhead)
		return &date, nil
	}

	date := *req.SpecificDate
	if date.Before(today.Time) {
		return nil, appErrors.Clone(appErrors.ErrPastDate, "")
	}
	if int(date.Weekday()) != req.DayOfWeek {
		return nil, appErrors.Clone(appErrors.ErrDateMismatch,
			fmt.Sprintf("date %s falls on weekday %d, not %d", date, int(date.Weekday()), req.DayOfWeek))
	}
	return &date, nil
}

func (s *AvailabilityService) applyPlan(ctx context.Context, tx *sqlx.Tx, plan *resolutionPlan, candidate *models.AvailabilityRule) error {
	if err := s.repo.DeleteTx(ctx, tx, plan.deleteIDs); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete overlapped rules")
	}
	for _, trim := range plan.trims {
		if err := s.repo.UpdateWindowTx(ctx, tx, trim.ruleID, trim.start, trim.end); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to trim overlapped rule")
		}
	}
	for i := range plan.remainders {
		if err := s.repo.InsertTx(ctx, tx, &plan.remainders[i]); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert remainder rule")
		}
	}
	if err := s.repo.InsertTx(ctx, tx, candidate); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert rule")
	}
	return nil
}

func (s *AvailabilityService) invalidateProjections(ctx context.Context, teacherID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, projectionCachePattern(teacherID)); err != nil {
		s.logger.Warn("failed to invalidate projection cache", zap.String("teacher_id", teacherID), zap.Error(err))
	}
}

func (s *AvailabilityService) observeProposal(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveProposalOutcome(outcome)
	}
}
