package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tutorhive/scheduling-api/internal/models"
	"github.com/tutorhive/scheduling-api/pkg/config"
	appErrors "github.com/tutorhive/scheduling-api/pkg/errors"
	"github.com/tutorhive/scheduling-api/pkg/export"
)

type blockRangeReader interface {
	ListInRange(ctx context.Context, teacherID string, from, to models.DateOnly) ([]models.UnavailableBlock, error)
}

type occupancyReader interface {
	ListActive(ctx context.Context, teacherID string, from, to time.Time) ([]models.Occupancy, error)
}

type ruleReader interface {
	ListRelevant(ctx context.Context, teacherID string) ([]models.AvailabilityRule, error)
}

type projectionCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// BookingValidationRequest asks whether a proposed session fits the
// teacher's projected availability.
type BookingValidationRequest struct {
	Date      models.DateOnly  `json:"date" validate:"required"`
	StartTime models.ClockTime `json:"start_time"`
	EndTime   models.ClockTime `json:"end_time"`
}

// BookingValidationResult reports the outcome. Valid means exactly one
// projected window fully contains the requested interval. Projections may
// lag the booking collaborator, so a caller committing a booking must
// re-check occupancy at commit time.
type BookingValidationResult struct {
	Valid  bool                       `json:"valid"`
	Window *models.AvailabilityWindow `json:"window,omitempty"`
}

// ProjectionService expands persisted rules into concrete bookable windows
// over a horizon, subtracting unavailable blocks and booked occupancy.
type ProjectionService struct {
	rules     ruleReader
	blocks    blockRangeReader
	occupancy occupancyReader
	directory teacherDirectory
	cache     projectionCache
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       config.SchedulingConfig
}

// NewProjectionService wires the projection service.
func NewProjectionService(
	rules ruleReader,
	blocks blockRangeReader,
	occupancy occupancyReader,
	directory teacherDirectory,
	cache projectionCache,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg config.SchedulingConfig,
) *ProjectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxHorizonDays <= 0 {
		cfg.MaxHorizonDays = 90
	}
	if cfg.ProjectionCacheTTL <= 0 {
		cfg.ProjectionCacheTTL = 5 * time.Minute
	}
	return &ProjectionService{
		rules:     rules,
		blocks:    blocks,
		occupancy: occupancy,
		directory: directory,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Project returns the teacher's disjoint bookable windows per date over
// [from, to]. Teacher existence is the caller's concern; unknown teachers
// simply project to nothing.
func (s *ProjectionService) Project(ctx context.Context, teacherID string, from, to models.DateOnly) ([]models.AvailabilityWindow, error) {
	if to.Before(from.Time) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "horizon end precedes horizon start")
	}
	if from.DaysUntil(to) > s.cfg.MaxHorizonDays {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("horizon exceeds %d days", s.cfg.MaxHorizonDays))
	}

	cacheKey := projectionCacheKey(teacherID, from, to)
	if s.cache != nil {
		var cached []models.AvailabilityWindow
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.observeCache(true)
			return cached, nil
		}
		s.observeCache(false)
	}

	rules, err := s.rules.ListRelevant(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rules")
	}
	blocks, err := s.blocks.ListInRange(ctx, teacherID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load blocks")
	}
	occupancy, err := s.occupancy.ListActive(ctx, teacherID, from.Time, to.AddDays(1).Time)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occupancy")
	}

	windows := projectWindows(rules, blocks, occupancy, from, to)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, windows, s.cfg.ProjectionCacheTTL); err != nil {
			s.logger.Warn("failed to cache projection", zap.String("teacher_id", teacherID), zap.Error(err))
		}
	}
	return windows, nil
}

// ValidateBooking checks a proposed session against the projection for its
// date. The teacher must exist in the roster.
func (s *ProjectionService) ValidateBooking(ctx context.Context, teacherID string, req BookingValidationRequest) (*BookingValidationResult, error) {
	if req.EndTime <= req.StartTime {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "")
	}

	exists, err := s.directory.Exists(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}

	windows, err := s.Project(ctx, teacherID, req.Date, req.Date)
	if err != nil {
		return nil, err
	}

	result := &BookingValidationResult{}
	for i := range windows {
		if windows[i].Contains(req.StartTime, req.EndTime) {
			if result.Valid {
				// Windows are disjoint, so two containing windows would mean
				// a projection bug; treat it as not bookable.
				return &BookingValidationResult{}, nil
			}
			result.Valid = true
			result.Window = &windows[i]
		}
	}
	return result, nil
}

// ExportTimetable renders the projection as a downloadable CSV or PDF sheet.
func (s *ProjectionService) ExportTimetable(ctx context.Context, teacherID string, from, to models.DateOnly, format string) ([]byte, string, error) {
	windows, err := s.Project(ctx, teacherID, from, to)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{Headers: []string{"Date", "Day", "Start", "End"}}
	for _, w := range windows {
		data.Rows = append(data.Rows, map[string]string{
			"Date":  w.Date.String(),
			"Day":   w.Date.Weekday().String(),
			"Start": w.StartTime.String(),
			"End":   w.EndTime.String(),
		})
	}

	switch strings.ToLower(format) {
	case "csv", "":
		payload, err := export.NewCSVExporter().Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := export.NewPDFExporter().Render(data, fmt.Sprintf("Availability %s to %s", from, to))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// projectWindows performs the pure expansion and subtraction.
func projectWindows(rules []models.AvailabilityRule, blocks []models.UnavailableBlock, occupancy []models.Occupancy, from, to models.DateOnly) []models.AvailabilityWindow {
	blocksByDate := make(map[string][]models.UnavailableBlock)
	for _, b := range blocks {
		key := b.BlockedDate.String()
		blocksByDate[key] = append(blocksByDate[key], b)
	}

	var result []models.AvailabilityWindow
	for date := from; !date.After(to.Time); date = date.AddDays(1) {
		var windows []models.AvailabilityWindow
		for _, rule := range rules {
			if rule.IsRecurring {
				if rule.DayOfWeek == int(date.Weekday()) {
					windows = append(windows, models.AvailabilityWindow{Date: date, StartTime: rule.StartTime, EndTime: rule.EndTime})
				}
			} else if rule.SpecificDate != nil && rule.SpecificDate.Equal(date.Time) {
				windows = append(windows, models.AvailabilityWindow{Date: date, StartTime: rule.StartTime, EndTime: rule.EndTime})
			}
		}
		if len(windows) == 0 {
			continue
		}

		for _, b := range blocksByDate[date.String()] {
			windows = subtractInterval(windows, b.BlockedStart, b.BlockedEnd)
		}
		for _, occ := range occupancy {
			start, end, ok := clampToDate(occ.StartsAt, occ.EndsAt, date)
			if !ok {
				continue
			}
			windows = subtractInterval(windows, start, end)
		}

		result = append(result, windows...)
	}
	return result
}

// subtractInterval removes [start, end) from every window, splitting where
// the hole sits strictly inside.
func subtractInterval(windows []models.AvailabilityWindow, start, end models.ClockTime) []models.AvailabilityWindow {
	if end <= start {
		return windows
	}
	out := windows[:0:0]
	for _, w := range windows {
		if start >= w.EndTime || end <= w.StartTime {
			out = append(out, w)
			continue
		}
		if w.StartTime < start {
			out = append(out, models.AvailabilityWindow{Date: w.Date, StartTime: w.StartTime, EndTime: start})
		}
		if end < w.EndTime {
			out = append(out, models.AvailabilityWindow{Date: w.Date, StartTime: end, EndTime: w.EndTime})
		}
	}
	return out
}

// clampToDate converts an occupancy interval to minute-of-day bounds on the
// given date, reporting false when the interval misses the date entirely.
func clampToDate(startsAt, endsAt time.Time, date models.DateOnly) (models.ClockTime, models.ClockTime, bool) {
	dayStart := date.Time
	dayEnd := date.AddDays(1).Time
	if !startsAt.Before(dayEnd) || !endsAt.After(dayStart) {
		return 0, 0, false
	}

	start := models.ClockTime(0)
	if startsAt.After(dayStart) {
		start = models.MinuteOfDay(startsAt.UTC())
	}
	end := models.ClockTime(24 * 60)
	if endsAt.Before(dayEnd) {
		end = models.MinuteOfDay(endsAt.UTC())
	}
	return start, end, true
}

func projectionCacheKey(teacherID string, from, to models.DateOnly) string {
	return fmt.Sprintf("availability:windows:%s:%s:%s", teacherID, from, to)
}

func projectionCachePattern(teacherID string) string {
	return fmt.Sprintf("availability:windows:%s:*", teacherID)
}

func (s *ProjectionService) observeCache(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.ObserveCacheHit()
	} else {
		s.metrics.ObserveCacheMiss()
	}
}
