package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/scheduling-api/internal/models"
	appErrors "github.com/tutorhive/scheduling-api/pkg/errors"
)

func clock(h, m int) models.ClockTime {
	return models.ClockTime(h*60 + m)
}

func oneOffRule(id string, start, end models.ClockTime) models.AvailabilityRule {
	date, _ := models.ParseDateOnly("2026-09-07")
	return models.AvailabilityRule{
		ID:           id,
		TeacherID:    "teacher-1",
		DayOfWeek:    1,
		StartTime:    start,
		EndTime:      end,
		IsRecurring:  false,
		SpecificDate: &date,
	}
}

func recurringRule(id string, start, end models.ClockTime) models.AvailabilityRule {
	return models.AvailabilityRule{
		ID:          id,
		TeacherID:   "teacher-1",
		DayOfWeek:   1,
		StartTime:   start,
		EndTime:     end,
		IsRecurring: true,
	}
}

func TestResolveOverlapsNoOverlapEmptyPlan(t *testing.T) {
	candidate := recurringRule("", clock(9, 0), clock(10, 0))
	snapshot := []models.AvailabilityRule{oneOffRule("r1", clock(10, 0), clock(11, 0))}

	plan, err := resolveOverlaps(&candidate, snapshot)
	require.NoError(t, err)
	assert.True(t, plan.empty())
}

func TestResolveOverlapsRecurringSwallowsOneOff(t *testing.T) {
	candidate := recurringRule("", clock(9, 0), clock(13, 0))
	snapshot := []models.AvailabilityRule{oneOffRule("r1", clock(10, 0), clock(12, 0))}

	plan, err := resolveOverlaps(&candidate, snapshot)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, plan.deleteIDs)
	assert.Empty(t, plan.trims)
	assert.Empty(t, plan.remainders)
}

func TestResolveOverlapsRecurringSplitsOneOff(t *testing.T) {
	candidate := recurringRule("", clock(10, 0), clock(12, 0))
	snapshot := []models.AvailabilityRule{oneOffRule("r1", clock(9, 0), clock(13, 0))}

	plan, err := resolveOverlaps(&candidate, snapshot)
	require.NoError(t, err)
	assert.Empty(t, plan.deleteIDs)

	require.Len(t, plan.trims, 1)
	assert.Equal(t, "r1", plan.trims[0].ruleID)
	assert.Equal(t, clock(9, 0), plan.trims[0].start)
	assert.Equal(t, clock(10, 0), plan.trims[0].end)

	require.Len(t, plan.remainders, 1)
	remainder := plan.remainders[0]
	assert.Equal(t, clock(12, 0), remainder.StartTime)
	assert.Equal(t, clock(13, 0), remainder.EndTime)
	assert.False(t, remainder.IsRecurring)
	require.NotNil(t, remainder.SpecificDate)
	assert.Equal(t, "2026-09-07", remainder.SpecificDate.String())
}

func TestResolveOverlapsRecurringTrimsLeftEdge(t *testing.T) {
	candidate := recurringRule("", clock(9, 0), clock(11, 0))
	snapshot := []models.AvailabilityRule{oneOffRule("r1", clock(10, 0), clock(12, 0))}

	plan, err := resolveOverlaps(&candidate, snapshot)
	require.NoError(t, err)
	require.Len(t, plan.trims, 1)
	assert.Equal(t, clock(11, 0), plan.trims[0].start)
	assert.Equal(t, clock(12, 0), plan.trims[0].end)
	assert.Empty(t, plan.remainders)
}

func TestResolveOverlapsRecurringTrimsRightEdge(t *testing.T) {
	candidate := recurringRule("", clock(11, 0), clock(13, 0))
	snapshot := []models.AvailabilityRule{oneOffRule("r1", clock(10, 0), clock(12, 0))}

	plan, err := resolveOverlaps(&candidate, snapshot)
	require.NoError(t, err)
	require.Len(t, plan.trims, 1)
	assert.Equal(t, clock(10, 0), plan.trims[0].start)
	assert.Equal(t, clock(11, 0), plan.trims[0].end)
}

func TestResolveOverlapsAdjacentWindowsDoNotConflict(t *testing.T) {
	candidate := recurringRule("", clock(12, 0), clock(13, 0))
	snapshot := []models.AvailabilityRule{recurringRule("r1", clock(10, 0), clock(12, 0))}

	plan, err := resolveOverlaps(&candidate, snapshot)
	require.NoError(t, err)
	assert.True(t, plan.empty())
}

func TestResolveOverlapsRecurringVsRecurringConflicts(t *testing.T) {
	candidate := recurringRule("", clock(9, 0), clock(11, 0))
	snapshot := []models.AvailabilityRule{recurringRule("r1", clock(10, 0), clock(12, 0))}

	_, err := resolveOverlaps(&candidate, snapshot)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrRecurringConflict.Code, appErr.Code)
	assert.Equal(t, 409, appErr.Status)

	var detail *models.AvailabilityConflictError
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, "r1", detail.Conflict.RuleID)
	assert.Equal(t, clock(10, 0), detail.Conflict.StartTime)
}

func TestResolveOverlapsOneOffCandidateNeverMutates(t *testing.T) {
	candidate := oneOffRule("", clock(9, 0), clock(13, 0))

	snapshots := [][]models.AvailabilityRule{
		{recurringRule("r1", clock(10, 0), clock(12, 0))},
		{oneOffRule("r2", clock(10, 0), clock(12, 0))},
	}
	for _, snapshot := range snapshots {
		_, err := resolveOverlaps(&candidate, snapshot)
		require.Error(t, err)

		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrSlotConflict.Code, appErr.Code)
	}
}

func TestResolveOverlapsMultipleOneOffsInOnePass(t *testing.T) {
	candidate := recurringRule("", clock(9, 0), clock(12, 0))
	snapshot := []models.AvailabilityRule{
		oneOffRule("r1", clock(8, 0), clock(10, 0)),  // right-edge overlap
		oneOffRule("r2", clock(10, 0), clock(11, 0)), // swallowed
		oneOffRule("r3", clock(11, 0), clock(13, 0)), // left-edge overlap
	}

	plan, err := resolveOverlaps(&candidate, snapshot)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, plan.deleteIDs)
	require.Len(t, plan.trims, 2)
	assert.Equal(t, "r1", plan.trims[0].ruleID)
	assert.Equal(t, clock(8, 0), plan.trims[0].start)
	assert.Equal(t, clock(9, 0), plan.trims[0].end)
	assert.Equal(t, "r3", plan.trims[1].ruleID)
	assert.Equal(t, clock(12, 0), plan.trims[1].start)
	assert.Equal(t, clock(13, 0), plan.trims[1].end)
}
