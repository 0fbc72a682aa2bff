package service

import (
	"fmt"

	"github.com/tutorhive/scheduling-api/internal/models"
	appErrors "github.com/tutorhive/scheduling-api/pkg/errors"
)

// ruleTrim narrows a persisted rule to a new window.
type ruleTrim struct {
	ruleID string
	start  models.ClockTime
	end    models.ClockTime
}

// resolutionPlan is the set of mutations needed to admit a candidate rule
// without overlap: deletions of swallowed one-off rules, trims of partially
// covered ones, and remainder inserts produced by splits. The plan is
// computed against an immutable snapshot and applied as one atomic batch.
type resolutionPlan struct {
	deleteIDs  []string
	trims      []ruleTrim
	remainders []models.AvailabilityRule
}

func (p *resolutionPlan) empty() bool {
	return len(p.deleteIDs) == 0 && len(p.trims) == 0 && len(p.remainders) == 0
}

// resolveOverlaps walks the snapshot of persisted rules for the candidate's
// teacher and weekday and computes the mutations required to admit the
// candidate.
//
// A recurring candidate is the teacher's standing template and may reclaim
// time previously carved out as a one-off override, so overlapping one-off
// rules are deleted, trimmed, or split around it. Two recurring rules can
// never coexist over the same time. A one-off candidate must never silently
// erase anything, so any overlap rejects the whole operation.
func resolveOverlaps(candidate *models.AvailabilityRule, snapshot []models.AvailabilityRule) (*resolutionPlan, error) {
	plan := &resolutionPlan{}

	for i := range snapshot {
		existing := &snapshot[i]
		if !existing.Overlaps(candidate.StartTime, candidate.EndTime) {
			continue
		}

		if !candidate.IsRecurring {
			return nil, conflictError(appErrors.ErrSlotConflict, existing)
		}
		if existing.IsRecurring {
			return nil, conflictError(appErrors.ErrRecurringConflict, existing)
		}

		switch {
		case candidate.StartTime <= existing.StartTime && candidate.EndTime >= existing.EndTime:
			// Candidate swallows the one-off entirely.
			plan.deleteIDs = append(plan.deleteIDs, existing.ID)
		case candidate.StartTime > existing.StartTime && candidate.EndTime < existing.EndTime:
			// Candidate sits strictly inside: keep the head, split off the tail.
			plan.trims = append(plan.trims, ruleTrim{ruleID: existing.ID, start: existing.StartTime, end: candidate.StartTime})
			plan.remainders = append(plan.remainders, models.AvailabilityRule{
				TeacherID:    existing.TeacherID,
				DayOfWeek:    existing.DayOfWeek,
				StartTime:    candidate.EndTime,
				EndTime:      existing.EndTime,
				IsRecurring:  false,
				SpecificDate: existing.SpecificDate,
			})
		case candidate.StartTime <= existing.StartTime:
			// Overlap from the left.
			plan.trims = append(plan.trims, ruleTrim{ruleID: existing.ID, start: candidate.EndTime, end: existing.EndTime})
		default:
			// Overlap from the right.
			plan.trims = append(plan.trims, ruleTrim{ruleID: existing.ID, start: existing.StartTime, end: candidate.StartTime})
		}
	}

	return plan, nil
}

func conflictError(base *appErrors.Error, existing *models.AvailabilityRule) error {
	detail := &models.AvailabilityConflictError{
		Type:    base.Code,
		Message: fmt.Sprintf("requested window overlaps existing rule %s-%s", existing.StartTime, existing.EndTime),
		Conflict: models.RuleConflict{
			RuleID:       existing.ID,
			TeacherID:    existing.TeacherID,
			DayOfWeek:    existing.DayOfWeek,
			StartTime:    existing.StartTime,
			EndTime:      existing.EndTime,
			IsRecurring:  existing.IsRecurring,
			SpecificDate: existing.SpecificDate,
		},
	}
	return appErrors.Wrap(detail, base.Code, base.Status, base.Message)
}
