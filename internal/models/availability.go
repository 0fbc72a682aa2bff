package models

import "time"

// AvailabilityRule is a teacher-published bookable time window: either a
// standing weekly template (recurring) or a one-off override tied to a
// single calendar date.
type AvailabilityRule struct {
	ID           string    `db:"id" json:"id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	DayOfWeek    int       `db:"day_of_week" json:"day_of_week"`
	StartTime    ClockTime `db:"start_time" json:"start_time"`
	EndTime      ClockTime `db:"end_time" json:"end_time"`
	IsRecurring  bool      `db:"is_recurring" json:"is_recurring"`
	SpecificDate *DateOnly `db:"specific_date" json:"specific_date,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Overlaps reports whether the rule's window intersects [start, end).
func (r *AvailabilityRule) Overlaps(start, end ClockTime) bool {
	return r.StartTime < end && r.EndTime > start
}

// RuleConflict describes the persisted rule that caused a proposal to be
// rejected, with enough detail for a corrective UI.
type RuleConflict struct {
	RuleID       string    `json:"rule_id"`
	TeacherID    string    `json:"teacher_id"`
	DayOfWeek    int       `json:"day_of_week"`
	StartTime    ClockTime `json:"start_time"`
	EndTime      ClockTime `json:"end_time"`
	IsRecurring  bool      `json:"is_recurring"`
	SpecificDate *DateOnly `json:"specific_date,omitempty"`
}

// AvailabilityConflictError is returned when a proposed window collides with
// an existing rule.
type AvailabilityConflictError struct {
	Type     string       `json:"type"`
	Message  string       `json:"message"`
	Conflict RuleConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *AvailabilityConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
