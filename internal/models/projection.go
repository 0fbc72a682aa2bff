package models

import "time"

// AvailabilityWindow is a concrete bookable interval on a single date,
// produced by expanding rules over a horizon and subtracting blocks and
// booked occupancy.
type AvailabilityWindow struct {
	Date      DateOnly  `json:"date"`
	StartTime ClockTime `json:"start_time"`
	EndTime   ClockTime `json:"end_time"`
}

// Contains reports whether the window fully covers [start, end) on its date.
func (w AvailabilityWindow) Contains(start, end ClockTime) bool {
	return w.StartTime <= start && w.EndTime >= end
}

// Occupancy is a non-cancelled booked session interval. It is owned and
// mutated entirely by the booking collaborator; this subsystem only reads it.
type Occupancy struct {
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	StartsAt  time.Time `db:"starts_at" json:"starts_at"`
	EndsAt    time.Time `db:"ends_at" json:"ends_at"`
}
