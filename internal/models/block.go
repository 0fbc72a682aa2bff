package models

import "time"

// UnavailableBlock removes time from what a teacher's rules would otherwise
// make bookable on one calendar date. Blocks are pure negative space: they
// are never split, merged, or conflict-checked against each other, so
// overlapping blocks are harmless and allowed.
type UnavailableBlock struct {
	ID           string    `db:"id" json:"id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	BlockedDate  DateOnly  `db:"blocked_date" json:"blocked_date"`
	BlockedStart ClockTime `db:"blocked_start" json:"blocked_start"`
	BlockedEnd   ClockTime `db:"blocked_end" json:"blocked_end"`
	Reason       *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
