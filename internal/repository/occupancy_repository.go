package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/scheduling-api/internal/models"
)

// OccupancyRepository reads booked-session intervals owned by the booking
// collaborator. This subsystem never writes to the sessions table.
type OccupancyRepository struct {
	db *sqlx.DB
}

// NewOccupancyRepository constructs an OccupancyRepository.
func NewOccupancyRepository(db *sqlx.DB) *OccupancyRepository {
	return &OccupancyRepository{db: db}
}

// ListActive returns non-cancelled session intervals for the teacher that
// intersect [from, to).
func (r *OccupancyRepository) ListActive(ctx context.Context, teacherID string, from, to time.Time) ([]models.Occupancy, error) {
	const query = `SELECT teacher_id, starts_at, ends_at FROM sessions WHERE teacher_id = $1 AND status <> 'CANCELLED' AND starts_at < $3 AND ends_at > $2 ORDER BY starts_at ASC`
	var occupancy []models.Occupancy
	if err := r.db.SelectContext(ctx, &occupancy, query, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("list active occupancy: %w", err)
	}
	return occupancy, nil
}
