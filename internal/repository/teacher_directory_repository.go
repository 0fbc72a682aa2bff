package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TeacherDirectoryRepository answers existence checks against the teacher
// roster owned by the profile collaborator.
type TeacherDirectoryRepository struct {
	db *sqlx.DB
}

// NewTeacherDirectoryRepository constructs a TeacherDirectoryRepository.
func NewTeacherDirectoryRepository(db *sqlx.DB) *TeacherDirectoryRepository {
	return &TeacherDirectoryRepository{db: db}
}

// Exists reports whether the teacher is present in the roster.
func (r *TeacherDirectoryRepository) Exists(ctx context.Context, teacherID string) (bool, error) {
	const query = `SELECT 1 FROM teachers WHERE id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher exists: %w", err)
	}
	return true, nil
}
