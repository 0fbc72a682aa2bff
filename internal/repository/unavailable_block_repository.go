package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorhive/scheduling-api/internal/models"
)

const blockColumns = "id, teacher_id, blocked_date, blocked_start, blocked_end, reason, created_at"

// UnavailableBlockRepository manages persistence for unavailable blocks.
type UnavailableBlockRepository struct {
	db *sqlx.DB
}

// NewUnavailableBlockRepository constructs an UnavailableBlockRepository.
func NewUnavailableBlockRepository(db *sqlx.DB) *UnavailableBlockRepository {
	return &UnavailableBlockRepository{db: db}
}

// ListFuture returns a teacher's blocks from today onward, ordered by date
// then start time.
func (r *UnavailableBlockRepository) ListFuture(ctx context.Context, teacherID string) ([]models.UnavailableBlock, error) {
	query := fmt.Sprintf(`SELECT %s FROM unavailable_blocks WHERE teacher_id = $1 AND blocked_date >= CURRENT_DATE ORDER BY blocked_date ASC, blocked_start ASC`, blockColumns)
	var blocks []models.UnavailableBlock
	if err := r.db.SelectContext(ctx, &blocks, query, teacherID); err != nil {
		return nil, fmt.Errorf("list future blocks: %w", err)
	}
	return blocks, nil
}

// ListInRange returns blocks whose date falls inside [from, to].
func (r *UnavailableBlockRepository) ListInRange(ctx context.Context, teacherID string, from, to models.DateOnly) ([]models.UnavailableBlock, error) {
	query := fmt.Sprintf(`SELECT %s FROM unavailable_blocks WHERE teacher_id = $1 AND blocked_date BETWEEN $2 AND $3 ORDER BY blocked_date ASC, blocked_start ASC`, blockColumns)
	var blocks []models.UnavailableBlock
	if err := r.db.SelectContext(ctx, &blocks, query, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("list blocks in range: %w", err)
	}
	return blocks, nil
}

// FindByID loads a block by id.
func (r *UnavailableBlockRepository) FindByID(ctx context.Context, id string) (*models.UnavailableBlock, error) {
	query := fmt.Sprintf(`SELECT %s FROM unavailable_blocks WHERE id = $1`, blockColumns)
	var block models.UnavailableBlock
	if err := r.db.GetContext(ctx, &block, query, id); err != nil {
		return nil, err
	}
	return &block, nil
}

// Create stores a new block record.
func (r *UnavailableBlockRepository) Create(ctx context.Context, block *models.UnavailableBlock) error {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	if block.CreatedAt.IsZero() {
		block.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO unavailable_blocks (id, teacher_id, blocked_date, blocked_start, blocked_end, reason, created_at)
		VALUES (:id, :teacher_id, :blocked_date, :blocked_start, :blocked_end, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, block); err != nil {
		return fmt.Errorf("create block: %w", err)
	}
	return nil
}

// Delete removes a block. Ownership is checked by the service layer.
func (r *UnavailableBlockRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM unavailable_blocks WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete block %s: %w", id, err)
	}
	return nil
}
