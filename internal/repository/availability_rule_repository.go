package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tutorhive/scheduling-api/internal/models"
)

const ruleColumns = "id, teacher_id, day_of_week, start_time, end_time, is_recurring, specific_date, created_at, updated_at"

// AvailabilityRuleRepository manages persistence for availability rules.
type AvailabilityRuleRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRuleRepository constructs an AvailabilityRuleRepository.
func NewAvailabilityRuleRepository(db *sqlx.DB) *AvailabilityRuleRepository {
	return &AvailabilityRuleRepository{db: db}
}

// ListRelevant returns a teacher's recurring rules plus non-recurring rules
// whose date has not yet passed, ordered by day of week then start time.
// Expired one-off rules stay in the table for audit reading but are filtered
// out here.
func (r *AvailabilityRuleRepository) ListRelevant(ctx context.Context, teacherID string) ([]models.AvailabilityRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM availability_rules WHERE teacher_id = $1 AND (is_recurring OR specific_date >= CURRENT_DATE) ORDER BY day_of_week ASC, start_time ASC`, ruleColumns)
	var rules []models.AvailabilityRule
	if err := r.db.SelectContext(ctx, &rules, query, teacherID); err != nil {
		return nil, fmt.Errorf("list relevant rules: %w", err)
	}
	return rules, nil
}

// FindByID loads a rule by id.
func (r *AvailabilityRuleRepository) FindByID(ctx context.Context, id string) (*models.AvailabilityRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM availability_rules WHERE id = $1`, ruleColumns)
	var rule models.AvailabilityRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListForUpdateTx reads the conflict-detection snapshot for one teacher and
// weekday, locking the rows for the duration of the transaction.
func (r *AvailabilityRuleRepository) ListForUpdateTx(ctx context.Context, tx *sqlx.Tx, teacherID string, dayOfWeek int) ([]models.AvailabilityRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM availability_rules WHERE teacher_id = $1 AND day_of_week = $2 ORDER BY start_time ASC FOR UPDATE`, ruleColumns)
	var rules []models.AvailabilityRule
	if err := tx.SelectContext(ctx, &rules, query, teacherID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("snapshot rules for update: %w", err)
	}
	return rules, nil
}

// InsertTx stores a new rule within an existing transaction.
func (r *AvailabilityRuleRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, rule *models.AvailabilityRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	const query = `INSERT INTO availability_rules (id, teacher_id, day_of_week, start_time, end_time, is_recurring, specific_date, created_at, updated_at)
		VALUES (:id, :teacher_id, :day_of_week, :start_time, :end_time, :is_recurring, :specific_date, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	return nil
}

// UpdateWindowTx trims an existing rule to a new time window.
func (r *AvailabilityRuleRepository) UpdateWindowTx(ctx context.Context, tx *sqlx.Tx, id string, start, end models.ClockTime) error {
	const query = `UPDATE availability_rules SET start_time = $2, end_time = $3, updated_at = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, start, end, time.Now().UTC()); err != nil {
		return fmt.Errorf("trim rule %s: %w", id, err)
	}
	return nil
}

// DeleteTx removes rules by id within an existing transaction.
func (r *AvailabilityRuleRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `DELETE FROM availability_rules WHERE id = ANY($1)`
	if _, err := tx.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("delete rules: %w", err)
	}
	return nil
}

// Delete removes a single rule. Ownership is checked by the service layer.
func (r *AvailabilityRuleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM availability_rules WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete rule %s: %w", id, err)
	}
	return nil
}
