package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/violetdestiny/PILLPAL-Backend/internal/storage/models"
)

// ScheduleRepository provides data access for schedule rules and their
// times-of-day entries.
type ScheduleRepository struct {
	BaseRepository
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// InsertRule inserts a new schedule rule, assigning an ID and timestamps.
func (r *ScheduleRepository) InsertRule(ctx context.Context, q Queryable, rule *models.ScheduleRule) error {
	rule.ID = GenerateID()
	rule.CreatedAt = r.Now()
	rule.UpdatedAt = rule.CreatedAt

	_, err := q.ExecContext(ctx, `
		INSERT INTO med_schedule_rules (rule_id, med_id, repeat_type, day_mask, custom_start, custom_end, lead_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rule.ID, rule.MedID, rule.RepeatType, rule.DayMask, rule.CustomStart,
		rule.CustomEnd, rule.LeadMinutes, rule.CreatedAt, rule.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting schedule rule: %w", err)
	}

	return nil
}

// GetRuleByMed retrieves the schedule rule for a medication.
// Returns nil if the medication has no rule. Rules are modeled 1:N but held
// to one per medication in practice; the first row wins.
func (r *ScheduleRepository) GetRuleByMed(ctx context.Context, q Queryable, medID string) (*models.ScheduleRule, error) {
	rule := &models.ScheduleRule{}

	err := q.QueryRowContext(ctx, `
		SELECT rule_id, med_id, repeat_type, day_mask, custom_start, custom_end, lead_minutes, created_at, updated_at
		FROM med_schedule_rules WHERE med_id = ?
		ORDER BY created_at LIMIT 1
	`, medID).Scan(
		&rule.ID, &rule.MedID, &rule.RepeatType, &rule.DayMask, &rule.CustomStart,
		&rule.CustomEnd, &rule.LeadMinutes, &rule.CreatedAt, &rule.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying schedule rule: %w", err)
	}

	return rule, nil
}

// UpdateRule updates an existing schedule rule by ID.
func (r *ScheduleRepository) UpdateRule(ctx context.Context, q Queryable, rule *models.ScheduleRule) error {
	rule.UpdatedAt = r.Now()

	result, err := q.ExecContext(ctx, `
		UPDATE med_schedule_rules SET
			repeat_type = ?, day_mask = ?, custom_start = ?, custom_end = ?, lead_minutes = ?, updated_at = ?
		WHERE rule_id = ?
	`,
		rule.RepeatType, rule.DayMask, rule.CustomStart, rule.CustomEnd,
		rule.LeadMinutes, rule.UpdatedAt, rule.ID,
	)

	if err != nil {
		return fmt.Errorf("updating schedule rule: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("schedule rule not found: %s", rule.ID)
	}

	return nil
}

// DeleteRulesByMed removes all schedule rules for a medication.
func (r *ScheduleRepository) DeleteRulesByMed(ctx context.Context, q Queryable, medID string) error {
	_, err := q.ExecContext(ctx, "DELETE FROM med_schedule_rules WHERE med_id = ?", medID)
	if err != nil {
		return fmt.Errorf("deleting schedule rules: %w", err)
	}
	return nil
}

// ReplaceTimes deletes and reinserts the times-of-day for a rule,
// preserving the input order as sort_order.
func (r *ScheduleRepository) ReplaceTimes(ctx context.Context, q Queryable, ruleID string, times []string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM med_times WHERE rule_id = ?", ruleID); err != nil {
		return fmt.Errorf("deleting times: %w", err)
	}

	for i, hhmm := range times {
		_, err := q.ExecContext(ctx, `
			INSERT INTO med_times (rule_id, hhmm, sort_order)
			VALUES (?, ?, ?)
		`, ruleID, hhmm, i)
		if err != nil {
			return fmt.Errorf("inserting time %q: %w", hhmm, err)
		}
	}

	return nil
}

// ListTimes retrieves the times-of-day for a rule in stored sort order.
func (r *ScheduleRepository) ListTimes(ctx context.Context, q Queryable, ruleID string) ([]models.MedTime, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT rule_id, hhmm, sort_order
		FROM med_times
		WHERE rule_id = ?
		ORDER BY sort_order
	`, ruleID)
	if err != nil {
		return nil, fmt.Errorf("querying times: %w", err)
	}
	defer rows.Close()

	var times []models.MedTime
	for rows.Next() {
		var t models.MedTime
		if err := rows.Scan(&t.RuleID, &t.HHMM, &t.SortOrder); err != nil {
			return nil, fmt.Errorf("scanning time: %w", err)
		}
		times = append(times, t)
	}

	return times, rows.Err()
}

// DeleteTimesByMed removes the times-of-day for every rule of a medication,
// used by the medication delete cascade.
func (r *ScheduleRepository) DeleteTimesByMed(ctx context.Context, q Queryable, medID string) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM med_times WHERE rule_id IN (
			SELECT rule_id FROM med_schedule_rules WHERE med_id = ?
		)
	`, medID)
	if err != nil {
		return fmt.Errorf("deleting times: %w", err)
	}
	return nil
}

// DeleteTimesByRule removes all times-of-day for a rule.
func (r *ScheduleRepository) DeleteTimesByRule(ctx context.Context, q Queryable, ruleID string) error {
	_, err := q.ExecContext(ctx, "DELETE FROM med_times WHERE rule_id = ?", ruleID)
	if err != nil {
		return fmt.Errorf("deleting times: %w", err)
	}
	return nil
}
