package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/violetdestiny/PILLPAL-Backend/internal/storage/models"
)

// DoseRepository provides data access for dose instances and their audit
// events.
type DoseRepository struct {
	BaseRepository
}

// NewDoseRepository creates a new dose repository.
func NewDoseRepository(db *DB) *DoseRepository {
	return &DoseRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// BulkInsert inserts one scheduled dose instance per timestamp for a
// medication.
func (r *DoseRepository) BulkInsert(ctx context.Context, q Queryable, medID string, scheduledAt []time.Time) error {
	now := r.Now()

	for _, at := range scheduledAt {
		_, err := q.ExecContext(ctx, `
			INSERT INTO dose_instances (instance_id, med_id, scheduled_at, status, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, GenerateID(), medID, at, models.DoseScheduled, now)
		if err != nil {
			return fmt.Errorf("inserting dose instance: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a dose instance by its ID. Returns nil if absent.
func (r *DoseRepository) GetByID(ctx context.Context, instanceID string) (*models.DoseInstance, error) {
	dose := &models.DoseInstance{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT instance_id, med_id, scheduled_at, status, created_at
		FROM dose_instances WHERE instance_id = ?
	`, instanceID).Scan(&dose.ID, &dose.MedID, &dose.ScheduledAt, &dose.Status, &dose.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying dose instance: %w", err)
	}

	return dose, nil
}

// UpdateStatus sets the status of a dose instance.
func (r *DoseRepository) UpdateStatus(ctx context.Context, q Queryable, instanceID, status string) error {
	result, err := q.ExecContext(ctx, `
		UPDATE dose_instances SET status = ? WHERE instance_id = ?
	`, status, instanceID)

	if err != nil {
		return fmt.Errorf("updating dose status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("dose instance not found: %s", instanceID)
	}

	return nil
}

// DeleteFutureByMed removes all dose instances for a medication scheduled at
// or after the cutoff, together with their audit events. Past instances and
// their events are left untouched.
func (r *DoseRepository) DeleteFutureByMed(ctx context.Context, q Queryable, medID string, cutoff time.Time) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM dose_events WHERE instance_id IN (
			SELECT instance_id FROM dose_instances
			WHERE med_id = ? AND scheduled_at >= ?
		)
	`, medID, cutoff)
	if err != nil {
		return fmt.Errorf("deleting future dose events: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		DELETE FROM dose_instances WHERE med_id = ? AND scheduled_at >= ?
	`, medID, cutoff)
	if err != nil {
		return fmt.Errorf("deleting future dose instances: %w", err)
	}

	return nil
}

// DeleteByMed removes all dose instances for a medication and their audit
// events, used by the medication delete cascade.
func (r *DoseRepository) DeleteByMed(ctx context.Context, q Queryable, medID string) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM dose_events WHERE instance_id IN (
			SELECT instance_id FROM dose_instances WHERE med_id = ?
		)
	`, medID)
	if err != nil {
		return fmt.Errorf("deleting dose events: %w", err)
	}

	_, err = q.ExecContext(ctx, "DELETE FROM dose_instances WHERE med_id = ?", medID)
	if err != nil {
		return fmt.Errorf("deleting dose instances: %w", err)
	}

	return nil
}

// ListByMed retrieves all dose instances for a medication ordered by time.
func (r *DoseRepository) ListByMed(ctx context.Context, medID string) ([]models.DoseInstance, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT instance_id, med_id, scheduled_at, status, created_at
		FROM dose_instances
		WHERE med_id = ?
		ORDER BY scheduled_at
	`, medID)
	if err != nil {
		return nil, fmt.Errorf("querying dose instances: %w", err)
	}
	defer rows.Close()

	return r.scanDoses(rows)
}

// ListDue retrieves scheduled dose instances whose scheduled_at falls inside
// [from, until), joined to the active device pairing of the owning user.
// Instances for users without an active pairing do not match.
func (r *DoseRepository) ListDue(ctx context.Context, from, until time.Time) ([]models.DueDose, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT di.instance_id, di.med_id, m.user_id, dp.device_id, di.scheduled_at
		FROM dose_instances di
		JOIN medications m ON m.med_id = di.med_id
		JOIN device_pairings dp ON dp.user_id = m.user_id AND dp.active = 1
		WHERE di.status = ?
		  AND di.scheduled_at >= ?
		  AND di.scheduled_at < ?
		ORDER BY di.scheduled_at
	`, models.DoseScheduled, from, until)
	if err != nil {
		return nil, fmt.Errorf("querying due doses: %w", err)
	}
	defer rows.Close()

	var due []models.DueDose
	for rows.Next() {
		var d models.DueDose
		if err := rows.Scan(&d.InstanceID, &d.MedID, &d.UserID, &d.DeviceID, &d.ScheduledAt); err != nil {
			return nil, fmt.Errorf("scanning due dose: %w", err)
		}
		due = append(due, d)
	}

	return due, rows.Err()
}

// EarliestByUser retrieves the earliest-scheduled dose instance across all
// of a user's medications, regardless of status. Returns nil if the user
// has no instances.
func (r *DoseRepository) EarliestByUser(ctx context.Context, userID string) (*models.DoseInstance, error) {
	dose := &models.DoseInstance{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT instance_id, med_id, scheduled_at, status, created_at
		FROM dose_instances
		WHERE med_id IN (SELECT med_id FROM medications WHERE user_id = ?)
		ORDER BY scheduled_at
		LIMIT 1
	`, userID).Scan(&dose.ID, &dose.MedID, &dose.ScheduledAt, &dose.Status, &dose.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying earliest dose: %w", err)
	}

	return dose, nil
}

// HistoryByUser retrieves past dose instances for a user, newest first.
func (r *DoseRepository) HistoryByUser(ctx context.Context, userID string, before time.Time) ([]models.DoseWithMedication, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT di.instance_id, di.med_id, m.name, di.scheduled_at, di.status
		FROM dose_instances di
		JOIN medications m ON m.med_id = di.med_id
		WHERE m.user_id = ? AND di.scheduled_at <= ?
		ORDER BY di.scheduled_at DESC
	`, userID, before)
	if err != nil {
		return nil, fmt.Errorf("querying dose history: %w", err)
	}
	defer rows.Close()

	return r.scanDosesWithMedication(rows)
}

// ListByUserAndDay retrieves a user's dose instances scheduled within
// [dayStart, dayStart+24h), earliest first.
func (r *DoseRepository) ListByUserAndDay(ctx context.Context, userID string, dayStart time.Time) ([]models.DoseWithMedication, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT di.instance_id, di.med_id, m.name, di.scheduled_at, di.status
		FROM dose_instances di
		JOIN medications m ON m.med_id = di.med_id
		WHERE m.user_id = ?
		  AND di.scheduled_at >= ?
		  AND di.scheduled_at < ?
		ORDER BY di.scheduled_at
	`, userID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("querying day doses: %w", err)
	}
	defer rows.Close()

	return r.scanDosesWithMedication(rows)
}

// InsertEvent appends an audit event for a dose instance.
func (r *DoseRepository) InsertEvent(ctx context.Context, instanceID, eventType, source string) error {
	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO dose_events (event_id, instance_id, event_type, source, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, GenerateID(), instanceID, eventType, source, r.Now())

	if err != nil {
		return fmt.Errorf("inserting dose event: %w", err)
	}

	return nil
}

// CountEventsByInstance returns the number of audit events for an instance.
func (r *DoseRepository) CountEventsByInstance(ctx context.Context, instanceID string) (int, error) {
	var count int
	err := r.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM dose_events WHERE instance_id = ?", instanceID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting dose events: %w", err)
	}
	return count, nil
}

func (r *DoseRepository) scanDoses(rows *sql.Rows) ([]models.DoseInstance, error) {
	var doses []models.DoseInstance
	for rows.Next() {
		var d models.DoseInstance
		if err := rows.Scan(&d.ID, &d.MedID, &d.ScheduledAt, &d.Status, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning dose instance: %w", err)
		}
		doses = append(doses, d)
	}
	return doses, rows.Err()
}

func (r *DoseRepository) scanDosesWithMedication(rows *sql.Rows) ([]models.DoseWithMedication, error) {
	var doses []models.DoseWithMedication
	for rows.Next() {
		var d models.DoseWithMedication
		if err := rows.Scan(&d.InstanceID, &d.MedID, &d.Name, &d.ScheduledAt, &d.Status); err != nil {
			return nil, fmt.Errorf("scanning dose row: %w", err)
		}
		doses = append(doses, d)
	}
	return doses, rows.Err()
}
