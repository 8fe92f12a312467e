package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/violetdestiny/PILLPAL-Backend/internal/storage/models"
)

// MedicationRepository provides data access for medications and their
// compartment assignments.
type MedicationRepository struct {
	BaseRepository
}

// NewMedicationRepository creates a new medication repository.
func NewMedicationRepository(db *DB) *MedicationRepository {
	return &MedicationRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Insert inserts a new medication using the given handle, assigning an ID
// and timestamps.
func (r *MedicationRepository) Insert(ctx context.Context, q Queryable, med *models.Medication) error {
	med.ID = GenerateID()
	med.CreatedAt = r.Now()
	med.UpdatedAt = med.CreatedAt

	_, err := q.ExecContext(ctx, `
		INSERT INTO medications (med_id, user_id, name, notes, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		med.ID, med.UserID, med.Name, med.Notes, med.StartDate, med.EndDate,
		med.CreatedAt, med.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting medication: %w", err)
	}

	return nil
}

// GetByID retrieves a medication scoped to its owning user.
// Returns nil if no such medication exists for that user.
func (r *MedicationRepository) GetByID(ctx context.Context, medID, userID string) (*models.Medication, error) {
	med := &models.Medication{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT med_id, user_id, name, notes, start_date, end_date, created_at, updated_at
		FROM medications WHERE med_id = ? AND user_id = ?
	`, medID, userID).Scan(
		&med.ID, &med.UserID, &med.Name, &med.Notes, &med.StartDate, &med.EndDate,
		&med.CreatedAt, &med.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying medication: %w", err)
	}

	return med, nil
}

// ListByUser retrieves all medications owned by a user.
func (r *MedicationRepository) ListByUser(ctx context.Context, userID string) ([]models.Medication, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT med_id, user_id, name, notes, start_date, end_date, created_at, updated_at
		FROM medications
		WHERE user_id = ?
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying medications: %w", err)
	}
	defer rows.Close()

	var meds []models.Medication
	for rows.Next() {
		var med models.Medication
		if err := rows.Scan(
			&med.ID, &med.UserID, &med.Name, &med.Notes, &med.StartDate, &med.EndDate,
			&med.CreatedAt, &med.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning medication: %w", err)
		}
		meds = append(meds, med)
	}

	return meds, rows.Err()
}

// UpdateDetails updates the mutable fields (name, notes) of a medication
// in place, scoped to the owning user.
func (r *MedicationRepository) UpdateDetails(ctx context.Context, q Queryable, medID, userID, name string, notes *string) error {
	result, err := q.ExecContext(ctx, `
		UPDATE medications SET name = ?, notes = ?, updated_at = ?
		WHERE med_id = ? AND user_id = ?
	`, name, notes, r.Now(), medID, userID)

	if err != nil {
		return fmt.Errorf("updating medication: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("medication not found: %s", medID)
	}

	return nil
}

// Delete removes a medication row, scoped to the owning user. Dependent rows
// are expected to have been removed already by the caller.
func (r *MedicationRepository) Delete(ctx context.Context, q Queryable, medID, userID string) error {
	result, err := q.ExecContext(ctx, "DELETE FROM medications WHERE med_id = ? AND user_id = ?", medID, userID)
	if err != nil {
		return fmt.Errorf("deleting medication: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("medication not found: %s", medID)
	}

	return nil
}

// AssignCompartment creates or updates the compartment assignment for a
// medication on a device.
func (r *MedicationRepository) AssignCompartment(ctx context.Context, medID, deviceID string, compartment int) error {
	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO compartment_assignments (med_id, device_id, compartment, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(med_id, device_id) DO UPDATE SET compartment = ?
	`, medID, deviceID, compartment, r.Now(), compartment)

	if err != nil {
		return fmt.Errorf("assigning compartment: %w", err)
	}

	return nil
}

// DeleteCompartmentsByMed removes all compartment assignments for a medication.
func (r *MedicationRepository) DeleteCompartmentsByMed(ctx context.Context, q Queryable, medID string) error {
	_, err := q.ExecContext(ctx, "DELETE FROM compartment_assignments WHERE med_id = ?", medID)
	if err != nil {
		return fmt.Errorf("deleting compartment assignments: %w", err)
	}
	return nil
}
