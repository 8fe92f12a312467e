package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/violetdestiny/PILLPAL-Backend/internal/storage/models"
)

// DeviceRepository provides data access for device pairings and device
// event logs.
type DeviceRepository struct {
	BaseRepository
}

// NewDeviceRepository creates a new device repository.
func NewDeviceRepository(db *DB) *DeviceRepository {
	return &DeviceRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// GetUserForDevice resolves the user owning a device via its active pairing.
// Returns an empty string if the device has no active pairing. If more than
// one active pairing exists the first match wins.
func (r *DeviceRepository) GetUserForDevice(ctx context.Context, deviceID string) (string, error) {
	var userID string

	err := r.DB().QueryRowContext(ctx, `
		SELECT user_id FROM device_pairings
		WHERE device_id = ? AND active = 1
		LIMIT 1
	`, deviceID).Scan(&userID)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying device pairing: %w", err)
	}

	return userID, nil
}

// GetDeviceForUser resolves a user's actively paired device.
// Returns an empty string if the user has no active pairing.
func (r *DeviceRepository) GetDeviceForUser(ctx context.Context, userID string) (string, error) {
	var deviceID string

	err := r.DB().QueryRowContext(ctx, `
		SELECT device_id FROM device_pairings
		WHERE user_id = ? AND active = 1
		LIMIT 1
	`, userID).Scan(&deviceID)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying device pairing: %w", err)
	}

	return deviceID, nil
}

// Pair creates or reactivates the pairing between a device and a user.
func (r *DeviceRepository) Pair(ctx context.Context, deviceID, userID string) error {
	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO device_pairings (device_id, user_id, active, paired_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(device_id, user_id) DO UPDATE SET active = 1, paired_at = ?
	`, deviceID, userID, r.Now(), r.Now())

	if err != nil {
		return fmt.Errorf("pairing device: %w", err)
	}

	return nil
}

// Unpair deactivates the pairing between a device and a user. The row is
// kept for audit purposes.
func (r *DeviceRepository) Unpair(ctx context.Context, deviceID, userID string) error {
	_, err := r.DB().ExecContext(ctx, `
		UPDATE device_pairings SET active = 0 WHERE device_id = ? AND user_id = ?
	`, deviceID, userID)

	if err != nil {
		return fmt.Errorf("unpairing device: %w", err)
	}

	return nil
}

// InsertEvent appends a device event log entry.
func (r *DeviceRepository) InsertEvent(ctx context.Context, event *models.DeviceEvent) error {
	event.ID = GenerateID()
	event.CreatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO device_events (event_id, device_id, event_type, source, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, event.ID, event.DeviceID, event.EventType, event.Source, event.CreatedAt)

	if err != nil {
		return fmt.Errorf("inserting device event: %w", err)
	}

	return nil
}
