package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/violetdestiny/PILLPAL-Backend/internal/storage/models"
)

// SettingsRepository provides data access for notification preferences.
type SettingsRepository struct {
	BaseRepository
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// GetByUser retrieves a user's notification settings.
// Returns nil if the user has never saved preferences.
func (r *SettingsRepository) GetByUser(ctx context.Context, userID string) (*models.NotificationSettings, error) {
	s := &models.NotificationSettings{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT user_id, sound_enabled, vibration_enabled, led_enabled, updated_at
		FROM notification_settings WHERE user_id = ?
	`, userID).Scan(&s.UserID, &s.SoundEnabled, &s.VibrationEnabled, &s.LEDEnabled, &s.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying notification settings: %w", err)
	}

	return s, nil
}

// Upsert creates or replaces a user's notification settings.
func (r *SettingsRepository) Upsert(ctx context.Context, s *models.NotificationSettings) error {
	s.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO notification_settings (user_id, sound_enabled, vibration_enabled, led_enabled, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			sound_enabled = ?, vibration_enabled = ?, led_enabled = ?, updated_at = ?
	`,
		s.UserID, s.SoundEnabled, s.VibrationEnabled, s.LEDEnabled, s.UpdatedAt,
		s.SoundEnabled, s.VibrationEnabled, s.LEDEnabled, s.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("upserting notification settings: %w", err)
	}

	return nil
}
