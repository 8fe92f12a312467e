package alert

import (
	"context"
	"testing"
	"time"

	"github.com/violetdestiny/PILLPAL-Backend/internal/medication"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage/models"
)

func newTestGateway(t *testing.T, db *storage.DB, state *State) *Gateway {
	t.Helper()

	doses := storage.NewDoseRepository(db)
	manager := medication.NewManager(
		db,
		storage.NewMedicationRepository(db),
		storage.NewScheduleRepository(db),
		doses,
		nil,
	)

	g := NewGateway(
		storage.NewDeviceRepository(db),
		doses,
		storage.NewSettingsRepository(db),
		state,
		manager,
		nil,
	)
	g.now = func() time.Time { return scanNow }
	return g
}

func TestAlertStatusUnpairedDevice(t *testing.T) {
	db := newTestDB(t)
	g := newTestGateway(t, db, NewState())

	status, err := g.AlertStatus(context.Background(), "ghost-device")
	if err != nil {
		t.Fatalf("AlertStatus() error = %v", err)
	}
	if status.ShouldAlert || status.Sound || status.Vibration || status.LED {
		t.Errorf("unpaired device status = %+v, want all false", status)
	}
}

func TestAlertStatusDueDose(t *testing.T) {
	db := newTestDB(t)
	g := newTestGateway(t, db, NewState())

	instanceID := seedDose(t, db, "user-1", "device-1", scanNow.Add(-10*time.Minute))

	status, err := g.AlertStatus(context.Background(), "device-1")
	if err != nil {
		t.Fatalf("AlertStatus() error = %v", err)
	}
	if !status.ShouldAlert {
		t.Fatal("overdue scheduled dose did not trigger should_alert")
	}
	if !status.Sound || !status.Vibration || !status.LED {
		t.Errorf("channel flags = %+v, want all true when alerting", status)
	}
	if status.InstanceID != instanceID {
		t.Errorf("instance_id = %q, want %q", status.InstanceID, instanceID)
	}
	if status.ScheduledAt == nil {
		t.Error("scheduled_at missing from alerting status")
	}
}

func TestAlertStatusFutureDose(t *testing.T) {
	db := newTestDB(t)
	g := newTestGateway(t, db, NewState())

	seedDose(t, db, "user-1", "device-1", scanNow.Add(time.Hour))

	status, err := g.AlertStatus(context.Background(), "device-1")
	if err != nil {
		t.Fatalf("AlertStatus() error = %v", err)
	}
	if status.ShouldAlert {
		t.Error("future dose triggered should_alert")
	}
}

func TestAlertStatusEarliestInstanceWins(t *testing.T) {
	db := newTestDB(t)
	g := newTestGateway(t, db, NewState())
	ctx := context.Background()

	// Earliest instance is taken; a later overdue scheduled one exists.
	// Resolution looks only at the earliest, so no alert.
	takenID := seedDose(t, db, "user-1", "device-1", scanNow.Add(-2*time.Hour))
	seedDose(t, db, "user-1", "", scanNow.Add(-time.Hour))

	doses := storage.NewDoseRepository(db)
	if err := doses.UpdateStatus(ctx, db, takenID, models.DoseTaken); err != nil {
		t.Fatalf("marking dose taken: %v", err)
	}

	status, err := g.AlertStatus(ctx, "device-1")
	if err != nil {
		t.Fatalf("AlertStatus() error = %v", err)
	}
	if status.ShouldAlert {
		t.Error("should_alert = true, want false when earliest instance is terminal")
	}
}

func TestPollDefaultsAndStoredPreferences(t *testing.T) {
	db := newTestDB(t)
	state := NewState()
	g := newTestGateway(t, db, state)
	ctx := context.Background()

	seedDose(t, db, "user-1", "device-1", scanNow)

	result, err := g.Poll(ctx, "device-1")
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if result.Alert {
		t.Error("alert flag set without a raise")
	}
	if !result.Sound || !result.Vibration || !result.LED {
		t.Errorf("default preferences = %+v, want all channels on", result)
	}

	// Stored preferences override the defaults
	settings := storage.NewSettingsRepository(db)
	err = settings.Upsert(ctx, &models.NotificationSettings{
		UserID: "user-1", SoundEnabled: false, VibrationEnabled: true, LEDEnabled: false,
	})
	if err != nil {
		t.Fatalf("upserting settings: %v", err)
	}
	state.Raise("device-1")

	result, err = g.Poll(ctx, "device-1")
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if !result.Alert {
		t.Error("alert flag not reported after raise")
	}
	if result.Sound || !result.Vibration || result.LED {
		t.Errorf("preferences = %+v, want sound off, vibration on, led off", result)
	}
}

func TestAckClearsFlag(t *testing.T) {
	db := newTestDB(t)
	state := NewState()
	g := newTestGateway(t, db, state)

	state.Raise("device-1")
	g.Ack(context.Background(), "device-1")

	if state.Active("device-1") {
		t.Error("flag still raised after Ack")
	}
}

func TestDeviceAcksSetTerminalStatus(t *testing.T) {
	db := newTestDB(t)
	g := newTestGateway(t, db, NewState())
	ctx := context.Background()

	stopID := seedDose(t, db, "user-1", "device-1", scanNow)
	openID := seedDose(t, db, "user-2", "device-2", scanNow)

	if err := g.StopAlert(ctx, stopID); err != nil {
		t.Fatalf("StopAlert() error = %v", err)
	}
	if err := g.AckOpen(ctx, openID); err != nil {
		t.Fatalf("AckOpen() error = %v", err)
	}

	doses := storage.NewDoseRepository(db)
	stopped, _ := doses.GetByID(ctx, stopID)
	opened, _ := doses.GetByID(ctx, openID)

	if stopped.Status != models.DoseMissed {
		t.Errorf("stop_alert status = %q, want missed", stopped.Status)
	}
	if opened.Status != models.DoseTaken {
		t.Errorf("ack_open status = %q, want taken", opened.Status)
	}
}
