package storage

import (
	"context"
	"testing"
	"time"

	"github.com/violetdestiny/PILLPAL-Backend/internal/storage/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	return db
}

func seedMedication(t *testing.T, db *DB, userID string) string {
	t.Helper()

	med := &models.Medication{UserID: userID, Name: "Aspirin", StartDate: time.Now().UTC()}
	if err := NewMedicationRepository(db).Insert(context.Background(), db, med); err != nil {
		t.Fatalf("seeding medication: %v", err)
	}
	return med.ID
}

func TestDeleteFutureByMedBoundary(t *testing.T) {
	db := newTestDB(t)
	doses := NewDoseRepository(db)
	ctx := context.Background()

	medID := seedMedication(t, db, "user-1")
	cutoff := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	err := doses.BulkInsert(ctx, db, medID, []time.Time{
		cutoff.Add(-time.Minute), // strictly before, kept
		cutoff,                   // at the cutoff, removed
		cutoff.Add(time.Minute),  // after, removed
	})
	if err != nil {
		t.Fatalf("seeding doses: %v", err)
	}

	if err := doses.DeleteFutureByMed(ctx, db, medID, cutoff); err != nil {
		t.Fatalf("DeleteFutureByMed() error = %v", err)
	}

	remaining, err := doses.ListByMed(ctx, medID)
	if err != nil {
		t.Fatalf("listing doses: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected 1 remaining instance, got %d", len(remaining))
	}
	if !remaining[0].ScheduledAt.Before(cutoff) {
		t.Errorf("remaining instance at %v, want before cutoff %v", remaining[0].ScheduledAt, cutoff)
	}
}

func TestEarliestByUserIgnoresStatus(t *testing.T) {
	db := newTestDB(t)
	doses := NewDoseRepository(db)
	ctx := context.Background()

	medID := seedMedication(t, db, "user-1")
	base := time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

	if err := doses.BulkInsert(ctx, db, medID, []time.Time{base, base.Add(time.Hour)}); err != nil {
		t.Fatalf("seeding doses: %v", err)
	}

	earliest, err := doses.EarliestByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("EarliestByUser() error = %v", err)
	}
	if earliest == nil || !earliest.ScheduledAt.Equal(base) {
		t.Fatalf("earliest = %+v, want instance at %v", earliest, base)
	}

	// A terminal status does not change which instance is earliest
	if err := doses.UpdateStatus(ctx, db, earliest.ID, models.DoseTaken); err != nil {
		t.Fatalf("updating status: %v", err)
	}
	again, err := doses.EarliestByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("EarliestByUser() error = %v", err)
	}
	if again.ID != earliest.ID || again.Status != models.DoseTaken {
		t.Errorf("earliest after update = %+v, want same instance with status taken", again)
	}

	// No instances for an unknown user
	none, err := doses.EarliestByUser(ctx, "user-2")
	if err != nil {
		t.Fatalf("EarliestByUser() error = %v", err)
	}
	if none != nil {
		t.Errorf("earliest for unknown user = %+v, want nil", none)
	}
}

func TestPairingLifecycle(t *testing.T) {
	db := newTestDB(t)
	devices := NewDeviceRepository(db)
	ctx := context.Background()

	if err := devices.Pair(ctx, "device-1", "user-1"); err != nil {
		t.Fatalf("Pair() error = %v", err)
	}

	userID, err := devices.GetUserForDevice(ctx, "device-1")
	if err != nil || userID != "user-1" {
		t.Fatalf("GetUserForDevice() = (%q, %v), want user-1", userID, err)
	}

	if err := devices.Unpair(ctx, "device-1", "user-1"); err != nil {
		t.Fatalf("Unpair() error = %v", err)
	}
	userID, err = devices.GetUserForDevice(ctx, "device-1")
	if err != nil || userID != "" {
		t.Fatalf("GetUserForDevice() after unpair = (%q, %v), want empty", userID, err)
	}

	// Re-pairing reactivates the existing row
	if err := devices.Pair(ctx, "device-1", "user-1"); err != nil {
		t.Fatalf("re-Pair() error = %v", err)
	}
	userID, _ = devices.GetUserForDevice(ctx, "device-1")
	if userID != "user-1" {
		t.Errorf("GetUserForDevice() after re-pair = %q, want user-1", userID)
	}

	var rows int
	db.QueryRowContext(ctx, "SELECT COUNT(*) FROM device_pairings WHERE device_id = ?", "device-1").Scan(&rows)
	if rows != 1 {
		t.Errorf("pairing rows = %d, want 1", rows)
	}
}

func TestListDueWindow(t *testing.T) {
	db := newTestDB(t)
	doses := NewDoseRepository(db)
	ctx := context.Background()

	medID := seedMedication(t, db, "user-1")
	if err := NewDeviceRepository(db).Pair(ctx, "device-1", "user-1"); err != nil {
		t.Fatalf("seeding pairing: %v", err)
	}

	from := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	until := from.Add(time.Minute)

	err := doses.BulkInsert(ctx, db, medID, []time.Time{
		from.Add(-time.Second), // before the window
		from,                   // inclusive lower bound
		until.Add(-time.Second),
		until, // exclusive upper bound
	})
	if err != nil {
		t.Fatalf("seeding doses: %v", err)
	}

	due, err := doses.ListDue(ctx, from, until)
	if err != nil {
		t.Fatalf("ListDue() error = %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 due doses in [from, until), got %d", len(due))
	}
	for _, d := range due {
		if d.DeviceID != "device-1" || d.UserID != "user-1" {
			t.Errorf("due dose join = %+v, want device-1/user-1", d)
		}
	}
}
