package alert

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/violetdestiny/PILLPAL-Backend/internal/notify"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage/models"
)

var scanNow = time.Date(2026, time.March, 2, 10, 0, 20, 0, time.UTC)

type recorderPublisher struct {
	mu       sync.Mutex
	commands []string
}

func (r *recorderPublisher) Publish(deviceID, payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, deviceID+":"+payload)
	return nil
}

func (r *recorderPublisher) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commands...)
}

func newTestDB(t *testing.T) *storage.DB {
	t.Helper()

	db, err := storage.NewDB(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	return db
}

// seedDose creates a medication for the user with one dose instance at the
// given time, and optionally an active device pairing.
func seedDose(t *testing.T, db *storage.DB, userID, deviceID string, at time.Time) string {
	t.Helper()
	ctx := context.Background()

	meds := storage.NewMedicationRepository(db)
	doses := storage.NewDoseRepository(db)

	med := &models.Medication{UserID: userID, Name: "Aspirin", StartDate: at}
	if err := meds.Insert(ctx, db, med); err != nil {
		t.Fatalf("seeding medication: %v", err)
	}
	if err := doses.BulkInsert(ctx, db, med.ID, []time.Time{at}); err != nil {
		t.Fatalf("seeding dose: %v", err)
	}

	if deviceID != "" {
		if err := storage.NewDeviceRepository(db).Pair(ctx, deviceID, userID); err != nil {
			t.Fatalf("seeding pairing: %v", err)
		}
	}

	list, err := doses.ListByMed(ctx, med.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("reading seeded dose back: %v", err)
	}
	return list[0].ID
}

func newTestScanner(db *storage.DB, pub notify.Publisher, state *State) *Scanner {
	s := NewScanner(storage.NewDoseRepository(db), state, pub, nil, time.Minute, 30*time.Second)
	s.now = func() time.Time { return scanNow }
	return s
}

func TestTickRaisesAlertOnce(t *testing.T) {
	db := newTestDB(t)
	pub := &recorderPublisher{}
	state := NewState()

	// Scheduled at the top of the current minute
	seedDose(t, db, "user-1", "device-1", scanNow.Truncate(time.Minute))

	scanner := newTestScanner(db, pub, state)
	ctx := context.Background()

	if err := scanner.Tick(ctx); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}

	if !state.Active("device-1") {
		t.Error("alert flag not raised for device-1")
	}
	if got := pub.all(); len(got) != 1 || got[0] != "device-1:"+notify.CmdAlertOn {
		t.Fatalf("published commands = %v, want one ALERT_ON for device-1", got)
	}

	// Second tick in the same minute must not re-alert
	if err := scanner.Tick(ctx); err != nil {
		t.Fatalf("second Tick() error = %v", err)
	}
	if got := pub.all(); len(got) != 1 {
		t.Errorf("published commands after second tick = %v, want still 1", got)
	}
}

func TestTickMatchesCurrentMinuteOnly(t *testing.T) {
	db := newTestDB(t)
	pub := &recorderPublisher{}
	state := NewState()

	minute := scanNow.Truncate(time.Minute)
	seedDose(t, db, "user-1", "device-1", minute.Add(-time.Minute)) // previous minute
	seedDose(t, db, "user-2", "device-2", minute.Add(time.Minute))  // next minute
	seedDose(t, db, "user-3", "device-3", minute.Add(30*time.Second))

	scanner := newTestScanner(db, pub, state)
	if err := scanner.Tick(context.Background()); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}

	if state.Active("device-1") {
		t.Error("past-minute dose raised an alert; skipped minutes are not back-filled")
	}
	if state.Active("device-2") {
		t.Error("future dose raised an alert")
	}
	if !state.Active("device-3") {
		t.Error("dose within the current minute did not raise an alert")
	}
}

func TestTickSkipsUnpairedAndTerminal(t *testing.T) {
	db := newTestDB(t)
	pub := &recorderPublisher{}
	state := NewState()
	ctx := context.Background()

	minute := scanNow.Truncate(time.Minute)

	// Due dose but no pairing
	seedDose(t, db, "user-1", "", minute)

	// Due dose already taken
	instanceID := seedDose(t, db, "user-2", "device-2", minute)
	doses := storage.NewDoseRepository(db)
	if err := doses.UpdateStatus(ctx, db, instanceID, models.DoseTaken); err != nil {
		t.Fatalf("marking dose taken: %v", err)
	}

	scanner := newTestScanner(db, pub, state)
	if err := scanner.Tick(ctx); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}

	if got := pub.all(); len(got) != 0 {
		t.Errorf("published commands = %v, want none", got)
	}
}
