// Package medication orchestrates the lifecycle of medications and their
// generated dose instances.
package medication

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/violetdestiny/PILLPAL-Backend/internal/metrics"
	"github.com/violetdestiny/PILLPAL-Backend/internal/schedule"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage/models"
	"github.com/violetdestiny/PILLPAL-Backend/internal/websocket"
)

// Manager orchestrates create/update/delete of a medication's schedule:
// it persists the rule and times, expands the rule into dose instances over
// the forward horizon, and keeps the stored instances reconciled with
// replace-future-only semantics.
type Manager struct {
	db          *storage.DB
	meds        *storage.MedicationRepository
	schedules   *storage.ScheduleRepository
	doses       *storage.DoseRepository
	broadcaster *websocket.EventBroadcaster
	now         func() time.Time
}

// NewManager creates a new schedule manager. The hub may be nil, in which
// case no events are broadcast.
func NewManager(
	db *storage.DB,
	meds *storage.MedicationRepository,
	schedules *storage.ScheduleRepository,
	doses *storage.DoseRepository,
	hub *websocket.Hub,
) *Manager {
	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Manager{
		db:          db,
		meds:        meds,
		schedules:   schedules,
		doses:       doses,
		broadcaster: broadcaster,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Input is the submitted shape of a medication plus its schedule spec.
type Input struct {
	Name  string
	Notes *string
	Spec  schedule.Spec
}

// Create registers a new medication for a user, persists its schedule rule
// and times, and materializes dose instances over the forward horizon.
// Everything happens in one transaction; a failure leaves no orphan rows.
func (m *Manager) Create(ctx context.Context, userID string, in Input) (string, error) {
	if strings.TrimSpace(in.Name) == "" {
		return "", &schedule.ValidationError{Field: "name", Reason: "required"}
	}

	rule, times, err := in.Spec.Parse()
	if err != nil {
		return "", err
	}

	now := m.now()
	today := schedule.DateOf(now)
	occurrences := schedule.Expand(rule, times, schedule.HorizonDays, today)

	var medID string
	err = m.db.Transaction(func(tx *sql.Tx) error {
		med := &models.Medication{
			UserID:    userID,
			Name:      in.Name,
			Notes:     in.Notes,
			StartDate: today,
		}
		if err := m.meds.Insert(ctx, tx, med); err != nil {
			return err
		}
		medID = med.ID

		ruleRow := ruleRowFrom(med.ID, rule, in.Spec.LeadMinutes)
		if err := m.schedules.InsertRule(ctx, tx, ruleRow); err != nil {
			return err
		}

		if err := m.schedules.ReplaceTimes(ctx, tx, ruleRow.ID, times); err != nil {
			return err
		}

		return m.doses.BulkInsert(ctx, tx, med.ID, occurrences)
	})
	if err != nil {
		return "", fmt.Errorf("creating medication schedule: %w", err)
	}

	metrics.DosesGeneratedTotal.Add(float64(len(occurrences)))

	if m.broadcaster != nil {
		m.broadcaster.BroadcastMedicationChanged(medID, "created")
	}

	return medID, nil
}

// Update edits a medication's details and schedule, then regenerates its
// future dose instances. Instances scheduled before "now" at edit time, and
// their audit events, are never touched: history is immutable once time has
// passed. Re-running Update with an unchanged spec leaves the future set
// unchanged in content.
func (m *Manager) Update(ctx context.Context, userID, medID string, in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return &schedule.ValidationError{Field: "name", Reason: "required"}
	}

	rule, times, err := in.Spec.Parse()
	if err != nil {
		return err
	}

	med, err := m.meds.GetByID(ctx, medID, userID)
	if err != nil {
		return fmt.Errorf("loading medication: %w", err)
	}
	if med == nil {
		return ErrNotFound
	}

	now := m.now()
	today := schedule.DateOf(now)

	// Expansion covers the full horizon from today, but only occurrences
	// at or after "now" are inserted: the delete below keeps everything
	// earlier, so inserting today's already-past times would duplicate them.
	var occurrences []time.Time
	for _, at := range schedule.Expand(rule, times, schedule.HorizonDays, today) {
		if !at.Before(now) {
			occurrences = append(occurrences, at)
		}
	}

	err = m.db.Transaction(func(tx *sql.Tx) error {
		if err := m.meds.UpdateDetails(ctx, tx, medID, userID, in.Name, in.Notes); err != nil {
			return err
		}

		// The rule may be absent for medications created before rules were
		// mandatory; upsert to be safe.
		ruleRow, err := m.schedules.GetRuleByMed(ctx, tx, medID)
		if err != nil {
			return err
		}
		if ruleRow == nil {
			ruleRow = ruleRowFrom(medID, rule, in.Spec.LeadMinutes)
			if err := m.schedules.InsertRule(ctx, tx, ruleRow); err != nil {
				return err
			}
		} else {
			applyRule(ruleRow, rule, in.Spec.LeadMinutes)
			if err := m.schedules.UpdateRule(ctx, tx, ruleRow); err != nil {
				return err
			}
		}

		if err := m.schedules.ReplaceTimes(ctx, tx, ruleRow.ID, times); err != nil {
			return err
		}

		if err := m.doses.DeleteFutureByMed(ctx, tx, medID, now); err != nil {
			return err
		}

		return m.doses.BulkInsert(ctx, tx, medID, occurrences)
	})
	if err != nil {
		return fmt.Errorf("updating medication schedule: %w", err)
	}

	metrics.DosesGeneratedTotal.Add(float64(len(occurrences)))

	if m.broadcaster != nil {
		m.broadcaster.BroadcastMedicationChanged(medID, "updated")
	}

	return nil
}

// Delete removes a medication and every dependent row in dependency order:
// dose events, dose instances, times-of-day, schedule rules, compartment
// assignments, then the medication itself.
func (m *Manager) Delete(ctx context.Context, userID, medID string) error {
	med, err := m.meds.GetByID(ctx, medID, userID)
	if err != nil {
		return fmt.Errorf("loading medication: %w", err)
	}
	if med == nil {
		return ErrNotFound
	}

	err = m.db.Transaction(func(tx *sql.Tx) error {
		if err := m.doses.DeleteByMed(ctx, tx, medID); err != nil {
			return err
		}
		if err := m.schedules.DeleteTimesByMed(ctx, tx, medID); err != nil {
			return err
		}
		if err := m.schedules.DeleteRulesByMed(ctx, tx, medID); err != nil {
			return err
		}
		if err := m.meds.DeleteCompartmentsByMed(ctx, tx, medID); err != nil {
			return err
		}
		return m.meds.Delete(ctx, tx, medID, userID)
	})
	if err != nil {
		return fmt.Errorf("deleting medication: %w", err)
	}

	if m.broadcaster != nil {
		m.broadcaster.BroadcastMedicationChanged(medID, "deleted")
	}

	return nil
}

// MarkDose sets a dose instance's status to taken or missed and appends a
// best-effort audit event. The status change is the source of truth; a
// failed audit write is logged and does not roll it back. Writes are
// last-write-wins: a terminal status can be overwritten by a later ack.
func (m *Manager) MarkDose(ctx context.Context, instanceID, status, source string) error {
	if status != models.DoseTaken && status != models.DoseMissed {
		return &schedule.ValidationError{Field: "status", Reason: "must be taken or missed"}
	}

	dose, err := m.doses.GetByID(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("loading dose instance: %w", err)
	}
	if dose == nil {
		return ErrDoseNotFound
	}

	if err := m.doses.UpdateStatus(ctx, m.db, instanceID, status); err != nil {
		return fmt.Errorf("marking dose: %w", err)
	}

	if err := m.doses.InsertEvent(ctx, instanceID, "ack_"+status, source); err != nil {
		log.Printf("Failed to record dose event for %s: %v", instanceID, err)
	}

	if m.broadcaster != nil {
		m.broadcaster.BroadcastDoseStatusChanged(instanceID, dose.MedID, dose.Status, status, source)
	}

	return nil
}

func ruleRowFrom(medID string, rule schedule.Rule, leadMinutes int) *models.ScheduleRule {
	row := &models.ScheduleRule{
		MedID:       medID,
		LeadMinutes: leadMinutes,
	}
	applyRule(row, rule, leadMinutes)
	return row
}

func applyRule(row *models.ScheduleRule, rule schedule.Rule, leadMinutes int) {
	row.RepeatType = rule.RepeatType
	row.LeadMinutes = leadMinutes

	row.DayMask = nil
	if rule.DayMask != "" {
		mask := rule.DayMask
		row.DayMask = &mask
	}
	row.CustomStart = rule.CustomStart
	row.CustomEnd = rule.CustomEnd
}
