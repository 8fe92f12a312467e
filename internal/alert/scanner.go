package alert

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/violetdestiny/PILLPAL-Backend/internal/metrics"
	"github.com/violetdestiny/PILLPAL-Backend/internal/notify"
	"github.com/violetdestiny/PILLPAL-Backend/internal/storage"
	"github.com/violetdestiny/PILLPAL-Backend/internal/websocket"
)

// Scanner periodically checks for dose instances that have come due and
// raises alert flags on the paired devices. Each tick is independent; a
// failed tick is logged and the next one proceeds normally.
type Scanner struct {
	doses       *storage.DoseRepository
	state       *State
	publisher   notify.Publisher
	broadcaster *websocket.EventBroadcaster
	interval    time.Duration
	tickTimeout time.Duration
	now         func() time.Time

	cron *cron.Cron
}

// NewScanner creates a due-dose scanner. The hub may be nil, in which case
// no events are broadcast to app clients.
func NewScanner(
	doses *storage.DoseRepository,
	state *State,
	publisher notify.Publisher,
	hub *websocket.Hub,
	interval, tickTimeout time.Duration,
) *Scanner {
	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Scanner{
		doses:       doses,
		state:       state,
		publisher:   publisher,
		broadcaster: broadcaster,
		interval:    interval,
		tickTimeout: tickTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Start begins the periodic scan. Call Stop to shut it down.
func (s *Scanner) Start() error {
	s.cron = cron.New()

	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.tickTimeout)
		defer cancel()

		if err := s.Tick(ctx); err != nil {
			metrics.ScanTicksTotal.WithLabelValues(metrics.ScanResultError).Inc()
			log.Printf("Alert scan failed: %v", err)
			return
		}
		metrics.ScanTicksTotal.WithLabelValues(metrics.ScanResultOK).Inc()
	})
	if err != nil {
		return fmt.Errorf("scheduling alert scan: %w", err)
	}

	s.cron.Start()
	log.Printf("Alert scanner started (interval: %s)", s.interval)
	return nil
}

// Stop halts the periodic scan and waits for a running tick to finish.
func (s *Scanner) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Tick runs one scan pass: it finds scheduled dose instances whose time
// falls within the current minute and raises the alert flag on each owning
// user's paired device. A device whose flag is already raised is skipped,
// so a dose spanning multiple ticks alerts once.
func (s *Scanner) Tick(ctx context.Context) error {
	from := s.now().Truncate(time.Minute)
	until := from.Add(time.Minute)

	due, err := s.doses.ListDue(ctx, from, until)
	if err != nil {
		return fmt.Errorf("listing due doses: %w", err)
	}

	for _, d := range due {
		if !s.state.Raise(d.DeviceID) {
			continue
		}

		metrics.AlertsRaisedTotal.Inc()
		log.Printf("Alert raised for device %s (instance %s, scheduled %s)",
			d.DeviceID, d.InstanceID, d.ScheduledAt.Format(time.RFC3339))

		if err := s.publisher.Publish(d.DeviceID, notify.CmdAlertOn); err != nil {
			log.Printf("Failed to publish alert to device %s: %v", d.DeviceID, err)
		}

		if s.broadcaster != nil {
			s.broadcaster.BroadcastAlertRaised(d.DeviceID, d.InstanceID, d.ScheduledAt)
		}
	}

	return nil
}
