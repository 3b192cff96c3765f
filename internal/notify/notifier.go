package notify

import (
	"context"
	"time"

	"care-companion-go/internal/domain/schedule"
	"care-companion-go/pkg/logger"
)

// Schedules is the slice of the schedule service the notifier reads from.
type Schedules interface {
	ElderlyIDs(ctx context.Context) ([]string, error)
	ListUpcoming(ctx context.Context, elderlyID string, limit int) ([]Schedule, error)
}

// Schedule aliases the domain record so callers wire the service directly.
type Schedule = schedule.Schedule

// Notifier periodically scans upcoming schedules and dispatches reminders for
// those whose time has arrived. Dispatch is a structured log line; push
// delivery sits behind a gateway this service does not own.
type Notifier struct {
	schedules Schedules
	interval  time.Duration
	window    time.Duration
	log       logger.Logger
	now       func() time.Time

	dispatched map[string]struct{}
}

func New(schedules Schedules, interval time.Duration, log logger.Logger) *Notifier {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Notifier{
		schedules:  schedules,
		interval:   interval,
		window:     interval,
		log:        log,
		now:        time.Now,
		dispatched: make(map[string]struct{}),
	}
}

// Start runs the scan loop until ctx is canceled.
func (n *Notifier) Start(ctx context.Context) {
	n.log.Info("notifier started", "interval", n.interval.String())
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			n.log.Info("notifier stopped")
			return
		case <-ticker.C:
			n.scan(ctx)
		}
	}
}

func (n *Notifier) scan(ctx context.Context) {
	elderlyIDs, err := n.schedules.ElderlyIDs(ctx)
	if err != nil {
		n.log.InternalError("notifier: listing elderly ids failed", err)
		return
	}

	for _, elderlyID := range elderlyIDs {
		upcoming, err := n.schedules.ListUpcoming(ctx, elderlyID, 0)
		if err != nil {
			n.log.InternalError("notifier: listing upcoming schedules failed", err, "elderly_id", elderlyID)
			continue
		}
		for _, sched := range upcoming {
			if n.due(sched) {
				n.dispatch(sched)
			}
		}
	}
}

// due reports whether the schedule falls inside the next scan window and has
// not been dispatched yet.
func (n *Notifier) due(sched Schedule) bool {
	if _, seen := n.dispatched[sched.ID]; seen {
		return false
	}
	at := time.Unix(sched.ScheduledAt, 0)
	return !at.After(n.now().Add(n.window))
}

func (n *Notifier) dispatch(sched Schedule) {
	n.dispatched[sched.ID] = struct{}{}
	n.log.Info("schedule reminder dispatched",
		"schedule_id", sched.ID,
		"elderly_id", sched.ElderlyID,
		"category", string(sched.Category),
		"title", sched.Title,
		"scheduled_at", sched.ScheduledAt,
	)
}
