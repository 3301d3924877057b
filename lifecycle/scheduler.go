package lifecycle

import (
	"context"
	"log"
	"time"

	"meal-order-service/models"
)

// Ticker is the slice of the lifecycle store the scheduler drives;
// narrowed to an interface so tests can fake the tick.
type Ticker interface {
	RunTick(now time.Time, loc *time.Location) (models.LifecycleResult, error)
}

// EventPublisher pushes tick summaries to the broker for operator
// visibility; failures are logged, never fatal.
type EventPublisher interface {
	PublishLifecycleEvent(event models.LifecycleEvent) error
}

// Scheduler fires the lifecycle tick once a day at a fixed hour in the
// deployment's default timezone; the tick itself derives each brand's
// local day from its stored settings, so the trigger hour only decides
// when transitions are noticed, not which day they apply to. A failed
// tick is logged and left for the next run; the underlying condition
// persists, so the next run naturally reattempts.
type Scheduler struct {
	store     Ticker
	publisher EventPublisher
	hour      int
	loc       *time.Location
	now       func() time.Time
}

func NewScheduler(store Ticker, publisher EventPublisher, hour int, loc *time.Location) *Scheduler {
	return &Scheduler{store: store, publisher: publisher, hour: hour, loc: loc, now: time.Now}
}

// Run blocks until ctx is cancelled, firing the tick daily.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := nextRunAfter(s.now(), s.hour, s.loc)
		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.fire()
		}
	}
}

// Fire runs one tick immediately; shared by the timer loop and the manual
// admin trigger.
func (s *Scheduler) Fire() (models.LifecycleResult, error) {
	now := s.now()
	result, err := s.store.RunTick(now, s.loc)
	if err != nil {
		return result, err
	}
	if result.ExpiredCount > 0 || result.ActivatedCount > 0 {
		log.Printf("Lifecycle tick: expired=%d activated=%d", result.ExpiredCount, result.ActivatedCount)
	}
	if s.publisher != nil {
		event := models.LifecycleEvent{
			ExpiredCount:   result.ExpiredCount,
			ActivatedCount: result.ActivatedCount,
			Occurred:       now.UTC(),
		}
		if err := s.publisher.PublishLifecycleEvent(event); err != nil {
			log.Printf("Failed to publish lifecycle event: %v", err)
		}
	}
	return result, nil
}

func (s *Scheduler) fire() {
	if _, err := s.Fire(); err != nil {
		// Left for the next scheduled run; the queries re-evaluate
		// against current state each time.
		log.Printf("Lifecycle tick failed, will retry next run: %v", err)
	}
}

// nextRunAfter returns the next occurrence of the configured local hour
// strictly after now.
func nextRunAfter(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
