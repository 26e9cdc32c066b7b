package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/desk-reserve/backend/internal/storage/models"
	"github.com/desk-reserve/backend/internal/websocket"
)

// DigestScheduler publishes the confirmed bookings of the current day to the
// subscribers of each floor. It only reads bookings.
type DigestScheduler struct {
	cron        *cron.Cron
	spec        string
	engine      *Engine
	broadcaster *websocket.EventBroadcaster
	loc         *time.Location
	now         func() time.Time
}

// NewDigestScheduler creates a scheduler running on the cron spec (with a
// seconds field). Days are evaluated in loc (local time when nil).
func NewDigestScheduler(engine *Engine, hub *websocket.Hub, spec string, loc *time.Location) *DigestScheduler {
	if spec == "" {
		spec = DefaultDigestSchedule
	}
	if loc == nil {
		loc = time.Local
	}

	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &DigestScheduler{
		cron:        cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		spec:        spec,
		engine:      engine,
		broadcaster: broadcaster,
		loc:         loc,
		now:         time.Now,
	}
}

// DefaultDigestSchedule runs the digest every day at 07:00.
const DefaultDigestSchedule = "0 0 7 * * *"

// Start schedules the digest job.
func (s *DigestScheduler) Start() error {
	log.Println("Starting booking digest scheduler...")

	if _, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.PublishDigest(context.Background()); err != nil {
			log.Printf("Failed to publish booking digest: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling booking digest: %w", err)
	}

	s.cron.Start()
	log.Printf("Booking digest scheduler started (%s)", s.spec)
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *DigestScheduler) Stop() {
	log.Println("Stopping booking digest scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Booking digest scheduler stopped")
}

// PublishDigest broadcasts today's confirmed bookings, one event per floor,
// and returns them.
func (s *DigestScheduler) PublishDigest(ctx context.Context) ([]models.Booking, error) {
	today := s.now().In(s.loc).Format(DateLayout)

	bookings, err := s.engine.GetBookingsByDateRange(ctx, today, today)
	if err != nil {
		return nil, err
	}

	var confirmed []models.Booking
	for _, b := range bookings {
		if b.IsConfirmed() {
			confirmed = append(confirmed, b)
		}
	}
	if len(confirmed) == 0 {
		return nil, nil
	}

	log.Printf("Publishing digest of %d booking(s) for %s", len(confirmed), today)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastDailyDigest(confirmed)
	}

	return confirmed, nil
}
