package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desk-reserve/backend/internal/storage"
	"github.com/desk-reserve/backend/internal/storage/models"
	"github.com/desk-reserve/backend/internal/storage/storagetest"
)

func Test_PublishDigest_ListsTodaysConfirmedBookingsWithoutChangingThem(t *testing.T) {
	// setup
	ctx := context.Background()
	repo := storage.NewBookingRepository(storagetest.NewDB(t))
	engine := NewEngine(repo, nil)

	scheduler := NewDigestScheduler(engine, nil, "", time.UTC)
	scheduler.now = func() time.Time { return time.Date(2024, 1, 10, 7, 0, 0, 0, time.UTC) }

	create := func(date, seat, user string) models.Booking {
		t.Helper()
		created, err := engine.CreateBooking(ctx, Request{
			Date:      date,
			StartTime: "09:00",
			EndTime:   "10:00",
			BookType:  models.BookTypeDesk,
			SubType:   seat,
		}, user)
		require.NoError(t, err)
		return created[0]
	}

	// arrange
	past := create("2024-01-09", "D1", "u1")
	today := create("2024-01-10", "D1", "u1")
	cancelled := create("2024-01-10", "D2", "u1")
	_, err := engine.CancelBooking(ctx, cancelled.ID, "u1")
	require.NoError(t, err)

	// act
	digest, err := scheduler.PublishDigest(ctx)

	// assert
	require.NoError(t, err)
	require.Len(t, digest, 1)
	assert.Equal(t, today.ID, digest[0].ID)

	stored, err := repo.GetByID(ctx, past.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, stored.Status)

	// A past day keeps holding its slot
	_, err = engine.CreateBooking(ctx, Request{
		Date:      "2024-01-09",
		StartTime: "11:00",
		EndTime:   "12:00",
		BookType:  models.BookTypeDesk,
		SubType:   "D1",
	}, "u2")
	assert.ErrorIs(t, err, ErrConflict)

	seats, err := engine.ConfirmedSeats(ctx, "", "", "", "2024-01-09")
	require.NoError(t, err)
	assert.Equal(t, []string{"D1"}, seats)
}

func Test_DigestScheduler_StartAndStop(t *testing.T) {
	engine := NewEngine(storage.NewBookingRepository(storagetest.NewDB(t)), nil)
	scheduler := NewDigestScheduler(engine, nil, "@every 1h", nil)

	require.NoError(t, scheduler.Start())
	scheduler.Stop()
}

func Test_DigestScheduler_When_SpecInvalid_FailsToStart(t *testing.T) {
	engine := NewEngine(storage.NewBookingRepository(storagetest.NewDB(t)), nil)
	scheduler := NewDigestScheduler(engine, nil, "not a schedule", nil)

	assert.Error(t, scheduler.Start())
}
