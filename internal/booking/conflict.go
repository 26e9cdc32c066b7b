package booking

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desk-reserve/backend/internal/storage"
	"github.com/desk-reserve/backend/internal/storage/models"
)

// ConflictChecker detects booking conflicts.
//
// Two policies exist. Creation treats any confirmed booking of the same
// resource on the same day as a conflict, regardless of times. Availability
// checks use true interval overlap. Cancelled bookings never conflict.
type ConflictChecker struct {
	// countForSlot counts confirmed bookings of one resource on one day
	countForSlot func(ctx context.Context, tx *sql.Tx, date string, bookType models.BookType, subType string) (int, error)

	// list returns the bookings matching a filter
	list func(ctx context.Context, f storage.BookingFilter) ([]models.Booking, error)
}

// NewConflictChecker creates a conflict checker backed by the booking repository.
func NewConflictChecker(repo *storage.BookingRepository) *ConflictChecker {
	return &ConflictChecker{
		countForSlot: repo.CountConfirmedForSlot,
		list:         repo.List,
	}
}

// CheckDate returns a *ConflictError if the resource is already booked on date.
func (c *ConflictChecker) CheckDate(ctx context.Context, tx *sql.Tx, date string, bookType models.BookType, subType string) error {
	count, err := c.countForSlot(ctx, tx, date, bookType, subType)
	if err != nil {
		return fmt.Errorf("checking conflicts: %w", err)
	}
	if count > 0 {
		return &ConflictError{Date: date, BookType: bookType, SubType: subType}
	}
	return nil
}

// ActiveBookings returns the confirmed bookings of subType on date, earliest first.
func (c *ConflictChecker) ActiveBookings(ctx context.Context, subType, date string) ([]models.Booking, error) {
	return c.list(ctx, storage.BookingFilter{
		SubType:   subType,
		Status:    models.BookingStatusConfirmed,
		DateFrom:  date,
		DateTo:    date,
		Ascending: true,
	})
}

// IsBookedForTimeSlot returns true if a confirmed booking of subType on date
// overlaps [startTime, endTime).
func (c *ConflictChecker) IsBookedForTimeSlot(ctx context.Context, subType, date, startTime, endTime string) (bool, error) {
	active, err := c.ActiveBookings(ctx, subType, date)
	if err != nil {
		return false, fmt.Errorf("checking time slot: %w", err)
	}

	for _, b := range active {
		if Overlaps(b.StartTime, b.EndTime, startTime, endTime) {
			return true, nil
		}
	}
	return false, nil
}

// Overlaps applies the half-open interval test used for availability checks.
// Times are HH:mm strings, which order lexically.
func Overlaps(existingStart, existingEnd, start, end string) bool {
	return !(existingEnd <= start || existingStart >= end)
}
