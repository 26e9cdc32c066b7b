// Package booking implements desk and resource reservations: recurrence
// expansion, conflict detection, cancellation and booking queries.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/desk-reserve/backend/internal/storage"
	"github.com/desk-reserve/backend/internal/storage/models"
	"github.com/desk-reserve/backend/internal/websocket"
)

// Request is a booking request as received from clients.
type Request struct {
	ID             string          `json:"id,omitempty"`
	Date           string          `json:"date"`
	StartTime      string          `json:"startTime"`
	EndTime        string          `json:"endTime"`
	BookType       models.BookType `json:"bookType"`
	SubType        string          `json:"subType"`
	OfficeLocation string          `json:"officeLocation"`
	Building       string          `json:"building"`
	Floor          string          `json:"floor"`
	Recurrence     *Recurrence     `json:"recurrence,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	UserID         string          `json:"userId,omitempty"`
}

// Query selects bookings for GetBookings. The first non-empty field wins,
// in the order UserID, SeatID, Date, Status.
type Query struct {
	UserID string
	SeatID string
	Date   string
	Status models.BookingStatus
}

// Dashboard groups a user's bookings around a reference day.
type Dashboard struct {
	Today    []models.Booking `json:"today"`
	Upcoming []models.Booking `json:"upcoming"`
	History  []models.Booking `json:"history"`
}

// Engine creates, cancels and queries bookings.
type Engine struct {
	bookings    *storage.BookingRepository
	conflicts   *ConflictChecker
	broadcaster *websocket.EventBroadcaster
}

// NewEngine creates a booking engine. hub may be nil.
func NewEngine(bookings *storage.BookingRepository, hub *websocket.Hub) *Engine {
	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Engine{
		bookings:    bookings,
		conflicts:   NewConflictChecker(bookings),
		broadcaster: broadcaster,
	}
}

// CreateBooking materializes one confirmed booking per occurrence of the
// request. All occurrences are written in one transaction: a conflict on any
// date rejects the whole request and nothing is stored.
func (e *Engine) CreateBooking(ctx context.Context, req Request, userID string) ([]models.Booking, error) {
	startTime, endTime, err := parseTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if err := validateResource(req); err != nil {
		return nil, err
	}

	dates, err := ExpandDates(req.Date, req.Recurrence)
	if err != nil {
		return nil, err
	}

	endDate, customDates, err := normalizedRecurrence(req.Recurrence)
	if err != nil {
		return nil, err
	}

	baseID := req.ID
	if baseID == "" {
		baseID = uuid.NewString()
	}

	created := make([]models.Booking, 0, len(dates))
	err = e.bookings.Transaction(ctx, func(tx *sql.Tx) error {
		for _, date := range dates {
			if err := e.conflicts.CheckDate(ctx, tx, date, req.BookType, req.SubType); err != nil {
				return err
			}

			b := models.Booking{
				ID:             baseID + "_" + date,
				Date:           date,
				StartTime:      startTime,
				EndTime:        endTime,
				BookType:       req.BookType,
				SubType:        req.SubType,
				OfficeLocation: req.OfficeLocation,
				Building:       req.Building,
				Floor:          req.Floor,
				RecurrenceType: req.Recurrence.kind(),
				EndDate:        endDate,
				CustomDates:    customDates,
				Status:         models.BookingStatusConfirmed,
				UserID:         userID,
				Notes:          req.Notes,
			}

			if err := e.bookings.Insert(ctx, tx, &b); err != nil {
				switch {
				case errors.Is(err, storage.ErrDuplicate):
					// Lost a race against a concurrent request for the same slot
					return &ConflictError{Date: date, BookType: req.BookType, SubType: req.SubType}
				case errors.Is(err, storage.ErrIDInUse):
					return validationErrorf("booking id %s is already in use", b.ID)
				}
				return err
			}
			created = append(created, b)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrConflict) {
			log.Printf("Failed to create booking for user %s, %s %s: %v", userID, req.BookType, req.SubType, err)
		}
		return nil, err
	}

	log.Printf("Created %d booking(s) for user %s, %s %s", len(created), userID, req.BookType, req.SubType)

	if e.broadcaster != nil {
		e.broadcaster.BroadcastBookingsCreated(created)
	}

	return created, nil
}

// CancelBooking releases a booking owned by userID.
func (e *Engine) CancelBooking(ctx context.Context, bookingID, userID string) (*models.Booking, error) {
	b, err := e.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, bookingID)
	}
	if !b.OwnedBy(userID) {
		return nil, fmt.Errorf("%w: booking %s belongs to another user", ErrForbidden, bookingID)
	}

	if err := e.bookings.UpdateStatus(ctx, b.ID, models.BookingStatusCancelled); err != nil {
		log.Printf("Failed to cancel booking %s: %v", b.ID, err)
		return nil, err
	}

	updated, err := e.bookings.GetByID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, bookingID)
	}

	log.Printf("Cancelled booking %s for user %s", updated.ID, userID)

	if e.broadcaster != nil {
		e.broadcaster.BroadcastBookingCancelled(*updated)
	}

	return updated, nil
}

// GetBookingByID returns a booking, or nil if it does not exist.
func (e *Engine) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	return e.bookings.GetByID(ctx, id)
}

// GetBookings lists bookings for the first filter set in q, newest first.
// A date filter lists that day in ascending order. No filter lists everything.
func (e *Engine) GetBookings(ctx context.Context, q Query) ([]models.Booking, error) {
	var f storage.BookingFilter

	switch {
	case q.UserID != "":
		f.UserID = q.UserID
	case q.SeatID != "":
		f.SubType = q.SeatID
	case q.Date != "":
		date, err := normalizeDate(q.Date)
		if err != nil {
			return nil, err
		}
		f.DateFrom, f.DateTo, f.Ascending = date, date, true
	case q.Status != "":
		f.Status = q.Status
	}

	return e.bookings.List(ctx, f)
}

// GetBookingsByLocation lists the bookings of a floor on one day.
func (e *Engine) GetBookingsByLocation(ctx context.Context, office, building, floor, date string) ([]models.Booking, error) {
	day, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}

	return e.bookings.List(ctx, storage.BookingFilter{
		OfficeLocation: office,
		Building:       building,
		Floor:          floor,
		DateFrom:       day,
		DateTo:         day,
		Ascending:      true,
	})
}

// GetBookingsByDateRange lists bookings between two days inclusive, oldest first.
func (e *Engine) GetBookingsByDateRange(ctx context.Context, from, to string) ([]models.Booking, error) {
	start, end, err := normalizeRange(from, to)
	if err != nil {
		return nil, err
	}

	return e.bookings.List(ctx, storage.BookingFilter{DateFrom: start, DateTo: end, Ascending: true})
}

// GetBookingsByUserAndDateRange lists a user's bookings between two days
// inclusive, newest first.
func (e *Engine) GetBookingsByUserAndDateRange(ctx context.Context, userID, from, to string) ([]models.Booking, error) {
	start, end, err := normalizeRange(from, to)
	if err != nil {
		return nil, err
	}

	return e.bookings.List(ctx, storage.BookingFilter{UserID: userID, DateFrom: start, DateTo: end})
}

// GetActiveBookingsBySeatAndDate lists the confirmed bookings of a seat on a day.
func (e *Engine) GetActiveBookingsBySeatAndDate(ctx context.Context, seatID, date string) ([]models.Booking, error) {
	day, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}

	return e.conflicts.ActiveBookings(ctx, seatID, day)
}

// IsSeatBookedForTimeSlot reports whether a confirmed booking of the seat
// overlaps [start, end) on date.
func (e *Engine) IsSeatBookedForTimeSlot(ctx context.Context, seatID, date, start, end string) (bool, error) {
	day, err := normalizeDate(date)
	if err != nil {
		return false, err
	}
	startTime, endTime, err := parseTimeRange(start, end)
	if err != nil {
		return false, err
	}

	return e.conflicts.IsBookedForTimeSlot(ctx, seatID, day, startTime, endTime)
}

// ConfirmedSeats returns the sub-resource ids with a confirmed booking on a
// floor for one day.
func (e *Engine) ConfirmedSeats(ctx context.Context, office, building, floor, date string) ([]string, error) {
	bookings, err := e.GetBookingsByLocation(ctx, office, building, floor, date)
	if err != nil {
		return nil, err
	}

	var seats []string
	for _, b := range bookings {
		if b.IsConfirmed() {
			seats = append(seats, b.SubType)
		}
	}
	return seats, nil
}

// Dashboard returns a user's bookings for today, the next month and the
// previous month.
func (e *Engine) Dashboard(ctx context.Context, userID string, today time.Time) (*Dashboard, error) {
	day := func(t time.Time) string { return t.Format(DateLayout) }

	todays, err := e.GetBookingsByUserAndDateRange(ctx, userID, day(today), day(today))
	if err != nil {
		return nil, err
	}
	upcoming, err := e.GetBookingsByUserAndDateRange(ctx, userID, day(today.AddDate(0, 0, 1)), day(today.AddDate(0, 1, 0)))
	if err != nil {
		return nil, err
	}
	history, err := e.GetBookingsByUserAndDateRange(ctx, userID, day(today.AddDate(0, -1, 0)), day(today.AddDate(0, 0, -1)))
	if err != nil {
		return nil, err
	}

	return &Dashboard{Today: todays, Upcoming: upcoming, History: history}, nil
}

func parseTimeRange(start, end string) (string, string, error) {
	startTime, err := ParseTime(start)
	if err != nil {
		return "", "", validationErrorf("invalid startTime %q", start)
	}
	endTime, err := ParseTime(end)
	if err != nil {
		return "", "", validationErrorf("invalid endTime %q", end)
	}
	if !endTime.After(startTime) {
		return "", "", validationErrorf("endTime must be after startTime")
	}
	return startTime.Format(TimeLayout), endTime.Format(TimeLayout), nil
}

func validateResource(req Request) error {
	if !req.BookType.Valid() {
		return validationErrorf("bookType must be DESK or RESOURCE")
	}
	if strings.TrimSpace(req.SubType) == "" {
		return validationErrorf("subType is required")
	}
	if req.Recurrence != nil && !req.Recurrence.Type.Valid() {
		return validationErrorf("unknown recurrence type %q", req.Recurrence.Type)
	}
	return nil
}

// normalizedRecurrence returns the end date and custom dates stored on every
// occurrence row.
func normalizedRecurrence(rec *Recurrence) (*string, []string, error) {
	if rec == nil {
		return nil, nil, nil
	}

	var endDate *string
	if rec.EndDate != "" {
		d, err := normalizeDate(rec.EndDate)
		if err != nil {
			return nil, nil, err
		}
		endDate = &d
	}

	var customDates []string
	for _, s := range rec.CustomDates {
		d, err := normalizeDate(s)
		if err != nil {
			return nil, nil, err
		}
		customDates = append(customDates, d)
	}

	return endDate, customDates, nil
}

func normalizeDate(s string) (string, error) {
	d, err := ParseDate(s)
	if err != nil {
		return "", validationErrorf("invalid date %q", s)
	}
	return d.Format(DateLayout), nil
}

func normalizeRange(from, to string) (string, string, error) {
	start, err := normalizeDate(from)
	if err != nil {
		return "", "", err
	}
	end, err := normalizeDate(to)
	if err != nil {
		return "", "", err
	}
	return start, end, nil
}
