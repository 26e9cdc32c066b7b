package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/desk-reserve/backend/internal/api/middleware"
	"github.com/desk-reserve/backend/internal/booking"
	"github.com/desk-reserve/backend/internal/storage"
	"github.com/desk-reserve/backend/internal/storage/models"
)

// CreateBookingResponse is the payload of a successful booking.
type CreateBookingResponse struct {
	Bookings      []BookingResponse `json:"bookings"`
	TotalBookings int               `json:"totalBookings"`
	BookingDates  []string          `json:"bookingDates"`
}

// CreateBooking books a desk or resource for one or more dates.
func CreateBooking(engine *booking.Engine, users *storage.UserRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req booking.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		ctx := r.Context()
		userID := requestUserID(r, req.UserID)

		created, err := engine.CreateBooking(ctx, req, userID)
		if err != nil {
			writeBookingError(w, err, "create booking")
			return
		}

		list := newBookingEnricher(users).list(ctx, created)
		dates := make([]string, 0, len(created))
		for _, b := range created {
			dates = append(dates, b.Date)
		}

		writeSuccess(w, "Booking successful", CreateBookingResponse{
			Bookings:      list.Bookings,
			TotalBookings: len(created),
			BookingDates:  dates,
		})
	}
}

// ListBookings lists bookings. from and to select a date range (of one user
// when userId is also set); seatId with date lists the seat's confirmed
// bookings of that day. Otherwise the first of userId, seatId, date or status
// given in the query string filters the listing.
func ListBookings(engine *booking.Engine, users *storage.UserRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query := booking.Query{
			UserID: q.Get("userId"),
			SeatID: q.Get("seatId"),
			Date:   q.Get("date"),
			Status: models.BookingStatus(q.Get("status")),
		}
		if query.Status != "" && !query.Status.Valid() {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Unknown booking status")
			return
		}

		from, to := q.Get("from"), q.Get("to")
		if (from == "") != (to == "") {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "from and to must be given together")
			return
		}

		ctx := r.Context()
		var (
			bookings []models.Booking
			err      error
		)
		switch {
		case from != "" && query.UserID != "":
			bookings, err = engine.GetBookingsByUserAndDateRange(ctx, query.UserID, from, to)
		case from != "":
			bookings, err = engine.GetBookingsByDateRange(ctx, from, to)
		case query.SeatID != "" && query.Date != "":
			bookings, err = engine.GetActiveBookingsBySeatAndDate(ctx, query.SeatID, query.Date)
		default:
			bookings, err = engine.GetBookings(ctx, query)
		}
		if err != nil {
			writeBookingError(w, err, "retrieve bookings")
			return
		}

		writeSuccess(w, "Bookings retrieved successfully", newBookingEnricher(users).list(ctx, bookings))
	}
}

// GetBooking returns a single booking by ID.
func GetBooking(engine *booking.Engine, users *storage.UserRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		b, err := engine.GetBookingByID(r.Context(), id)
		if err != nil {
			writeBookingError(w, err, "retrieve booking")
			return
		}
		if b == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Booking not found")
			return
		}

		writeSuccess(w, "Booking retrieved successfully", map[string]any{
			"booking": newBookingEnricher(users).one(r.Context(), *b),
		})
	}
}

// CancelBooking cancels a booking owned by the caller.
func CancelBooking(engine *booking.Engine, users *storage.UserRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		userID := requestUserID(r, "")

		cancelled, err := engine.CancelBooking(r.Context(), id, userID)
		if err != nil {
			writeBookingError(w, err, "cancel booking")
			return
		}

		writeSuccess(w, "Booking cancelled successfully", map[string]any{
			"bookingId": id,
			"booking":   newBookingEnricher(users).one(r.Context(), *cancelled),
		})
	}
}

// ListBookingsByLocation lists the bookings of one floor on one day.
func ListBookingsByLocation(engine *booking.Engine, users *storage.UserRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := requireParams(w, r, "officeLocation", "building", "floor", "date")
		if !ok {
			return
		}

		bookings, err := engine.GetBookingsByLocation(r.Context(),
			params["officeLocation"], params["building"], params["floor"], params["date"])
		if err != nil {
			writeBookingError(w, err, "retrieve bookings")
			return
		}

		writeSuccess(w, "Bookings retrieved successfully", newBookingEnricher(users).list(r.Context(), bookings))
	}
}

// AvailabilityResponse reports whether a seat is free for a time range.
type AvailabilityResponse struct {
	SeatID      string `json:"seatId"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	IsAvailable bool   `json:"isAvailable"`
}

// CheckAvailability reports whether a seat is free for a time range on a day.
func CheckAvailability(engine *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := requireParams(w, r, "seatId", "date", "startTime", "endTime")
		if !ok {
			return
		}

		booked, err := engine.IsSeatBookedForTimeSlot(r.Context(),
			params["seatId"], params["date"], params["startTime"], params["endTime"])
		if err != nil {
			writeBookingError(w, err, "check availability")
			return
		}

		writeSuccess(w, "Availability check completed", AvailabilityResponse{
			SeatID:      params["seatId"],
			Date:        params["date"],
			StartTime:   params["startTime"],
			EndTime:     params["endTime"],
			IsAvailable: !booked,
		})
	}
}

// DashboardSummary counts the bookings of each dashboard section.
type DashboardSummary struct {
	TotalBookings int `json:"totalBookings"`
	TodayCount    int `json:"todayCount"`
	UpcomingCount int `json:"upcomingCount"`
	HistoryCount  int `json:"historyCount"`
}

// DashboardResponse is the payload of the user dashboard.
type DashboardResponse struct {
	Today    BookingList      `json:"today"`
	Upcoming BookingList      `json:"upcoming"`
	History  BookingList      `json:"history"`
	Summary  DashboardSummary `json:"summary"`
}

// UserDashboard returns a user's bookings for today, the coming month and
// the past month. An authenticated caller always sees their own dashboard.
func UserDashboard(engine *booking.Engine, users *storage.UserRepository, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r, mux.Vars(r)["userId"])

		dash, err := engine.Dashboard(r.Context(), userID, time.Now().In(loc))
		if err != nil {
			writeBookingError(w, err, "retrieve user bookings")
			return
		}

		enrich := newBookingEnricher(users)
		resp := DashboardResponse{
			Today:    enrich.list(r.Context(), dash.Today),
			Upcoming: enrich.list(r.Context(), dash.Upcoming),
			History:  enrich.list(r.Context(), dash.History),
		}
		resp.Summary = DashboardSummary{
			TotalBookings: resp.Today.Count + resp.Upcoming.Count + resp.History.Count,
			TodayCount:    resp.Today.Count,
			UpcomingCount: resp.Upcoming.Count,
			HistoryCount:  resp.History.Count,
		}

		writeSuccess(w, "User bookings retrieved successfully", resp)
	}
}

// requireParams reads required query parameters, writing a 400 response
// naming the first missing one.
func requireParams(w http.ResponseWriter, r *http.Request, names ...string) (map[string]string, bool) {
	q := r.URL.Query()
	params := make(map[string]string, len(names))
	for _, name := range names {
		v := q.Get(name)
		if v == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, name+" is required")
			return nil, false
		}
		params[name] = v
	}
	return params, true
}
