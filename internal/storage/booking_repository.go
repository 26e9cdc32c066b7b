package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	jsoniter "github.com/json-iterator/go"

	"github.com/desk-reserve/backend/internal/storage/models"
)

var (
	// ErrDuplicate is returned when a write would confirm a second booking
	// for the same resource and day.
	ErrDuplicate = errors.New("duplicate record")

	// ErrIDInUse is returned when a confirmed booking already owns the id.
	ErrIDInUse = errors.New("booking id in use")
)

const (
	dialectSQLite  = "sqlite3"
	tableBookings  = "bookings"
	colID          = "id"
	colDate        = "date"
	colStartTime   = "start_time"
	colSubType     = "sub_type"
	colStatus      = "status"
	colUserID      = "user_id"
	colOffice      = "office_location"
	colBuilding    = "building"
	colFloor       = "floor"
	bookingColumns = `id, date, start_time, end_time, book_type, sub_type, office_location, building, floor,
		recurrence_type, end_date, custom_dates, status, user_id, notes, created_at, updated_at`
)

var bookingSelectColumns = []any{
	"id", "date", "start_time", "end_time", "book_type", "sub_type", "office_location", "building", "floor",
	"recurrence_type", "end_date", "custom_dates", "status", "user_id", "notes", "created_at", "updated_at",
}

// BookingFilter narrows a booking listing. Empty fields are ignored.
type BookingFilter struct {
	UserID         string
	SubType        string
	Status         models.BookingStatus
	DateFrom       string
	DateTo         string
	OfficeLocation string
	Building       string
	Floor          string
	Ascending      bool
}

// BookingRepository provides data access for bookings.
type BookingRepository struct {
	BaseRepository
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *DB) *BookingRepository {
	return &BookingRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Insert stores a new booking occurrence. A cancelled row with the same id is
// overwritten, a confirmed one yields ErrIDInUse. tx may be nil.
func (r *BookingRepository) Insert(ctx context.Context, tx *sql.Tx, b *models.Booking) error {
	now := r.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	customDates, err := encodeDates(b.CustomDates)
	if err != nil {
		return fmt.Errorf("encoding custom dates: %w", err)
	}

	result, err := r.q(tx).ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			book_type = excluded.book_type,
			sub_type = excluded.sub_type,
			office_location = excluded.office_location,
			building = excluded.building,
			floor = excluded.floor,
			recurrence_type = excluded.recurrence_type,
			end_date = excluded.end_date,
			custom_dates = excluded.custom_dates,
			status = excluded.status,
			user_id = excluded.user_id,
			notes = excluded.notes,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
		WHERE bookings.status <> 'confirmed'
	`,
		b.ID, b.Date, b.StartTime, b.EndTime, b.BookType, b.SubType,
		b.OfficeLocation, b.Building, b.Floor, b.RecurrenceType, b.EndDate,
		customDates, b.Status, b.UserID, b.Notes, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: booking %s", ErrDuplicate, b.ID)
		}
		return fmt.Errorf("%w: inserting booking: %v", ErrStorage, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: inserting booking: %v", ErrStorage, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrIDInUse, b.ID)
	}

	return nil
}

// GetByID retrieves a booking by its ID. Returns nil if it does not exist.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	row := r.DB().QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)

	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: querying booking: %v", ErrStorage, err)
	}

	return b, nil
}

// UpdateStatus changes the status of a booking.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?
	`, status, r.Now(), id)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: booking %s", ErrDuplicate, id)
		}
		return fmt.Errorf("%w: updating booking status: %v", ErrStorage, err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("%w: booking not found: %s", ErrStorage, id)
	}

	return nil
}

// CountConfirmedForSlot counts confirmed bookings for a resource on a date.
func (r *BookingRepository) CountConfirmedForSlot(ctx context.Context, tx *sql.Tx, date string, bookType models.BookType, subType string) (int, error) {
	var count int
	err := r.q(tx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE date = ? AND book_type = ? AND sub_type = ? AND status = 'confirmed'
	`, date, bookType, subType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting bookings for slot: %v", ErrStorage, err)
	}
	return count, nil
}

// List retrieves bookings matching the filter, ordered by date.
func (r *BookingRepository) List(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	query, args, err := buildListQuery(f)
	if err != nil {
		return nil, fmt.Errorf("%w: building booking query: %v", ErrStorage, err)
	}

	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying bookings: %v", ErrStorage, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

func buildListQuery(f BookingFilter) (string, []any, error) {
	ds := goqu.Dialect(dialectSQLite).
		From(tableBookings).
		Select(bookingSelectColumns...).
		Prepared(true)

	if f.UserID != "" {
		ds = ds.Where(goqu.C(colUserID).Eq(f.UserID))
	}
	if f.SubType != "" {
		ds = ds.Where(goqu.C(colSubType).Eq(f.SubType))
	}
	if f.Status != "" {
		ds = ds.Where(goqu.C(colStatus).Eq(string(f.Status)))
	}
	if f.DateFrom != "" {
		ds = ds.Where(goqu.C(colDate).Gte(f.DateFrom))
	}
	if f.DateTo != "" {
		ds = ds.Where(goqu.C(colDate).Lte(f.DateTo))
	}
	if f.OfficeLocation != "" {
		ds = ds.Where(goqu.C(colOffice).Eq(f.OfficeLocation))
	}
	if f.Building != "" {
		ds = ds.Where(goqu.C(colBuilding).Eq(f.Building))
	}
	if f.Floor != "" {
		ds = ds.Where(goqu.C(colFloor).Eq(f.Floor))
	}

	if f.Ascending {
		ds = ds.Order(goqu.C(colDate).Asc(), goqu.C(colStartTime).Asc(), goqu.C(colID).Asc())
	} else {
		ds = ds.Order(goqu.C(colDate).Desc(), goqu.C(colStartTime).Desc(), goqu.C(colID).Asc())
	}

	return ds.ToSQL()
}

// Count returns the total number of stored bookings.
func (r *BookingRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings").Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting bookings: %v", ErrStorage, err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b           models.Booking
		customDates sql.NullString
	)

	if err := row.Scan(
		&b.ID, &b.Date, &b.StartTime, &b.EndTime, &b.BookType, &b.SubType,
		&b.OfficeLocation, &b.Building, &b.Floor, &b.RecurrenceType, &b.EndDate,
		&customDates, &b.Status, &b.UserID, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if customDates.Valid && customDates.String != "" {
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(customDates.String, &b.CustomDates); err != nil {
			return nil, fmt.Errorf("decoding custom dates of %s: %w", b.ID, err)
		}
	}

	return &b, nil
}

func scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning booking: %v", ErrStorage, err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating bookings: %v", ErrStorage, err)
	}
	return bookings, nil
}

func encodeDates(dates []string) (*string, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	s, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(dates)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
