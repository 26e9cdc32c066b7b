// Package floorplan stores per-location floor plan documents and renders
// them with live booking occupancy.
package floorplan

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/desk-reserve/backend/internal/booking"
	"github.com/desk-reserve/backend/internal/location"
	"github.com/desk-reserve/backend/internal/storage"
	"github.com/desk-reserve/backend/internal/storage/models"
	"github.com/desk-reserve/backend/internal/websocket"
)

// Seat statuses written by the occupancy overlay.
const (
	SeatStatusAvailable = "available"
	SeatStatusOccupied  = "occupied"
)

// BookingSource supplies the bookings of a floor for one day.
type BookingSource interface {
	GetBookingsByLocation(ctx context.Context, office, building, floor, date string) ([]models.Booking, error)
	ConfirmedSeats(ctx context.Context, office, building, floor, date string) ([]string, error)
}

// BookingStatus summarizes the bookings of a floor for one day.
type BookingStatus struct {
	OfficeLocation    string   `json:"office_location"`
	BuildingName      string   `json:"building_name"`
	FloorID           string   `json:"floor_id"`
	Date              string   `json:"date"`
	TotalBookings     int      `json:"total_bookings"`
	ConfirmedBookings int      `json:"confirmed_bookings"`
	BookedSeats       []string `json:"booked_seats"`
}

// Store owns the plan storage objects of every location.
type Store struct {
	plans       *storage.FloorPlanRepository
	bookings    BookingSource
	broadcaster *websocket.EventBroadcaster
	now         func() time.Time
}

// NewStore creates a floor plan store. hub may be nil.
func NewStore(plans *storage.FloorPlanRepository, bookings BookingSource, hub *websocket.Hub) *Store {
	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Store{
		plans:       plans,
		bookings:    bookings,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// GenerateTableName returns the storage key of a location.
func (s *Store) GenerateTableName(office, building, floor string) string {
	return location.GenerateTableName(office, building, floor)
}

// SaveFloorPlanData creates the storage object of the location if needed and
// stores planJSON as its single record for the triple.
func (s *Store) SaveFloorPlanData(ctx context.Context, office, building, floor, planJSON string) (string, error) {
	tableName := s.GenerateTableName(office, building, floor)

	err := s.plans.Transaction(ctx, func(tx *sql.Tx) error {
		if err := s.plans.EnsureTable(ctx, tx, &models.FloorPlanTable{
			TableName:      tableName,
			OfficeLocation: office,
			BuildingName:   building,
			FloorID:        floor,
		}); err != nil {
			return err
		}

		return s.plans.Upsert(ctx, tx, &models.FloorPlanRecord{
			TableName:      tableName,
			OfficeLocation: office,
			BuildingName:   building,
			FloorID:        floor,
			PlanJSON:       planJSON,
		})
	})
	if err != nil {
		log.Printf("Failed to save floor plan for %s: %v", tableName, err)
		s.notifyFailure("Floor plan not saved", fmt.Sprintf("Saving the floor plan of %s failed", tableName))
		return "", err
	}

	log.Printf("Saved floor plan data for table: %s", tableName)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastFloorPlanSaved(tableName, office, building, floor)
	}

	return tableName, nil
}

// GetFloorPlanData returns the stored plan of a location with every seat's
// status set from the confirmed bookings of date (today when empty).
// found is false when the location has no storage object or no record.
func (s *Store) GetFloorPlanData(ctx context.Context, office, building, floor, date string) (string, bool, error) {
	day, err := s.day(date)
	if err != nil {
		return "", false, err
	}

	tableName := s.GenerateTableName(office, building, floor)

	exists, err := s.plans.TableExists(ctx, tableName)
	if err != nil {
		return "", false, err
	}
	if !exists {
		log.Printf("Floor plan table %s does not exist", tableName)
		return "", false, nil
	}

	rec, err := s.plans.LatestRecord(ctx, tableName)
	if err != nil {
		return "", false, err
	}
	if rec == nil {
		return "", false, nil
	}

	bookedSeats, err := s.bookings.ConfirmedSeats(ctx, office, building, floor, day)
	if err != nil {
		return "", false, err
	}

	return overlayOccupancy(rec.PlanJSON, bookedSeats), true, nil
}

// FloorPlanExists reports whether a plan is stored for exactly this triple.
func (s *Store) FloorPlanExists(ctx context.Context, office, building, floor string) (bool, error) {
	tableName := s.GenerateTableName(office, building, floor)

	exists, err := s.plans.TableExists(ctx, tableName)
	if err != nil || !exists {
		return false, err
	}

	meta, err := s.plans.Metadata(ctx, tableName, office, building, floor)
	if err != nil {
		return false, err
	}
	return meta.RecordCount > 0, nil
}

// DeleteFloorPlanTable drops the storage object of a location with its records.
func (s *Store) DeleteFloorPlanTable(ctx context.Context, office, building, floor string) error {
	tableName := s.GenerateTableName(office, building, floor)

	if err := s.plans.DropTable(ctx, tableName); err != nil {
		log.Printf("Failed to drop floor plan table %s: %v", tableName, err)
		s.notifyFailure("Floor plan not deleted", fmt.Sprintf("Deleting the floor plan of %s failed", tableName))
		return err
	}

	log.Printf("Floor plan table %s dropped", tableName)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastFloorPlanDeleted(tableName, office, building, floor)
	}

	return nil
}

// GetTableMetadata returns the record count and last update of a triple.
// A missing storage object yields zero values.
func (s *Store) GetTableMetadata(ctx context.Context, office, building, floor string) (models.TableMetadata, error) {
	tableName := s.GenerateTableName(office, building, floor)

	exists, err := s.plans.TableExists(ctx, tableName)
	if err != nil {
		return models.TableMetadata{TableName: tableName}, err
	}
	if !exists {
		return models.TableMetadata{TableName: tableName}, nil
	}

	return s.plans.Metadata(ctx, tableName, office, building, floor)
}

// GetAllOfficeLocations lists the offices with at least one stored plan.
func (s *Store) GetAllOfficeLocations(ctx context.Context) ([]string, error) {
	return s.plans.ListOfficeLocations(ctx)
}

// GetBuildingsByOfficeLocation lists the buildings of an office with stored plans.
func (s *Store) GetBuildingsByOfficeLocation(ctx context.Context, office string) ([]string, error) {
	return s.plans.ListBuildings(ctx, office)
}

// GetFloorsByOfficeLocationAndBuilding lists the floors of a building with stored plans.
func (s *Store) GetFloorsByOfficeLocationAndBuilding(ctx context.Context, office, building string) ([]string, error) {
	return s.plans.ListFloors(ctx, office, building)
}

// GetBookingStatus summarizes the bookings of a floor on date (today when empty).
func (s *Store) GetBookingStatus(ctx context.Context, office, building, floor, date string) (*BookingStatus, error) {
	day, err := s.day(date)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookings.GetBookingsByLocation(ctx, office, building, floor, day)
	if err != nil {
		return nil, err
	}

	status := &BookingStatus{
		OfficeLocation: office,
		BuildingName:   building,
		FloorID:        floor,
		Date:           day,
		TotalBookings:  len(bookings),
		BookedSeats:    []string{},
	}
	for _, b := range bookings {
		if b.IsConfirmed() {
			status.BookedSeats = append(status.BookedSeats, b.SubType)
		}
	}
	status.ConfirmedBookings = len(status.BookedSeats)

	return status, nil
}

// notifyFailure tells connected operators that a plan write failed.
func (s *Store) notifyFailure(title, message string) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastNotification("error", title, message)
	}
}

func (s *Store) day(date string) (string, error) {
	if date == "" {
		return s.now().Format(booking.DateLayout), nil
	}
	d, err := booking.ParseDate(date)
	if err != nil {
		return "", fmt.Errorf("%w: invalid date %q", booking.ErrValidation, date)
	}
	return d.Format(booking.DateLayout), nil
}
