package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/desk-reserve/backend/internal/api/middleware"
	"github.com/desk-reserve/backend/internal/booking"
	"github.com/desk-reserve/backend/internal/floorplan"
)

// SaveFloorPlanRequest is the body of a floor plan save. Both snake_case and
// camelCase field names are accepted; snake_case wins when both are set.
type SaveFloorPlanRequest struct {
	OfficeLocation string  `json:"office_location"`
	BuildingName   string  `json:"building_name"`
	FloorID        string  `json:"floor_id"`
	PlanJSON       *string `json:"plan_json"`

	OfficeLocationCamel string  `json:"officeLocation"`
	BuildingNameCamel   string  `json:"buildingName"`
	FloorIDCamel        string  `json:"floorId"`
	PlanJSONCamel       *string `json:"planJson"`
}

func (req *SaveFloorPlanRequest) normalize() {
	if req.OfficeLocation == "" {
		req.OfficeLocation = req.OfficeLocationCamel
	}
	if req.BuildingName == "" {
		req.BuildingName = req.BuildingNameCamel
	}
	if req.FloorID == "" {
		req.FloorID = req.FloorIDCamel
	}
	if req.PlanJSON == nil {
		req.PlanJSON = req.PlanJSONCamel
	}
}

func (req SaveFloorPlanRequest) validate() string {
	switch {
	case strings.TrimSpace(req.OfficeLocation) == "":
		return "Office location is required"
	case strings.TrimSpace(req.BuildingName) == "":
		return "Building name is required"
	case strings.TrimSpace(req.FloorID) == "":
		return "Floor ID is required"
	case req.PlanJSON == nil:
		return "Plan JSON data is required"
	}
	return ""
}

// SaveFloorPlan stores the plan document of a location.
func SaveFloorPlan(store *floorplan.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SaveFloorPlanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		req.normalize()
		if msg := req.validate(); msg != "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, msg)
			return
		}

		tableName, err := store.SaveFloorPlanData(r.Context(), req.OfficeLocation, req.BuildingName, req.FloorID, *req.PlanJSON)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to save floor plan data")
			return
		}

		writeSuccess(w, "Floor plan data saved successfully", map[string]any{
			"table_name": tableName,
		})
	}
}

// GetFloorPlanData returns the stored plan of a location with seat occupancy
// for the requested date.
func GetFloorPlanData(store *floorplan.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := requireParams(w, r, "officeLocation", "buildingName", "floorId")
		if !ok {
			return
		}
		office, building, floor := params["officeLocation"], params["buildingName"], params["floorId"]
		date := r.URL.Query().Get("date")

		plan, found, err := store.GetFloorPlanData(r.Context(), office, building, floor, date)
		if err != nil {
			writeFloorPlanError(w, err, "retrieve floor plan data")
			return
		}
		if !found {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Floor plan data not found")
			return
		}

		if date == "" {
			date = time.Now().Format(booking.DateLayout)
		}
		writeSuccess(w, "Floor plan data retrieved successfully", map[string]any{
			"office_location": office,
			"building_name":   building,
			"floor_id":        floor,
			"date":            date,
			"plan_json":       plan,
			"table_name":      store.GenerateTableName(office, building, floor),
		})
	}
}

// FloorPlanExists reports whether a plan is stored for a location.
func FloorPlanExists(store *floorplan.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := requireParams(w, r, "officeLocation", "buildingName", "floorId")
		if !ok {
			return
		}
		office, building, floor := params["officeLocation"], params["buildingName"], params["floorId"]

		exists, err := store.FloorPlanExists(r.Context(), office, building, floor)
		if err != nil {
			writeFloorPlanError(w, err, "check floor plan existence")
			return
		}

		writeSuccess(w, "Floor plan existence check completed", map[string]any{
			"exists":          exists,
			"office_location": office,
			"building_name":   building,
			"floor_id":        floor,
			"table_name":      store.GenerateTableName(office, building, floor),
		})
	}
}

// GetFloorPlanMetadata returns the record count and last update of a location.
func GetFloorPlanMetadata(store *floorplan.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := requireParams(w, r, "officeLocation", "buildingName", "floorId")
		if !ok {
			return
		}
		office, building, floor := params["officeLocation"], params["buildingName"], params["floorId"]

		meta, err := store.GetTableMetadata(r.Context(), office, building, floor)
		if err != nil {
			writeFloorPlanError(w, err, "retrieve table metadata")
			return
		}

		writeSuccess(w, "Table metadata retrieved successfully", map[string]any{
			"office_location": office,
			"building_name":   building,
			"floor_id":        floor,
			"table_name":      meta.TableName,
			"metadata":        meta,
		})
	}
}

// ListOfficeLocations lists every office location with a stored plan.
func ListOfficeLocations(store *floorplan.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offices, err := store.GetAllOfficeLocations(r.Context())
		if err != nil {
			writeFloorPlanError(w, err, "retrieve office locations")
			return
		}

		writeSuccess(w, "Office locations retrieved successfully", map[string]any{
			"office_locations": offices,
		})
	}
}

// ListBuildings lists the buildings of an office location.
func ListBuildings(store *floorplan.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := requireParams(w, r, "officeLocation")
		if !ok {
			return
		}

		buildings, err := store.GetBuildingsByOfficeLocation(r.Context(), params["officeLocation"])
		if err != nil {
			writeFloorPlanError(w, err, "retrieve buildings")
			return
		}

		writeSuccess(w, "Buildings retrieved successfully", map[string]any{
			"office_location": params["officeLocation"],
			"buildings":       buildings,
		})
	}
}

// ListFloors lists the floors of a building.
func ListFloors(store *floorplan.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := requireParams(w, r, "officeLocation", "buildingName")
		if !ok {
			return
		}

		floors, err := store.GetFloorsByOfficeLocationAndBuilding(r.Context(), params["officeLocation"], params["buildingName"])
		if err != nil {
			writeFloorPlanError(w, err, "retrieve floors")
			return
		}

		writeSuccess(w, "Floors retrieved successfully", map[string]any{
			"office_location": params["officeLocation"],
			"building_name":   params["buildingName"],
			"floors":          floors,
		})
	}
}

// DeleteFloorPlan drops the stored plans of a location.
func DeleteFloorPlan(store *floorplan.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := requireParams(w, r, "officeLocation", "buildingName", "floorId")
		if !ok {
			return
		}
		office, building, floor := params["officeLocation"], params["buildingName"], params["floorId"]

		if err := store.DeleteFloorPlanTable(r.Context(), office, building, floor); err != nil {
			writeFloorPlanError(w, err, "delete floor plan table")
			return
		}

		writeSuccess(w, "Floor plan table deleted successfully", map[string]any{
			"office_location": office,
			"building_name":   building,
			"floor_id":        floor,
			"table_name":      store.GenerateTableName(office, building, floor),
		})
	}
}

// GetFloorBookingStatus summarizes the bookings of a floor for one day.
func GetFloorBookingStatus(store *floorplan.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := requireParams(w, r, "officeLocation", "buildingName", "floorId")
		if !ok {
			return
		}

		status, err := store.GetBookingStatus(r.Context(),
			params["officeLocation"], params["buildingName"], params["floorId"], r.URL.Query().Get("date"))
		if err != nil {
			writeFloorPlanError(w, err, "retrieve booking status")
			return
		}

		writeSuccess(w, "Booking status retrieved successfully", status)
	}
}

func writeFloorPlanError(w http.ResponseWriter, err error, action string) {
	if errors.Is(err, booking.ErrValidation) {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
		return
	}
	log.Printf("Failed to %s: %v", action, err)
	middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to "+action)
}
