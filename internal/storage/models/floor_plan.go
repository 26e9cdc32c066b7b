package models

import "time"

// FloorPlanTable is the storage object created lazily for one location key.
type FloorPlanTable struct {
	TableName      string    `json:"table_name"`
	OfficeLocation string    `json:"office_location"`
	BuildingName   string    `json:"building_name"`
	FloorID        string    `json:"floor_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// FloorPlanRecord holds the plan JSON for one (office, building, floor) triple.
type FloorPlanRecord struct {
	ID             string    `json:"id"`
	TableName      string    `json:"table_name"`
	OfficeLocation string    `json:"office_location"`
	BuildingName   string    `json:"building_name"`
	FloorID        string    `json:"floor_id"`
	PlanJSON       string    `json:"plan_json"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableMetadata summarizes the records stored for a triple.
type TableMetadata struct {
	TableName   string     `json:"table_name"`
	RecordCount int        `json:"record_count"`
	LastUpdated *time.Time `json:"last_updated"`
}
