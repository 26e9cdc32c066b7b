package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desk-reserve/backend/internal/storage/models"
)

// FloorPlanRepository provides data access for per-location floor plan storage.
// Every location key owns a registry row in floor_plan_tables; its plan
// records live in floor_plans partitioned by that key.
type FloorPlanRepository struct {
	BaseRepository
}

// NewFloorPlanRepository creates a new floor plan repository.
func NewFloorPlanRepository(db *DB) *FloorPlanRepository {
	return &FloorPlanRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// EnsureTable creates the storage object for a location key if it is missing.
func (r *FloorPlanRepository) EnsureTable(ctx context.Context, tx *sql.Tx, t *models.FloorPlanTable) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.Now()
	}

	_, err := r.q(tx).ExecContext(ctx, `
		INSERT INTO floor_plan_tables (table_name, office_location, building_name, floor_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(table_name) DO NOTHING
	`, t.TableName, t.OfficeLocation, t.BuildingName, t.FloorID, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: creating floor plan table %s: %v", ErrStorage, t.TableName, err)
	}

	return nil
}

// Upsert inserts the plan record for its triple or replaces the stored plan JSON.
func (r *FloorPlanRepository) Upsert(ctx context.Context, tx *sql.Tx, rec *models.FloorPlanRecord) error {
	if rec.ID == "" {
		rec.ID = GenerateID()
	}
	rec.UpdatedAt = r.Now()

	_, err := r.q(tx).ExecContext(ctx, `
		INSERT INTO floor_plans (id, table_name, office_location, building_name, floor_id, plan_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(table_name, office_location, building_name, floor_id) DO UPDATE SET
			plan_json = excluded.plan_json, updated_at = excluded.updated_at
	`, rec.ID, rec.TableName, rec.OfficeLocation, rec.BuildingName, rec.FloorID, rec.PlanJSON, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: saving floor plan in %s: %v", ErrStorage, rec.TableName, err)
	}

	return nil
}

// TableExists reports whether the storage object for a location key exists.
func (r *FloorPlanRepository) TableExists(ctx context.Context, tableName string) (bool, error) {
	var exists bool
	err := r.DB().QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM floor_plan_tables WHERE table_name = ?)
	`, tableName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking floor plan table %s: %v", ErrStorage, tableName, err)
	}
	return exists, nil
}

// LatestRecord returns the most recently updated record of a storage object,
// or nil if it holds none.
func (r *FloorPlanRepository) LatestRecord(ctx context.Context, tableName string) (*models.FloorPlanRecord, error) {
	rec := &models.FloorPlanRecord{}
	err := r.DB().QueryRowContext(ctx, `
		SELECT id, table_name, office_location, building_name, floor_id, plan_json, updated_at
		FROM floor_plans WHERE table_name = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, tableName).Scan(
		&rec.ID, &rec.TableName, &rec.OfficeLocation, &rec.BuildingName,
		&rec.FloorID, &rec.PlanJSON, &rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: querying floor plan in %s: %v", ErrStorage, tableName, err)
	}
	return rec, nil
}

// Metadata counts the records stored for a triple and finds their last update.
func (r *FloorPlanRepository) Metadata(ctx context.Context, tableName, office, building, floor string) (models.TableMetadata, error) {
	meta := models.TableMetadata{TableName: tableName}

	err := r.DB().QueryRowContext(ctx, `
		SELECT COUNT(*) FROM floor_plans
		WHERE table_name = ? AND office_location = ? AND building_name = ? AND floor_id = ?
	`, tableName, office, building, floor).Scan(&meta.RecordCount)
	if err != nil {
		return meta, fmt.Errorf("%w: counting floor plans in %s: %v", ErrStorage, tableName, err)
	}
	if meta.RecordCount == 0 {
		return meta, nil
	}

	var lastUpdated sql.NullTime
	err = r.DB().QueryRowContext(ctx, `
		SELECT updated_at FROM floor_plans
		WHERE table_name = ? AND office_location = ? AND building_name = ? AND floor_id = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, tableName, office, building, floor).Scan(&lastUpdated)
	if err != nil {
		return meta, fmt.Errorf("%w: reading floor plan update time in %s: %v", ErrStorage, tableName, err)
	}
	if lastUpdated.Valid {
		t := lastUpdated.Time
		meta.LastUpdated = &t
	}

	return meta, nil
}

// DropTable deletes a storage object together with all of its records.
func (r *FloorPlanRepository) DropTable(ctx context.Context, tableName string) error {
	err := r.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM floor_plans WHERE table_name = ?", tableName); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM floor_plan_tables WHERE table_name = ?", tableName)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: dropping floor plan table %s: %v", ErrStorage, tableName, err)
	}
	return nil
}

// ListOfficeLocations returns the distinct office locations with stored plans.
func (r *FloorPlanRepository) ListOfficeLocations(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `
		SELECT DISTINCT office_location FROM floor_plans ORDER BY office_location
	`)
}

// ListBuildings returns the distinct buildings with stored plans in an office.
func (r *FloorPlanRepository) ListBuildings(ctx context.Context, office string) ([]string, error) {
	return r.distinct(ctx, `
		SELECT DISTINCT building_name FROM floor_plans
		WHERE office_location = ? ORDER BY building_name
	`, office)
}

// ListFloors returns the distinct floors with stored plans in a building.
func (r *FloorPlanRepository) ListFloors(ctx context.Context, office, building string) ([]string, error) {
	return r.distinct(ctx, `
		SELECT DISTINCT floor_id FROM floor_plans
		WHERE office_location = ? AND building_name = ? ORDER BY floor_id
	`, office, building)
}

func (r *FloorPlanRepository) distinct(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing floor plan locations: %v", ErrStorage, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%w: scanning floor plan location: %v", ErrStorage, err)
		}
		values = append(values, v)
	}

	return values, rows.Err()
}
