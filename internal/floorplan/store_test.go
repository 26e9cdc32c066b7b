package floorplan_test

import (
	"context"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desk-reserve/backend/internal/booking"
	"github.com/desk-reserve/backend/internal/floorplan"
	"github.com/desk-reserve/backend/internal/storage"
	"github.com/desk-reserve/backend/internal/storage/models"
	"github.com/desk-reserve/backend/internal/storage/storagetest"
	"github.com/desk-reserve/backend/internal/websocket"
)

const twoSeatPlan = `{"seats":[{"id":"D1","x":7,"y":5},{"id":"D2","x":7.5,"y":19.25,"status":"occupied"}],"name":"HQ3"}`

func newStore(t *testing.T) (*floorplan.Store, *booking.Engine, *storage.FloorPlanRepository) {
	t.Helper()

	db := storagetest.NewDB(t)
	plans := storage.NewFloorPlanRepository(db)
	engine := booking.NewEngine(storage.NewBookingRepository(db), nil)

	return floorplan.NewStore(plans, engine, nil), engine, plans
}

func seatStatuses(t *testing.T, planJSON string) map[string]string {
	t.Helper()

	var plan struct {
		Seats []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"seats"`
	}
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(planJSON, &plan))

	statuses := make(map[string]string)
	for _, s := range plan.Seats {
		statuses[s.ID] = s.Status
	}
	return statuses
}

func Test_SaveFloorPlanData_When_SavedTwice_KeepsOneRecordWithLatestPlan(t *testing.T) {
	// setup
	ctx := context.Background()
	store, _, _ := newStore(t)

	// act
	tableName, err := store.SaveFloorPlanData(ctx, "HQ", "Tower A", "Floor3", `{"seats":[{"id":"OLD"}]}`)
	require.NoError(t, err)
	_, err = store.SaveFloorPlanData(ctx, "HQ", "Tower A", "Floor3", `{"seats":[{"id":"NEW"}]}`)
	require.NoError(t, err)

	// assert
	assert.Equal(t, "HQ_Tower_A_Floor3_table", tableName)

	meta, err := store.GetTableMetadata(ctx, "HQ", "Tower A", "Floor3")
	require.NoError(t, err)
	assert.Equal(t, 1, meta.RecordCount)
	assert.NotNil(t, meta.LastUpdated)

	plan, found, err := store.GetFloorPlanData(ctx, "HQ", "Tower A", "Floor3", "2024-01-10")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, map[string]string{"NEW": floorplan.SeatStatusAvailable}, seatStatuses(t, plan))
}

func Test_GetFloorPlanData_OverlaysConfirmedBookings(t *testing.T) {
	// setup
	ctx := context.Background()
	store, engine, _ := newStore(t)

	// arrange
	_, err := store.SaveFloorPlanData(ctx, "HQ", "Tower A", "Floor3", twoSeatPlan)
	require.NoError(t, err)

	_, err = engine.CreateBooking(ctx, booking.Request{
		Date:           "2024-01-10",
		StartTime:      "09:00",
		EndTime:        "17:00",
		BookType:       models.BookTypeDesk,
		SubType:        "D1",
		OfficeLocation: "HQ",
		Building:       "Tower A",
		Floor:          "Floor3",
	}, "u1")
	require.NoError(t, err)

	// act
	booked, found, err := store.GetFloorPlanData(ctx, "HQ", "Tower A", "Floor3", "2024-01-10")
	require.NoError(t, err)
	require.True(t, found)
	free, _, err := store.GetFloorPlanData(ctx, "HQ", "Tower A", "Floor3", "2024-01-11")
	require.NoError(t, err)

	// assert
	assert.Equal(t, map[string]string{
		"D1": floorplan.SeatStatusOccupied,
		"D2": floorplan.SeatStatusAvailable,
	}, seatStatuses(t, booked))
	assert.Equal(t, map[string]string{
		"D1": floorplan.SeatStatusAvailable,
		"D2": floorplan.SeatStatusAvailable,
	}, seatStatuses(t, free))
	assert.Contains(t, booked, `"name":"HQ3"`)
	assert.Contains(t, booked, `"y":19.25`)
}

func Test_GetFloorPlanData_KeepsDocumentOrder(t *testing.T) {
	// setup
	ctx := context.Background()
	store, engine, _ := newStore(t)

	plan := `{"version":2,"seats":[{"status":"blocked","id":"D1","z":1e3},{"id":"D2","label":"a<b"},{"x":1},7],"name":"HQ3"}`

	// arrange
	_, err := store.SaveFloorPlanData(ctx, "HQ", "Tower A", "Floor3", plan)
	require.NoError(t, err)

	_, err = engine.CreateBooking(ctx, booking.Request{
		Date:           "2024-01-10",
		StartTime:      "09:00",
		EndTime:        "17:00",
		BookType:       models.BookTypeDesk,
		SubType:        "D1",
		OfficeLocation: "HQ",
		Building:       "Tower A",
		Floor:          "Floor3",
	}, "u1")
	require.NoError(t, err)

	// act
	got, found, err := store.GetFloorPlanData(ctx, "HQ", "Tower A", "Floor3", "2024-01-10")

	// assert
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t,
		`{"version":2,"seats":[{"status":"occupied","id":"D1","z":1e3},{"id":"D2","label":"a<b","status":"available"},{"x":1},7],"name":"HQ3"}`,
		got)
}

func Test_GetFloorPlanData_When_NeverSaved_IsNotFound(t *testing.T) {
	// setup
	ctx := context.Background()
	store, _, _ := newStore(t)

	// act
	plan, found, err := store.GetFloorPlanData(ctx, "HQ", "Tower B", "Floor1", "")

	// assert
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, plan)

	exists, err := store.FloorPlanExists(ctx, "HQ", "Tower B", "Floor1")
	require.NoError(t, err)
	assert.False(t, exists)

	meta, err := store.GetTableMetadata(ctx, "HQ", "Tower B", "Floor1")
	require.NoError(t, err)
	assert.Zero(t, meta.RecordCount)
	assert.Nil(t, meta.LastUpdated)
}

func Test_GetFloorPlanData_When_PlanIsNotJSON_ReturnsItUnchanged(t *testing.T) {
	// setup
	ctx := context.Background()
	store, _, _ := newStore(t)

	// arrange
	_, err := store.SaveFloorPlanData(ctx, "HQ", "Tower A", "Floor3", "not json")
	require.NoError(t, err)

	// act
	plan, found, err := store.GetFloorPlanData(ctx, "HQ", "Tower A", "Floor3", "2024-01-10")

	// assert
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "not json", plan)
}

func Test_GetFloorPlanData_When_DateInvalid_ReturnsValidationError(t *testing.T) {
	store, _, _ := newStore(t)

	_, _, err := store.GetFloorPlanData(context.Background(), "HQ", "Tower A", "Floor3", "10-01-2024")

	assert.ErrorIs(t, err, booking.ErrValidation)
}

func Test_FloorPlanExists_MatchesTripleExactly(t *testing.T) {
	// setup
	ctx := context.Background()
	store, _, _ := newStore(t)

	// arrange
	_, err := store.SaveFloorPlanData(ctx, "HQ", "Tower-A", "Floor3", twoSeatPlan)
	require.NoError(t, err)

	// act + assert
	exists, err := store.FloorPlanExists(ctx, "HQ", "Tower-A", "Floor3")
	require.NoError(t, err)
	assert.True(t, exists)

	// Same storage key, different triple
	exists, err = store.FloorPlanExists(ctx, "HQ", "Tower A", "Floor3")
	require.NoError(t, err)
	assert.False(t, exists)
}

func Test_DeleteFloorPlanTable_RemovesPlanAndListings(t *testing.T) {
	// setup
	ctx := context.Background()
	store, _, _ := newStore(t)

	// arrange
	_, err := store.SaveFloorPlanData(ctx, "HQ", "Tower A", "Floor3", twoSeatPlan)
	require.NoError(t, err)

	// act
	require.NoError(t, store.DeleteFloorPlanTable(ctx, "HQ", "Tower A", "Floor3"))

	// assert
	_, found, err := store.GetFloorPlanData(ctx, "HQ", "Tower A", "Floor3", "")
	require.NoError(t, err)
	assert.False(t, found)

	offices, err := store.GetAllOfficeLocations(ctx)
	require.NoError(t, err)
	assert.Empty(t, offices)

	// Dropping again is a no-op
	assert.NoError(t, store.DeleteFloorPlanTable(ctx, "HQ", "Tower A", "Floor3"))
}

func Test_Listings(t *testing.T) {
	// setup
	ctx := context.Background()
	store, _, _ := newStore(t)

	// arrange
	for _, loc := range [][3]string{
		{"Pune", "B1", "Floor1"},
		{"HQ", "Tower B", "Floor1"},
		{"HQ", "Tower A", "Floor3"},
		{"HQ", "Tower A", "Floor1"},
	} {
		_, err := store.SaveFloorPlanData(ctx, loc[0], loc[1], loc[2], twoSeatPlan)
		require.NoError(t, err)
	}

	// act + assert
	offices, err := store.GetAllOfficeLocations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"HQ", "Pune"}, offices)

	buildings, err := store.GetBuildingsByOfficeLocation(ctx, "HQ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Tower A", "Tower B"}, buildings)

	floors, err := store.GetFloorsByOfficeLocationAndBuilding(ctx, "HQ", "Tower A")
	require.NoError(t, err)
	assert.Equal(t, []string{"Floor1", "Floor3"}, floors)

	none, err := store.GetBuildingsByOfficeLocation(ctx, "Nowhere")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func Test_GetBookingStatus(t *testing.T) {
	// setup
	ctx := context.Background()
	store, engine, _ := newStore(t)

	// arrange
	req := booking.Request{
		Date:           "2024-01-10",
		StartTime:      "09:00",
		EndTime:        "17:00",
		BookType:       models.BookTypeDesk,
		OfficeLocation: "HQ",
		Building:       "Tower A",
		Floor:          "Floor3",
	}
	req.SubType = "D1"
	_, err := engine.CreateBooking(ctx, req, "u1")
	require.NoError(t, err)
	req.SubType = "D2"
	cancelled, err := engine.CreateBooking(ctx, req, "u1")
	require.NoError(t, err)
	_, err = engine.CancelBooking(ctx, cancelled[0].ID, "u1")
	require.NoError(t, err)

	// act
	status, err := store.GetBookingStatus(ctx, "HQ", "Tower A", "Floor3", "2024-01-10")

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalBookings)
	assert.Equal(t, 1, status.ConfirmedBookings)
	assert.Equal(t, []string{"D1"}, status.BookedSeats)
	assert.Equal(t, "2024-01-10", status.Date)
}

func Test_PlanWriteFailures_NotifyConnectedClients(t *testing.T) {
	// setup
	ctx := context.Background()
	db := storagetest.NewDB(t)
	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	client := websocket.NewClient(hub)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	store := floorplan.NewStore(
		storage.NewFloorPlanRepository(db),
		booking.NewEngine(storage.NewBookingRepository(db), nil),
		hub,
	)
	require.NoError(t, db.Close())

	receive := func() websocket.Message {
		t.Helper()
		select {
		case data := <-client.Send():
			var msg websocket.Message
			require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &msg))
			return msg
		case <-time.After(2 * time.Second):
			t.Fatal("no notification received")
		}
		return websocket.Message{}
	}

	tests := []struct {
		name  string
		act   func() error
		title string
	}{
		{
			name: "save",
			act: func() error {
				_, err := store.SaveFloorPlanData(ctx, "HQ", "Tower A", "Floor3", twoSeatPlan)
				return err
			},
			title: "Floor plan not saved",
		},
		{
			name:  "delete",
			act:   func() error { return store.DeleteFloorPlanTable(ctx, "HQ", "Tower A", "Floor3") },
			title: "Floor plan not deleted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// act
			err := tt.act()

			// assert
			require.ErrorIs(t, err, storage.ErrStorage)
			msg := receive()
			assert.Equal(t, websocket.TypeNotification, msg.Type)
			payload, ok := msg.Payload.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "error", payload["level"])
			assert.Equal(t, tt.title, payload["title"])
		})
	}
}
