package floorplan

import (
	"context"
	"log"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

// Seat is a seat as rendered to clients.
type Seat struct {
	ID        string   `json:"id"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Status    string   `json:"status"`
	Type      string   `json:"type"`
	Equipment []string `json:"equipment"`
	Rotation  int      `json:"rotation"`
}

// DeskArea is a labelled region of the floor.
type DeskArea struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Type     string  `json:"type"`
	Rotation int     `json:"rotation"`
}

// OfficeLayout is the outline drawn behind the plan.
type OfficeLayout struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
	StrokeColor string  `json:"strokeColor"`
	StrokeWidth int     `json:"strokeWidth"`
}

// View is the normalized presentation of a floor plan.
type View struct {
	Seats        []Seat       `json:"seats"`
	DeskAreas    []DeskArea   `json:"deskAreas"`
	OfficeLayout OfficeLayout `json:"officeLayout"`
}

func defaultDeskArea() DeskArea {
	return DeskArea{
		ID:       "area1",
		Name:     "Main Workspace",
		X:        1.6101207354199758,
		Y:        1.869158965001005,
		Width:    60,
		Height:   40,
		Type:     "workspace",
		Rotation: 0,
	}
}

func defaultOfficeLayout() OfficeLayout {
	return OfficeLayout{
		X:           0,
		Y:           0,
		Width:       210,
		Height:      82,
		FillColor:   "hsl(var(--muted))",
		FillOpacity: 0.1,
		StrokeColor: "hsl(var(--border))",
		StrokeWidth: 1,
	}
}

// DefaultFloorPlan is the plan shown when nothing usable is stored.
func DefaultFloorPlan() View {
	return View{
		Seats: []Seat{
			{
				ID:        "D1",
				X:         7,
				Y:         5,
				Status:    SeatStatusAvailable,
				Type:      "desk",
				Equipment: []string{"Monitor", "Dock", "Window Seat"},
				Rotation:  0,
			},
			{
				ID:        "D2",
				X:         7.730657859981704,
				Y:         19.892523418729393,
				Status:    SeatStatusAvailable,
				Type:      "desk",
				Equipment: []string{},
				Rotation:  0,
			},
		},
		DeskAreas:    []DeskArea{defaultDeskArea()},
		OfficeLayout: defaultOfficeLayout(),
	}
}

// Parse converts a stored plan document into a View, filling every missing
// seat and desk area field with its default. The office layout is fixed.
// Documents that are not valid JSON yield the default floor plan.
func Parse(planJSON string) View {
	data := []byte(planJSON)
	if !jsoniter.ConfigFastest.Valid(data) {
		log.Printf("Error parsing floor plan JSON, using default floor plan")
		return DefaultFloorPlan()
	}

	root := jsoniter.Get(data)
	view := View{
		Seats:        []Seat{},
		DeskAreas:    []DeskArea{},
		OfficeLayout: defaultOfficeLayout(),
	}

	if seats := root.Get("seats"); seats.ValueType() == jsoniter.ArrayValue {
		for i := 0; i < seats.Size(); i++ {
			view.Seats = append(view.Seats, parseSeat(seats.Get(i)))
		}
	}

	if areas := root.Get("deskAreas"); areas.ValueType() == jsoniter.ArrayValue {
		for i := 0; i < areas.Size(); i++ {
			view.DeskAreas = append(view.DeskAreas, parseDeskArea(areas.Get(i)))
		}
	}
	if len(view.DeskAreas) == 0 {
		view.DeskAreas = append(view.DeskAreas, defaultDeskArea())
	}

	return view
}

func parseSeat(node jsoniter.Any) Seat {
	seat := Seat{
		ID:        uuid.NewString(),
		Status:    SeatStatusAvailable,
		Type:      "desk",
		Equipment: []string{},
	}

	if v := node.Get("id"); present(v) {
		seat.ID = v.ToString()
	}
	if v := node.Get("x"); present(v) {
		seat.X = v.ToFloat64()
	}
	if v := node.Get("y"); present(v) {
		seat.Y = v.ToFloat64()
	}
	if v := node.Get("status"); present(v) {
		seat.Status = v.ToString()
	}
	if v := node.Get("type"); present(v) {
		seat.Type = v.ToString()
	}
	if v := node.Get("rotation"); present(v) {
		seat.Rotation = toInt(v)
	}
	if v := node.Get("equipment"); v.ValueType() == jsoniter.ArrayValue {
		for i := 0; i < v.Size(); i++ {
			seat.Equipment = append(seat.Equipment, v.Get(i).ToString())
		}
	}

	return seat
}

func parseDeskArea(node jsoniter.Any) DeskArea {
	area := defaultDeskArea()

	if v := node.Get("id"); present(v) {
		area.ID = v.ToString()
	}
	if v := node.Get("name"); present(v) {
		area.Name = v.ToString()
	}
	if v := node.Get("x"); present(v) {
		area.X = v.ToFloat64()
	}
	if v := node.Get("y"); present(v) {
		area.Y = v.ToFloat64()
	}
	if v := node.Get("width"); present(v) {
		area.Width = float64(toInt(v))
	}
	if v := node.Get("height"); present(v) {
		area.Height = float64(toInt(v))
	}
	if v := node.Get("type"); present(v) {
		area.Type = v.ToString()
	}
	if v := node.Get("rotation"); present(v) {
		area.Rotation = toInt(v)
	}

	return area
}

// toInt truncates numeric values, so 30.9 reads as 30.
func toInt(v jsoniter.Any) int {
	return int(v.ToFloat64())
}

// present reports whether a field exists in the document, null included.
func present(v jsoniter.Any) bool {
	return v.ValueType() != jsoniter.InvalidValue
}

// Presenter renders stored plans for display.
type Presenter struct {
	store *Store
}

// NewPresenter creates a presenter over store.
func NewPresenter(store *Store) *Presenter {
	return &Presenter{store: store}
}

// GetFloorPlan returns the plan of a location for date with seat occupancy
// applied. It never fails: any lookup problem yields the default floor plan.
func (p *Presenter) GetFloorPlan(ctx context.Context, building, office, floor, date string) View {
	planJSON, found, err := p.store.GetFloorPlanData(ctx, office, building, floor, date)
	if err != nil {
		log.Printf("Error loading floor plan for %s/%s/%s: %v", office, building, floor, err)
		return DefaultFloorPlan()
	}
	if !found {
		return DefaultFloorPlan()
	}

	return Parse(planJSON)
}
