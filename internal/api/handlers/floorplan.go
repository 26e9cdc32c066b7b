package handlers

import (
	"net/http"

	"github.com/desk-reserve/backend/internal/floorplan"
)

// GetFloorPlan renders the plan of a location for display. Unknown locations
// and lookup failures render the default floor plan.
func GetFloorPlan(presenter *floorplan.Presenter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		view := presenter.GetFloorPlan(r.Context(), q.Get("building"), q.Get("office"), q.Get("floor"), q.Get("date"))

		writeJSON(w, http.StatusOK, view)
	}
}
