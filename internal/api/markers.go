package api

import (
	"github.com/mr1hm/thirdeye/internal/facility"
	"github.com/mr1hm/thirdeye/internal/models"
)

// Marker is one pin on the facility map. X and Y are percentages of the
// map's width and height.
type Marker struct {
	AlertID      string              `json:"alertId"`
	Title        string              `json:"title"`
	Location     string              `json:"location"`
	LocationType models.LocationType `json:"locationType"`
	Severity     models.Severity     `json:"severity"`
	Style        models.Style        `json:"style"`
	X            float64             `json:"x"`
	Y            float64             `json:"y"`
}

type MapView struct {
	Revision  string   `json:"revision"`
	Markers   []Marker `json:"markers"`
	Unmapped  int      `json:"unmapped"`
	Locations []string `json:"locations"`
}

// toMapView places alerts at their location's position. Alerts whose
// location has no position are counted but not drawn.
func toMapView(catalog *facility.Catalog, alerts []models.Alert) MapView {
	view := MapView{
		Revision:  catalog.Name(),
		Markers:   make([]Marker, 0, len(alerts)),
		Locations: catalog.Locations(),
	}

	for _, a := range alerts {
		pos, ok := catalog.Position(a.Location)
		if !ok {
			view.Unmapped++
			continue
		}
		view.Markers = append(view.Markers, Marker{
			AlertID:      a.ID,
			Title:        a.Title,
			Location:     a.Location,
			LocationType: a.LocationType,
			Severity:     a.Severity,
			Style:        a.Severity.Style(),
			X:            pos.X,
			Y:            pos.Y,
		})
	}

	return view
}
