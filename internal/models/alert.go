package models

import "time"

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMedium   Severity = "medium"
	SeverityResolved Severity = "resolved"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityMedium, SeverityResolved:
		return true
	}
	return false
}

// Style is how a severity is drawn on cards and map markers.
type Style struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
	Blink bool   `json:"blink"`
}

func (s Severity) Style() Style {
	switch s {
	case SeverityCritical:
		return Style{Color: "alert-critical", Icon: "alert-circle", Blink: true}
	case SeverityResolved:
		return Style{Color: "alert-resolved", Icon: "check-circle"}
	default:
		return Style{Color: "alert-medium", Icon: "alert-triangle"}
	}
}

type LocationType string

const (
	LocationWithin  LocationType = "within"
	LocationOutside LocationType = "outside"
)

type Alert struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Location     string       `json:"location"`
	LocationType LocationType `json:"locationType"`
	Timestamp    time.Time    `json:"timestamp"`
	Severity     Severity     `json:"severity"`
}

// SameEvent reports whether two alerts describe the same upstream record.
// A changed timestamp under the same id counts as a different record.
func (a Alert) SameEvent(other Alert) bool {
	return a.ID == other.ID && a.Timestamp.Equal(other.Timestamp)
}
