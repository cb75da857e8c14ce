// Package notify fans notifications out to open dashboard streams.
package notify

import (
	"fmt"
	"time"

	"github.com/mr1hm/thirdeye/internal/filter"
	"github.com/mr1hm/thirdeye/internal/models"
)

type Kind string

const (
	KindAlert  Kind = "alert"
	KindSystem Kind = "system"
)

type Notification struct {
	Kind      Kind          `json:"kind"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	Style     models.Style  `json:"style"`
	Alert     *models.Alert `json:"alert,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// ForAlert is the toast raised for a newly ingested alert.
func ForAlert(a models.Alert) Notification {
	return Notification{
		Kind:      KindAlert,
		Title:     fmt.Sprintf("New Alert: %s", a.Title),
		Message:   fmt.Sprintf("%s at %s", a.Description, a.Location),
		Style:     a.Severity.Style(),
		Alert:     &a,
		Timestamp: a.Timestamp,
	}
}

func System(title, message string, at time.Time) Notification {
	return Notification{
		Kind:      KindSystem,
		Title:     title,
		Message:   message,
		Style:     models.SeverityResolved.Style(),
		Timestamp: at,
	}
}

// VisibleTo applies the role projection to alert notifications. System
// notifications reach every known role.
func (n Notification) VisibleTo(role models.Role) bool {
	if n.Alert == nil {
		return role.Valid()
	}
	return filter.CanSee(role, *n.Alert)
}
