// Package filter derives the alerts a viewer may see.
package filter

import (
	"fmt"
	"strings"

	"github.com/mr1hm/thirdeye/internal/models"
)

// SeverityFilter is the severity tab selected on the dashboard.
type SeverityFilter string

const (
	All      SeverityFilter = "all"
	Critical SeverityFilter = SeverityFilter(models.SeverityCritical)
	Medium   SeverityFilter = SeverityFilter(models.SeverityMedium)
	Resolved SeverityFilter = SeverityFilter(models.SeverityResolved)
)

// ParseSeverityFilter accepts "" as all.
func ParseSeverityFilter(s string) (SeverityFilter, error) {
	switch SeverityFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", All:
		return All, nil
	case Critical:
		return Critical, nil
	case Medium:
		return Medium, nil
	case Resolved:
		return Resolved, nil
	default:
		return "", fmt.Errorf("invalid severity filter: %s", s)
	}
}

// CanSee is the role projection for a single alert. Unknown roles see nothing.
func CanSee(role models.Role, a models.Alert) bool {
	switch role {
	case models.RoleSuperadmin:
		return true
	case models.RoleWarden:
		return a.LocationType == models.LocationWithin
	case models.RoleWatchman:
		return a.LocationType == models.LocationOutside
	default:
		return false
	}
}

func ByRole(alerts []models.Alert, role models.Role) []models.Alert {
	out := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if CanSee(role, a) {
			out = append(out, a)
		}
	}
	return out
}

func BySeverity(alerts []models.Alert, sev SeverityFilter) []models.Alert {
	out := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if sev == All || SeverityFilter(a.Severity) == sev {
			out = append(out, a)
		}
	}
	return out
}

// Visible applies the role projection and then the severity projection.
// Input order is kept.
func Visible(alerts []models.Alert, role models.Role, sev SeverityFilter) []models.Alert {
	return BySeverity(ByRole(alerts, role), sev)
}

// EmptyMessage is the feed placeholder when nothing is visible.
func EmptyMessage(total int) string {
	if total > 0 {
		return "No alerts matching the selected filter"
	}
	return "No alerts available for your role"
}
