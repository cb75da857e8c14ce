// Package classifier maps alert titles to severities.
package classifier

import (
	"strings"

	"github.com/mr1hm/thirdeye/internal/models"
)

// knownTitles covers the alert kinds the detectors and the guard desk raise.
var knownTitles = map[string]models.Severity{
	"Violence":            models.SeverityCritical,
	"Overcrowding":        models.SeverityCritical,
	"Unauthorized Access": models.SeverityCritical,
	"Perimeter Breach":    models.SeverityCritical,
	"Moderate Crowding":   models.SeverityMedium,
	"Loitering":           models.SeverityMedium,
	"Drowsiness":          models.SeverityMedium,
}

// Classify returns the severity for a title. An exact table hit wins; after
// that the title is searched case-insensitively for critical and resolved
// keywords, and anything else is medium.
func Classify(title string) models.Severity {
	if sev, ok := knownTitles[title]; ok {
		return sev
	}

	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "critical"), strings.Contains(lower, "emergency"):
		return models.SeverityCritical
	case strings.Contains(lower, "resolved"), strings.Contains(lower, "cleared"):
		return models.SeverityResolved
	default:
		return models.SeverityMedium
	}
}

// KnownTitles returns a copy of the exact-match table.
func KnownTitles() map[string]models.Severity {
	out := make(map[string]models.Severity, len(knownTitles))
	for k, v := range knownTitles {
		out[k] = v
	}
	return out
}
