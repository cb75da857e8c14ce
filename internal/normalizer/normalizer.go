// Package normalizer turns loosely typed upstream records into alerts.
package normalizer

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/mr1hm/thirdeye/internal/classifier"
	"github.com/mr1hm/thirdeye/internal/models"
)

const (
	DefaultTitle       = "Unknown Alert"
	DefaultDescription = "No description provided"
	DefaultLocation    = "Unknown Location"
)

// LocationTyper resolves a location name to inside/outside the perimeter.
type LocationTyper interface {
	LocationType(location string) models.LocationType
}

// SeverityPolicy picks the severity of a normalized alert.
type SeverityPolicy func(title string) models.Severity

// SeverityFromTitle classifies by title.
func SeverityFromTitle(title string) models.Severity {
	return classifier.Classify(title)
}

// FixedSeverity ignores the title.
func FixedSeverity(s models.Severity) SeverityPolicy {
	return func(string) models.Severity { return s }
}

type Normalizer struct {
	locations LocationTyper
	severity  SeverityPolicy
	now       func() time.Time
	suffix    func() string
}

type Option func(*Normalizer)

func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

func WithSeverity(p SeverityPolicy) Option {
	return func(n *Normalizer) { n.severity = p }
}

func New(locations LocationTyper, opts ...Option) *Normalizer {
	n := &Normalizer{
		locations: locations,
		severity:  SeverityFromTitle,
		now:       time.Now,
		suffix:    randomSuffix,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize fills every missing field with its default. It never rejects a
// record.
func (n *Normalizer) Normalize(raw models.RawAlert) models.Alert {
	now := n.now()

	a := models.Alert{
		ID:          strings.TrimSpace(raw.ID),
		Title:       orDefault(raw.Title, DefaultTitle),
		Description: orDefault(raw.Description, DefaultDescription),
		Location:    orDefault(raw.Location, DefaultLocation),
		Timestamp:   raw.Timestamp,
	}
	if a.ID == "" {
		a.ID = strconv.FormatInt(now.UnixMilli(), 10) + "-" + n.suffix()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = now
	}
	a.LocationType = n.locations.LocationType(a.Location)
	a.Severity = n.severity(a.Title)
	return a
}

// NormalizeAll keeps input order.
func (n *Normalizer) NormalizeAll(raws []models.RawAlert) []models.Alert {
	out := make([]models.Alert, 0, len(raws))
	for _, r := range raws {
		out = append(out, n.Normalize(r))
	}
	return out
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func randomSuffix() string {
	return strconv.FormatUint(rand.Uint64()>>16, 36)
}
