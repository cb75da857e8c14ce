package normalizer

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/thirdeye/internal/facility"
	"github.com/mr1hm/thirdeye/internal/models"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestNormalizer(opts ...Option) *Normalizer {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(facility.Default(), opts...)
}

func TestNormalize_Defaults(t *testing.T) {
	n := newTestNormalizer()

	a := n.Normalize(models.RawAlert{})

	assert.Equal(t, DefaultTitle, a.Title)
	assert.Equal(t, DefaultDescription, a.Description)
	assert.Equal(t, DefaultLocation, a.Location)
	assert.Equal(t, models.LocationWithin, a.LocationType)
	assert.True(t, a.Timestamp.Equal(fixedNow))
	assert.Equal(t, models.SeverityMedium, a.Severity)
	assert.True(t, strings.HasPrefix(a.ID, "1773480413000-"), "id %q", a.ID)
}

func TestNormalize_SynthesizedIDsDifferWithinOneMillisecond(t *testing.T) {
	n := newTestNormalizer()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		a := n.Normalize(models.RawAlert{})
		assert.False(t, seen[a.ID], "duplicate id %s", a.ID)
		seen[a.ID] = true
	}
}

func TestNormalize_KeepsProvidedFields(t *testing.T) {
	n := newTestNormalizer()
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	a := n.Normalize(models.RawAlert{
		ID:          "500",
		Title:       "Violence",
		Description: "Violent activity detected in Lobby.",
		Location:    "Lobby",
		Timestamp:   ts,
	})

	assert.Equal(t, "500", a.ID)
	assert.Equal(t, "Violence", a.Title)
	assert.Equal(t, "Lobby", a.Location)
	assert.Equal(t, models.LocationWithin, a.LocationType)
	assert.Equal(t, models.SeverityCritical, a.Severity)
	assert.True(t, a.Timestamp.Equal(ts))
}

func TestNormalize_LocationTypeFollowsOutdoorSet(t *testing.T) {
	n := newTestNormalizer()
	catalog := facility.Default()

	for _, loc := range append(catalog.Locations(), "Unknown Location", "Parking Lot") {
		a := n.Normalize(models.RawAlert{ID: "x", Location: loc})
		outdoor := loc == "Lake" || loc == "Cabin"
		assert.Equal(t, outdoor, a.LocationType == models.LocationOutside, loc)

		again := n.Normalize(models.RawAlert{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			Location:    a.Location,
			Timestamp:   a.Timestamp,
		})
		assert.Equal(t, a, again, "re-normalization changed %s", loc)
	}
}

func TestNormalize_PerimeterRevision(t *testing.T) {
	f, err := facility.Parse([]byte("revisions:\n  perimeter:\n    outdoor: [Parking Lot, Perimeter Fence]\n"))
	require.NoError(t, err)
	c, err := f.Catalog("perimeter")
	require.NoError(t, err)

	n := New(c)
	assert.Equal(t, models.LocationOutside, n.Normalize(models.RawAlert{Location: "Parking Lot"}).LocationType)
	assert.Equal(t, models.LocationWithin, n.Normalize(models.RawAlert{Location: "Lake"}).LocationType)
}

func TestNormalize_FixedSeverity(t *testing.T) {
	n := newTestNormalizer(WithSeverity(FixedSeverity(models.SeverityResolved)))

	a := n.Normalize(models.RawAlert{Title: "Violence"})
	assert.Equal(t, models.SeverityResolved, a.Severity)
}

func TestNormalize_FromUpstreamJSON(t *testing.T) {
	n := newTestNormalizer()
	body := `[
		{"id": 200, "title": "Drowsiness", "description": "Drowsiness detected", "location": "Cabin", "timestamp": "2025-04-05T22:10:03.123456"},
		{"title": "  ", "timestamp": 1712345678},
		{"id": null, "location": "Lake", "timestamp": 1712345678901}
	]`

	var raws []models.RawAlert
	require.NoError(t, json.Unmarshal([]byte(body), &raws))
	alerts := n.NormalizeAll(raws)
	require.Len(t, alerts, 3)

	assert.Equal(t, "200", alerts[0].ID)
	assert.Equal(t, models.LocationOutside, alerts[0].LocationType)
	assert.Equal(t, models.SeverityMedium, alerts[0].Severity)
	assert.Equal(t, time.Date(2025, 4, 5, 22, 10, 3, 123456000, time.UTC), alerts[0].Timestamp)

	assert.Equal(t, DefaultTitle, alerts[1].Title)
	assert.Equal(t, time.Unix(1712345678, 0).UTC(), alerts[1].Timestamp)

	assert.NotEmpty(t, alerts[2].ID)
	assert.Equal(t, time.UnixMilli(1712345678901).UTC(), alerts[2].Timestamp)
}

func TestNormalize_OutOfRangeTimestampDefaultsToNow(t *testing.T) {
	n := newTestNormalizer()
	body := `[
		{"id": "1", "timestamp": 1e20},
		{"id": "2", "timestamp": -1e11},
		{"id": "3", "timestamp": "10000-01-01T00:00:00Z"},
		{"id": "4", "timestamp": "1e300"}
	]`

	var raws []models.RawAlert
	require.NoError(t, json.Unmarshal([]byte(body), &raws))
	alerts := n.NormalizeAll(raws)
	require.Len(t, alerts, 4)

	for _, a := range alerts {
		assert.True(t, a.Timestamp.Equal(fixedNow), "alert %s: got %v", a.ID, a.Timestamp)
		_, err := json.Marshal(a)
		assert.NoError(t, err, "alert %s", a.ID)
	}
}

func TestNormalize_NonObjectRecordIsDefaulted(t *testing.T) {
	n := newTestNormalizer()

	var raws []models.RawAlert
	require.NoError(t, json.Unmarshal([]byte(`[{"id": "1", "title": "Violence"}, "oops", 7]`), &raws))
	alerts := n.NormalizeAll(raws)
	require.Len(t, alerts, 3)

	assert.Equal(t, "1", alerts[0].ID)
	assert.Equal(t, DefaultTitle, alerts[1].Title)
	assert.Equal(t, DefaultLocation, alerts[2].Location)
	assert.NotEmpty(t, alerts[2].ID)
}
