package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/thirdeye/internal/models"
)

func sampleAlerts() []models.Alert {
	now := time.Now()
	return []models.Alert{
		{ID: "a1", LocationType: models.LocationWithin, Severity: models.SeverityCritical, Timestamp: now},
		{ID: "a2", LocationType: models.LocationOutside, Severity: models.SeverityCritical, Timestamp: now},
		{ID: "a3", LocationType: models.LocationWithin, Severity: models.SeverityMedium, Timestamp: now},
		{ID: "a4", LocationType: models.LocationOutside, Severity: models.SeverityResolved, Timestamp: now},
		{ID: "a5", LocationType: models.LocationWithin, Severity: models.SeverityResolved, Timestamp: now},
	}
}

func ids(alerts []models.Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.ID)
	}
	return out
}

func TestByRole(t *testing.T) {
	alerts := sampleAlerts()

	tests := []struct {
		role models.Role
		want []string
	}{
		{models.RoleSuperadmin, []string{"a1", "a2", "a3", "a4", "a5"}},
		{models.RoleWarden, []string{"a1", "a3", "a5"}},
		{models.RoleWatchman, []string{"a2", "a4"}},
		{models.Role("visitor"), []string{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(ByRole(alerts, tt.role)))
		})
	}
}

func TestVisible_SeverityAfterRole(t *testing.T) {
	alerts := sampleAlerts()

	assert.Equal(t, []string{"a1"}, ids(Visible(alerts, models.RoleWarden, Critical)))
	assert.Equal(t, []string{"a2"}, ids(Visible(alerts, models.RoleWatchman, Critical)))
	assert.Equal(t, []string{"a1", "a2"}, ids(Visible(alerts, models.RoleSuperadmin, Critical)))
	assert.Equal(t, []string{"a4"}, ids(Visible(alerts, models.RoleWatchman, Resolved)))
	assert.Empty(t, Visible(alerts, models.RoleWatchman, Medium))
}

func TestVisible_ProjectionsCommute(t *testing.T) {
	alerts := sampleAlerts()
	roles := []models.Role{models.RoleSuperadmin, models.RoleWarden, models.RoleWatchman}
	filters := []SeverityFilter{All, Critical, Medium, Resolved}

	for _, role := range roles {
		for _, sev := range filters {
			roleFirst := BySeverity(ByRole(alerts, role), sev)
			sevFirst := ByRole(BySeverity(alerts, sev), role)
			assert.Equal(t, ids(roleFirst), ids(sevFirst), "role=%s sev=%s", role, sev)
		}
	}
}

func TestVisible_DoesNotMutateInput(t *testing.T) {
	alerts := sampleAlerts()
	before := ids(alerts)

	_ = Visible(alerts, models.RoleWarden, Critical)
	assert.Equal(t, before, ids(alerts))
}

func TestParseSeverityFilter(t *testing.T) {
	for in, want := range map[string]SeverityFilter{
		"":         All,
		"all":      All,
		"Critical": Critical,
		" medium ": Medium,
		"RESOLVED": Resolved,
	} {
		got, err := ParseSeverityFilter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSeverityFilter("urgent")
	assert.Error(t, err)
}

func TestEmptyMessage(t *testing.T) {
	assert.Equal(t, "No alerts matching the selected filter", EmptyMessage(3))
	assert.Equal(t, "No alerts available for your role", EmptyMessage(0))
}
