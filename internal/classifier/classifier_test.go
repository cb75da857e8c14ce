package classifier

import (
	"testing"

	"github.com/mr1hm/thirdeye/internal/models"
)

func TestClassify_KnownTitles(t *testing.T) {
	table := KnownTitles()
	if len(table) != 7 {
		t.Fatalf("expected 7 known titles, got %d", len(table))
	}
	for title, want := range table {
		if got := Classify(title); got != want {
			t.Errorf("Classify(%q) = %s, want %s", title, got, want)
		}
	}
}

func TestClassify_Fallbacks(t *testing.T) {
	tests := []struct {
		title string
		want  models.Severity
	}{
		{"XYZ Emergency", models.SeverityCritical},
		{"critical temperature", models.SeverityCritical},
		{"Issue Resolved", models.SeverityResolved},
		{"Alarm CLEARED", models.SeverityResolved},
		{"Foo Bar", models.SeverityMedium},
		{"", models.SeverityMedium},
	}

	for _, tt := range tests {
		if got := Classify(tt.title); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.title, got, tt.want)
		}
	}
}

func TestClassify_TableIsCaseSensitive(t *testing.T) {
	if got := Classify("Violence"); got != models.SeverityCritical {
		t.Errorf("expected critical, got %s", got)
	}
	// lower-case misses the table and has no keyword
	if got := Classify("violence"); got != models.SeverityMedium {
		t.Errorf("expected medium, got %s", got)
	}
	if got := Classify("Loitering cleared"); got != models.SeverityResolved {
		t.Errorf("expected resolved, got %s", got)
	}
}

func TestKnownTitles_IsCopy(t *testing.T) {
	table := KnownTitles()
	table["Violence"] = models.SeverityResolved

	if got := Classify("Violence"); got != models.SeverityCritical {
		t.Errorf("mutating the copy changed classification: %s", got)
	}
}
