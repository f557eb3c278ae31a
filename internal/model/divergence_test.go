package model

import "testing"

func TestClassifyShortageSeverity(t *testing.T) {
	cases := []struct {
		name     string
		required float64
		missing  float64
		expected DivergenceSeverity
	}{
		{"half missing", 600, 300, SeverityHigh},
		{"all missing", 600, 600, SeverityHigh},
		{"exactly high boundary", 100, 50, SeverityHigh},
		{"exactly medium boundary", 100, 20, SeverityMedium},
		{"a third missing", 300, 100, SeverityMedium},
		{"small shortfall", 1000, 50, SeverityLow},
		{"nothing missing", 600, 0, SeverityLow},
		{"zero required", 0, 100, SeverityLow},
		{"negative required", -10, 100, SeverityLow},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ClassifyShortageSeverity(c.required, c.missing); got != c.expected {
				t.Errorf("required %v missing %v: expected %s, got %s", c.required, c.missing, c.expected, got)
			}
		})
	}
}

func TestSeverityMonotonic(t *testing.T) {
	// A larger missing ratio never classifies lower.
	required := 1000.0
	prev := ClassifyShortageSeverity(required, 0)
	for missing := 0.0; missing <= required; missing += 50 {
		current := ClassifyShortageSeverity(required, missing)
		if current.Rank() < prev.Rank() {
			t.Fatalf("severity regressed at missing=%v: %s after %s", missing, current, prev)
		}
		prev = current
	}
}

func TestSeverityRank(t *testing.T) {
	if !(SeverityLow.Rank() < SeverityMedium.Rank() && SeverityMedium.Rank() < SeverityHigh.Rank()) {
		t.Error("severity ranks out of order")
	}
}
