// Package testutil provides shared test infrastructure for the epidemic
// simulator. It consolidates infection-curve assertions used across sim/ and
// its sub-package tests. It must not import sim/ (sim's own tests use it).
package testutil

import (
	"math"
	"testing"
)

// CurveBounds describes what every well-formed infection curve must satisfy.
type CurveBounds struct {
	Initial    int // expected curve[0]
	Population int // upper bound of every entry
	MaxDays    int // len(curve)-1 must not exceed this
}

// AssertCurveInvariants checks curve against b. Once an entry reaches zero,
// every later entry must be zero too.
func AssertCurveInvariants(t *testing.T, curve []int, b CurveBounds) {
	t.Helper()
	if len(curve) == 0 {
		t.Fatal("curve is empty")
	}
	if curve[0] != b.Initial {
		t.Errorf("curve[0] = %d, want %d", curve[0], b.Initial)
	}
	if days := len(curve) - 1; days > b.MaxDays {
		t.Errorf("curve covers %d days, failsafe is %d", days, b.MaxDays)
	}
	extinctAt := -1
	for day, v := range curve {
		if v < 0 || v > b.Population {
			t.Errorf("curve[%d] = %d outside [0, %d]", day, v, b.Population)
		}
		if extinctAt >= 0 && v != 0 {
			t.Errorf("curve[%d] = %d after extinction on day %d", day, v, extinctAt)
		}
		if v == 0 && extinctAt < 0 {
			extinctAt = day
		}
	}
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
