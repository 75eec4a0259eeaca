package testutil

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// D is shorthand for a decimal literal in fixtures.
func D(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// AssertDecimal compares by value, so 3 and 3.0000 are equal.
func AssertDecimal(t testing.TB, want float64, got decimal.Decimal, msgAndArgs ...any) bool {
	t.Helper()
	if D(want).Equal(got) {
		return true
	}
	return assert.Fail(t, fmt.Sprintf("want %s, got %s", D(want), got), msgAndArgs...)
}

// AssertDecimals compares a series element by element.
func AssertDecimals(t testing.TB, want []float64, got []decimal.Decimal) bool {
	t.Helper()
	if !assert.Len(t, got, len(want)) {
		return false
	}
	ok := true
	for i := range want {
		ok = AssertDecimal(t, want[i], got[i], "index %d", i) && ok
	}
	return ok
}
