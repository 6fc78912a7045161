package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPricePerTestRoundsUp(t *testing.T) {
	cases := []struct {
		total int64
		tests int
		want  int64
	}{
		{500000, 100, 5000},
		{100, 3, 34},
		{99, 100, 1},
		{0, 100, 0},
		{500000, 0, 0},
	}
	for _, tc := range cases {
		lot := ReagentLot{TotalPrice: tc.total, TotalTests: tc.tests}
		assert.Equal(t, tc.want, lot.PricePerTest(), "%d / %d", tc.total, tc.tests)
	}
}

func TestParseReagentStatus(t *testing.T) {
	for _, raw := range []string{"active", "low_stock", "depleted", "expired"} {
		status, ok := ParseReagentStatus(raw)
		assert.True(t, ok)
		assert.Equal(t, ReagentStatus(raw), status)
	}
	_, ok := ParseReagentStatus("running_low")
	assert.False(t, ok)
}
