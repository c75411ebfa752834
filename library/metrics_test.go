package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountOperations(t *testing.T) {
	m := NewMetrics()
	lib := newTestLibrary(t, WithObserver(m))

	require.NoError(t, lib.CheckOut("P1", "M1"))
	assert.Error(t, lib.CheckOut("P2", "M1"))
	assert.Error(t, lib.RequestHold("P9", "M1"))
	lib.AdvanceDays(10)
	require.NoError(t, lib.PayFine("P1", 25))

	lines, err := m.Summary()
	require.NoError(t, err)
	for _, want := range []string{
		`library_operations_total{op="checkout",outcome="ok"} 1`,
		`library_operations_total{op="checkout",outcome="failed"} 1`,
		`library_operations_total{op="request",outcome="failed"} 1`,
		`library_operations_total{op="advance",outcome="ok"} 10`,
		`library_operations_total{op="fine",outcome="ok"} 3`,
		`library_operations_total{op="pay",outcome="ok"} 1`,
		`library_fines_accrued_cents_total 30`,
		`library_fines_paid_cents_total 25`,
		`library_current_day 10`,
	} {
		assert.Contains(t, lines, want)
	}
}

func TestMetricsSummary(t *testing.T) {
	m := NewMetrics()
	lib := newTestLibrary(t, WithObserver(m))
	require.NoError(t, lib.CheckOut("P1", "B1"))
	lib.AdvanceDay()

	lines, err := m.Summary()
	require.NoError(t, err)
	assert.Contains(t, lines, `library_operations_total{op="checkout",outcome="ok"} 1`)
	assert.Contains(t, lines, `library_current_day 1`)
	assert.Contains(t, lines, `library_fines_accrued_cents_total 0`)
	assert.IsIncreasing(t, lines)
}
