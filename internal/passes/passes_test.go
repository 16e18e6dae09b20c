package passes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidityWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	from, to, plan, err := ValidityWindow("short_semester", start)
	require.NoError(t, err)
	assert.Equal(t, start, from)
	assert.Equal(t, start.AddDate(0, 0, 50), to)
	assert.Equal(t, 30.0, plan.PriceRM)

	_, to, plan, err = ValidityWindow("annual", start)
	require.NoError(t, err)
	assert.Equal(t, start.AddDate(0, 0, 365), to)
	assert.Equal(t, 120.0, plan.PriceRM)
}

func TestValidityWindowZeroStartDefaultsToNow(t *testing.T) {
	before := time.Now().UTC()
	from, to, _, err := ValidityWindow("short_semester", time.Time{})
	require.NoError(t, err)
	assert.False(t, from.Before(before))
	assert.Equal(t, from.AddDate(0, 0, 50), to)
}

func TestValidityWindowUnknownPlan(t *testing.T) {
	_, _, _, err := ValidityWindow("decade", time.Now())
	require.Error(t, err)
}

func TestPlansCopy(t *testing.T) {
	first := Plans()
	first[0].PriceRM = 999
	assert.Equal(t, 30.0, Plans()[0].PriceRM)
}
