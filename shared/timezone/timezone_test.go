package timezone_test

import (
	"reserve/shared/timezone"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNowAndLocation(t *testing.T) {
	assert.False(t, timezone.Now().IsZero())
	assert.NotNil(t, timezone.GetLocation())
}

func TestFormatAndParse(t *testing.T) {
	parsed, err := timezone.Parse("2006-01-02", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, timezone.GetLocation(), parsed.Location())

	formatted := timezone.Format(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), time.RFC3339)
	assert.NotEmpty(t, formatted)
}

func TestCombineDateAndClock(t *testing.T) {
	date, err := timezone.Parse("2006-01-02", "2025-03-14")
	require.NoError(t, err)

	clock, err := time.Parse("15:04", "09:30")
	require.NoError(t, err)

	combined := timezone.CombineDateAndClock(date, clock)

	assert.Equal(t, 2025, combined.Year())
	assert.Equal(t, time.March, combined.Month())
	assert.Equal(t, 14, combined.Day())
	assert.Equal(t, 9, combined.Hour())
	assert.Equal(t, 30, combined.Minute())
	assert.Equal(t, timezone.GetLocation(), combined.Location())
}

func TestStartOfDay(t *testing.T) {
	at := time.Date(2025, 3, 14, 15, 45, 12, 99, timezone.GetLocation())

	start := timezone.StartOfDay(at)

	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, timezone.GetLocation()), start)
	assert.Equal(t, start, timezone.StartOfDay(start))
}
