package service

import (
	"testing"
	"time"

	"kontor/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestNextOccurrence_FutureStartReturnedUnchanged(t *testing.T) {
	next, err := NextOccurrence(date(2024, 6, 1), models.FrequencyMonthly, nil, date(2024, 1, 15))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, date(2024, 6, 1), *next)
}

func TestNextOccurrence_Monthly(t *testing.T) {
	next, err := NextOccurrence(date(2024, 1, 15), models.FrequencyMonthly, nil, date(2024, 3, 20))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, date(2024, 4, 15), *next)
}

func TestNextOccurrence_Quarterly(t *testing.T) {
	next, err := NextOccurrence(date(2024, 1, 1), models.FrequencyQuarterly, nil, date(2024, 5, 1))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, date(2024, 7, 1), *next)
}

func TestNextOccurrence_Yearly(t *testing.T) {
	next, err := NextOccurrence(date(2022, 3, 10), models.FrequencyYearly, nil, date(2024, 3, 10))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, date(2025, 3, 10), *next)
}

func TestNextOccurrence_StrictlyAfterReference(t *testing.T) {
	// A cursor landing exactly on the reference date must advance once more.
	next, err := NextOccurrence(date(2024, 1, 15), models.FrequencyMonthly, nil, date(2024, 2, 15))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.True(t, next.After(date(2024, 2, 15)))
	assert.Equal(t, date(2024, 3, 15), *next)
}

func TestNextOccurrence_SeriesEnded(t *testing.T) {
	// End date already passed while advancing.
	next, err := NextOccurrence(date(2023, 1, 1), models.FrequencyMonthly, datePtr(2023, 6, 30), date(2024, 1, 1))
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestNextOccurrence_EndDateAfterReference(t *testing.T) {
	// The computed next date would pass the end date even though the end date
	// itself is still in the future.
	next, err := NextOccurrence(date(2024, 1, 1), models.FrequencyMonthly, datePtr(2024, 3, 10), date(2024, 3, 5))
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestNextOccurrence_EndDateStillOpen(t *testing.T) {
	next, err := NextOccurrence(date(2024, 1, 1), models.FrequencyMonthly, datePtr(2024, 12, 31), date(2024, 3, 5))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, date(2024, 4, 1), *next)
}

func TestNextOccurrence_InvalidFrequency(t *testing.T) {
	_, err := NextOccurrence(date(2024, 1, 1), "weekly", nil, date(2024, 3, 5))
	assert.ErrorIs(t, err, ErrInvalidFrequency)
}

func TestNextOccurrence_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)
	ref := time.Date(2024, 1, 15, 0, 0, 1, 0, time.UTC)
	next, err := NextOccurrence(start, models.FrequencyMonthly, nil, ref)
	require.NoError(t, err)
	require.NotNil(t, next)
	// Same calendar day counts as reached, so the cursor advances.
	assert.Equal(t, date(2024, 2, 15), *next)
}

func TestAddPeriod_VariableMonthLengths(t *testing.T) {
	// Month arithmetic follows the calendar, not fixed 30-day steps.
	got, err := AddPeriod(date(2024, 1, 31), models.FrequencyMonthly)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 3, 2), got) // leap year normalization

	got, err = AddPeriod(date(2024, 2, 29), models.FrequencyYearly)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 3, 1), got)

	got, err = AddPeriod(date(2024, 4, 30), models.FrequencyMonthly)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 5, 30), got)
}

func TestValidFrequency(t *testing.T) {
	assert.True(t, ValidFrequency(models.FrequencyMonthly))
	assert.True(t, ValidFrequency(models.FrequencyQuarterly))
	assert.True(t, ValidFrequency(models.FrequencyYearly))
	assert.False(t, ValidFrequency("weekly"))
	assert.False(t, ValidFrequency(""))
}
