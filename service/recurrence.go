package service

import (
	"fmt"
	"time"

	"kontor/models"
)

// DateOnly strips the time-of-day part. All recurrence arithmetic and
// comparisons work on calendar dates in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddPeriod advances a date by one recurrence period. Month arithmetic uses
// calendar months, not fixed day counts.
func AddPeriod(t time.Time, frequency string) (time.Time, error) {
	switch frequency {
	case models.FrequencyMonthly:
		return t.AddDate(0, 1, 0), nil
	case models.FrequencyQuarterly:
		return t.AddDate(0, 3, 0), nil
	case models.FrequencyYearly:
		return t.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, frequency)
	}
}

// ValidFrequency reports whether frequency is a known recurrence frequency.
func ValidFrequency(frequency string) bool {
	_, err := AddPeriod(time.Time{}, frequency)
	return err == nil
}

// NextOccurrence computes the next occurrence of a periodic obligation after
// referenceDate. A start date in the future is returned unchanged. When the
// series has ended (the computed cursor would pass endDate) it returns nil.
func NextOccurrence(startDate time.Time, frequency string, endDate *time.Time, referenceDate time.Time) (*time.Time, error) {
	if !ValidFrequency(frequency) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFrequency, frequency)
	}

	cursor := DateOnly(startDate)
	ref := DateOnly(referenceDate)

	if cursor.After(ref) {
		return &cursor, nil
	}

	for !cursor.After(ref) {
		if endDate != nil && cursor.After(DateOnly(*endDate)) {
			return nil, nil
		}
		cursor, _ = AddPeriod(cursor, frequency)
	}

	if endDate != nil && cursor.After(DateOnly(*endDate)) {
		return nil, nil
	}
	return &cursor, nil
}

// SameYearMonth reports whether two dates fall in the same calendar month.
func SameYearMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
