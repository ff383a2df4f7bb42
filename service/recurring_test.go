package service

import (
	"testing"
	"time"

	"kontor/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock, func() { sqlDB.Close() }
}

func monthlyTemplate() *models.Expense {
	start := date(2024, 1, 1)
	return &models.Expense{
		ID:                  1,
		UserID:              1,
		Amount:              decimal.NewFromFloat(29.99),
		NetAmount:           decimal.NewFromFloat(25.20),
		TaxRate:             decimal.NewFromInt(19),
		TaxAmount:           decimal.NewFromFloat(4.79),
		Currency:            "EUR",
		Category:            models.CategorySoftware,
		Description:         "IDE license",
		ExpenseDate:         date(2024, 1, 15),
		Status:              models.StatusApproved,
		IsRecurring:         true,
		Frequency:           models.FrequencyMonthly,
		RecurrenceStartDate: &start,
	}
}

func occurrenceDates(occurrences []models.Expense) []time.Time {
	dates := make([]time.Time, 0, len(occurrences))
	for _, o := range occurrences {
		dates = append(dates, o.ExpenseDate)
	}
	return dates
}

func TestBuildOccurrences_MonthlyBackfill(t *testing.T) {
	// Template period January is skipped, April not yet reached.
	occurrences, err := BuildOccurrences(monthlyTemplate(), date(2024, 4, 15))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2024, 2, 15), date(2024, 3, 15)}, occurrenceDates(occurrences))
}

func TestBuildOccurrences_SkipsTemplateMonth(t *testing.T) {
	occurrences, err := BuildOccurrences(monthlyTemplate(), date(2024, 6, 1))
	require.NoError(t, err)
	for _, o := range occurrences {
		assert.False(t, SameYearMonth(o.ExpenseDate, date(2024, 1, 15)),
			"occurrence %s shares the template's own month", o.ExpenseDate)
	}
}

func TestBuildOccurrences_CopiesFinancialFields(t *testing.T) {
	template := monthlyTemplate()
	template.Billable = true
	template.Tags = "tools,annual"
	template.Notes = "team seat"

	occurrences, err := BuildOccurrences(template, date(2024, 3, 1))
	require.NoError(t, err)
	require.Len(t, occurrences, 1)

	o := occurrences[0]
	assert.True(t, o.Amount.Equal(template.Amount))
	assert.True(t, o.NetAmount.Equal(template.NetAmount))
	assert.True(t, o.TaxRate.Equal(template.TaxRate))
	assert.True(t, o.TaxAmount.Equal(template.TaxAmount))
	assert.Equal(t, template.Currency, o.Currency)
	assert.Equal(t, template.Category, o.Category)
	assert.Equal(t, template.Tags, o.Tags)
	assert.Equal(t, template.Notes, o.Notes)
	assert.True(t, o.Billable)
	assert.Equal(t, models.StatusApproved, o.Status)
	require.NotNil(t, o.ParentID)
	assert.Equal(t, template.ID, *o.ParentID)
	assert.False(t, o.IsRecurring)
	assert.Contains(t, o.Description, "[auto-generated]")
}

func TestBuildOccurrences_PhaseAlignment(t *testing.T) {
	// Anchor predates the recurrence start: the cursor shifts into the start
	// month but keeps the anchor's day-of-month.
	template := monthlyTemplate()
	template.ExpenseDate = date(2023, 11, 20)
	start := date(2024, 2, 1)
	template.RecurrenceStartDate = &start

	occurrences, err := BuildOccurrences(template, date(2024, 5, 1))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2024, 2, 20), date(2024, 3, 20), date(2024, 4, 20)}, occurrenceDates(occurrences))
}

func TestBuildOccurrences_StopsAtEndDate(t *testing.T) {
	template := monthlyTemplate()
	end := date(2024, 3, 31)
	template.RecurrenceEndDate = &end

	occurrences, err := BuildOccurrences(template, date(2024, 8, 1))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2024, 2, 15), date(2024, 3, 15)}, occurrenceDates(occurrences))
}

func TestBuildOccurrences_QuarterlyAndYearly(t *testing.T) {
	template := monthlyTemplate()
	template.Frequency = models.FrequencyQuarterly
	occurrences, err := BuildOccurrences(template, date(2024, 12, 1))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2024, 4, 15), date(2024, 7, 15), date(2024, 10, 15)}, occurrenceDates(occurrences))

	template.Frequency = models.FrequencyYearly
	occurrences, err = BuildOccurrences(template, date(2026, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2025, 1, 15), date(2026, 1, 15)}, occurrenceDates(occurrences))
}

func TestBuildOccurrences_Deterministic(t *testing.T) {
	// Unchanged settings produce the identical occurrence set on every run.
	template := monthlyTemplate()
	first, err := BuildOccurrences(template, date(2024, 9, 1))
	require.NoError(t, err)
	second, err := BuildOccurrences(template, date(2024, 9, 1))
	require.NoError(t, err)
	assert.Equal(t, occurrenceDates(first), occurrenceDates(second))
}

func TestBuildOccurrences_InvalidFrequency(t *testing.T) {
	template := monthlyTemplate()
	template.Frequency = "weekly"
	_, err := BuildOccurrences(template, date(2024, 4, 15))
	assert.ErrorIs(t, err, ErrInvalidFrequency)
}

func TestBuildOccurrences_StartEqualsAnchorMonthOnly(t *testing.T) {
	// Nothing to generate while the cursor has not left the template's month.
	occurrences, err := BuildOccurrences(monthlyTemplate(), date(2024, 2, 1))
	require.NoError(t, err)
	assert.Empty(t, occurrences)
}

func TestRecurringService_RegenerateInvalidFrequencyTouchesNothing(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	template := monthlyTemplate()
	template.Frequency = "fortnightly"

	_, err := NewRecurringService(db).Regenerate(template)
	assert.ErrorIs(t, err, ErrInvalidFrequency)
	// The run must abort before any statement reaches the database.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecurringService_RegenerateDeletesAndReinserts(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	// Existing children are collected and wiped together with their schedules.
	mock.ExpectQuery("SELECT `id` FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10).AddRow(11))
	mock.ExpectExec("DELETE FROM `depreciation_schedule_entries`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE `expenses`").
		WillReturnResult(sqlmock.NewResult(0, 2))
	// Fresh occurrences inserted in the same transaction.
	mock.ExpectExec("INSERT INTO `expenses`").
		WillReturnResult(sqlmock.NewResult(12, 2))
	mock.ExpectExec("UPDATE `expenses`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	occurrences, err := NewRecurringService(db).Regenerate(monthlyTemplate())
	require.NoError(t, err)
	assert.NotEmpty(t, occurrences)
	require.NoError(t, mock.ExpectationsWereMet())
}
