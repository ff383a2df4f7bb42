package service

import (
	"errors"
	"fmt"
	"time"

	"kontor/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var twelve = decimal.NewFromInt(12)

// DepreciationService computes multi-year linear depreciation schedules and
// the tax-deductible amount per year for capitalized expenses.
type DepreciationService struct {
	db *gorm.DB
}

// NewDepreciationService creates a depreciation service.
func NewDepreciationService(db *gorm.DB) *DepreciationService {
	return &DepreciationService{db: db}
}

// BuildSchedule computes a linear year-by-year depreciation schedule.
//
// The first year is pro-rated from the start month through year-end
// (January gives 12 months, December 1). The final year absorbs the rounding
// residue so the series sums exactly to netAmount. The degressive method is a
// stored label only; schedules are always computed linearly.
func BuildSchedule(netAmount decimal.Decimal, years int, startDate time.Time) ([]models.DepreciationScheduleEntry, error) {
	if years <= 0 {
		return nil, fmt.Errorf("%w: years must be positive, got %d", ErrInvalidDepreciationInput, years)
	}

	annual := netAmount.Div(decimal.NewFromInt(int64(years))).Round(2)
	firstYearMonths := 13 - int(startDate.Month())
	firstYear := annual.Mul(decimal.NewFromInt(int64(firstYearMonths))).Div(twelve).Round(2)

	entries := make([]models.DepreciationScheduleEntry, 0, years)
	cumulative := decimal.Zero
	for i := 0; i < years; i++ {
		var amount decimal.Decimal
		switch {
		case i == 0:
			amount = firstYear
		case i == years-1:
			amount = netAmount.Sub(cumulative)
		default:
			amount = annual
		}
		cumulative = cumulative.Add(amount)
		entries = append(entries, models.DepreciationScheduleEntry{
			Year:             startDate.Year() + i,
			Amount:           amount,
			CumulativeAmount: cumulative,
			RemainingValue:   netAmount.Sub(cumulative),
			IsFinalYear:      i == years-1,
		})
	}
	return entries, nil
}

// TaxDeductibleAmount returns the amount deductible in the acquisition year
// under the given settings.
//
// Single-year useful-life assets are fully deductible even when flagged
// partial (regulatory special case), independent of the start month.
func TaxDeductibleAmount(settings models.DepreciationSettings, netAmount decimal.Decimal) (decimal.Decimal, error) {
	switch settings.DepreciationType {
	case models.DepreciationPartial:
	default:
		return netAmount, nil
	}

	if settings.DepreciationYears <= 0 || settings.DepreciationStartDate == nil {
		return decimal.Zero, fmt.Errorf("%w: partial depreciation requires years and start date", ErrInvalidDepreciationInput)
	}
	if settings.DepreciationYears == 1 {
		return netAmount, nil
	}

	schedule, err := BuildSchedule(netAmount, settings.DepreciationYears, *settings.DepreciationStartDate)
	if err != nil {
		return decimal.Zero, err
	}
	return schedule[0].Amount, nil
}

// ReplaceSchedule recomputes and stores the expense's depreciation schedule.
// Prior entries are always deleted first; delete and reinsert run as one
// transaction, so a failure leaves the old schedule untouched. Expenses not
// depreciated partially end up with no schedule rows.
func (s *DepreciationService) ReplaceSchedule(expense *models.Expense) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return replaceScheduleTx(tx, expense)
	})
}

func replaceScheduleTx(tx *gorm.DB, expense *models.Expense) error {
	if err := tx.Where("expense_id = ?", expense.ID).
		Delete(&models.DepreciationScheduleEntry{}).Error; err != nil {
		return err
	}
	if expense.DepreciationType != models.DepreciationPartial {
		return nil
	}
	if expense.DepreciationYears <= 0 || expense.DepreciationStartDate == nil {
		return fmt.Errorf("%w: partial depreciation requires years and start date", ErrInvalidDepreciationInput)
	}

	entries, err := BuildSchedule(expense.NetAmount, expense.DepreciationYears, *expense.DepreciationStartDate)
	if err != nil {
		return err
	}
	for i := range entries {
		entries[i].ExpenseID = expense.ID
	}
	return tx.Create(&entries).Error
}

// GetSchedule returns the stored schedule of an expense owned by userID,
// ordered by year.
func (s *DepreciationService) GetSchedule(userID, expenseID uint) ([]models.DepreciationScheduleEntry, error) {
	if _, err := s.getExpense(userID, expenseID); err != nil {
		return nil, err
	}
	var entries []models.DepreciationScheduleEntry
	if err := s.db.Where("expense_id = ?", expenseID).
		Order("year ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// AmountForYear returns the depreciation amount deductible for the expense in
// the given tax year: zero outside the scheduled range or when no schedule
// exists. Non-partial expenses deduct their full net amount in their own year
// and nothing in any other.
func (s *DepreciationService) AmountForYear(userID, expenseID uint, year int) (decimal.Decimal, error) {
	expense, err := s.getExpense(userID, expenseID)
	if err != nil {
		return decimal.Zero, err
	}

	if expense.DepreciationType != models.DepreciationPartial {
		if expense.ExpenseDate.Year() == year {
			return expense.NetAmount, nil
		}
		return decimal.Zero, nil
	}

	var entry models.DepreciationScheduleEntry
	err = s.db.Where("expense_id = ? AND year = ?", expenseID, year).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return entry.Amount, nil
}

// PropagateSettings copies the template's depreciation settings onto every
// generated occurrence. For partial depreciation each child's schedule is
// rebuilt anchored to the template's global start date, never the child's own
// expense date, so all occurrences of one capitalized recurring expense
// depreciate on a synchronized timeline.
func (s *DepreciationService) PropagateSettings(template *models.Expense) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var children []models.Expense
		if err := tx.Where("parent_id = ?", template.ID).Find(&children).Error; err != nil {
			return err
		}
		for i := range children {
			children[i].DepreciationSettings = template.DepreciationSettings
			if err := tx.Model(&models.Expense{}).
				Where("id = ?", children[i].ID).
				Updates(map[string]interface{}{
					"depreciation_type":       template.DepreciationType,
					"depreciation_years":      template.DepreciationYears,
					"depreciation_start_date": template.DepreciationStartDate,
					"depreciation_method":     template.DepreciationMethod,
					"tax_deductible_amount":   template.TaxDeductibleAmount,
				}).Error; err != nil {
				return err
			}
			if err := replaceScheduleTx(tx, &children[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *DepreciationService) getExpense(userID, expenseID uint) (*models.Expense, error) {
	var expense models.Expense
	err := s.db.Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &expense, nil
}
