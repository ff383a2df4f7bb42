package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Depreciation types
const (
	DepreciationNone      = "none"
	DepreciationImmediate = "immediate"
	DepreciationPartial   = "partial"
)

// Depreciation methods. Degressive is stored as a label only; schedules are
// always computed linearly.
const (
	DepreciationMethodLinear     = "linear"
	DepreciationMethodDegressive = "degressive"
)

// DepreciationSettings is embedded into Expense. Years and StartDate are
// required when Type is "partial".
type DepreciationSettings struct {
	DepreciationType      string           `json:"depreciation_type" gorm:"size:20;default:none"`
	DepreciationYears     int              `json:"depreciation_years,omitempty"`
	DepreciationStartDate *time.Time       `json:"depreciation_start_date,omitempty"`
	DepreciationMethod    string           `json:"depreciation_method,omitempty" gorm:"size:20"`
	TaxDeductibleAmount   *decimal.Decimal `json:"tax_deductible_amount,omitempty" gorm:"type:decimal(12,2)"`
}

// DepreciationScheduleEntry is one year of an expense's depreciation plan.
// Entries are always replaced as a whole, never patched in place.
type DepreciationScheduleEntry struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	ExpenseID        uint            `json:"expense_id" gorm:"index;not null"`
	Year             int             `json:"year" gorm:"not null"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	CumulativeAmount decimal.Decimal `json:"cumulative_amount" gorm:"type:decimal(12,2);not null"`
	RemainingValue   decimal.Decimal `json:"remaining_value" gorm:"type:decimal(12,2);not null"`
	IsFinalYear      bool            `json:"is_final_year" gorm:"default:false"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (DepreciationScheduleEntry) TableName() string {
	return "depreciation_schedule_entries"
}
