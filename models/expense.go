package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Recurrence frequencies
const (
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyYearly    = "yearly"
)

// Expense statuses
const (
	StatusDraft    = "draft"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Expense is a single bookkeeping record. A recurring template is an expense
// with IsRecurring=true and no ParentID; its generated occurrences carry
// ParentID = template ID and IsRecurring=false.
type Expense struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	UserID       uint            `json:"user_id" gorm:"index;not null"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	NetAmount    decimal.Decimal `json:"net_amount" gorm:"type:decimal(12,2);not null"`
	TaxRate      decimal.Decimal `json:"tax_rate" gorm:"type:decimal(5,2);default:0"`
	TaxAmount    decimal.Decimal `json:"tax_amount" gorm:"type:decimal(12,2);default:0"`
	Currency     string          `json:"currency" gorm:"size:3;default:EUR"`
	Category     string          `json:"category" gorm:"size:50;not null"`
	Description  string          `json:"description" gorm:"size:255"`
	Notes        string          `json:"notes" gorm:"type:text"`
	Tags         string          `json:"tags" gorm:"size:255"`
	ExpenseDate  time.Time       `json:"expense_date" gorm:"not null;index"`
	Status       string          `json:"status" gorm:"size:20;default:draft"`
	Billable     bool            `json:"billable" gorm:"default:false"`
	Reimbursable bool            `json:"reimbursable" gorm:"default:false"`

	// Recurrence settings, meaningful only on templates.
	IsRecurring         bool       `json:"is_recurring" gorm:"default:false;index"`
	Frequency           string     `json:"frequency,omitempty" gorm:"size:20"`
	RecurrenceStartDate *time.Time `json:"recurrence_start_date,omitempty"`
	RecurrenceEndDate   *time.Time `json:"recurrence_end_date,omitempty"`
	NextOccurrence      *time.Time `json:"next_occurrence,omitempty"`
	ParentID            *uint      `json:"parent_id,omitempty" gorm:"index"`

	DepreciationSettings

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	User      User           `json:"-" gorm:"foreignKey:UserID"`
}

func (Expense) TableName() string {
	return "expenses"
}

// IsTemplate reports whether this expense is a recurring template.
func (e *Expense) IsTemplate() bool {
	return e.IsRecurring && e.ParentID == nil
}
