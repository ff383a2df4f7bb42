package models

import (
	"time"

	"gorm.io/gorm"
)

// ExpenseCategory is a bookkeeping category maintained in the backend.
type ExpenseCategory struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"size:50;not null;uniqueIndex"`
	Sort      int            `json:"sort" gorm:"default:0;index"`
	Color     string         `json:"color" gorm:"size:20;default:#64748b"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (ExpenseCategory) TableName() string {
	return "expense_categories"
}

// Default categories seeded on first start.
const (
	CategoryOfficeSupplies = "Office Supplies"
	CategoryTravel         = "Travel"
	CategorySoftware       = "Software & Subscriptions"
	CategoryHardware       = "Hardware & Equipment"
	CategoryRent           = "Rent & Utilities"
	CategoryInsurance      = "Insurance"
	CategoryProfessional   = "Professional Services"
	CategoryOther          = "Other"
)

// GetCategories returns the default category names in display order.
func GetCategories() []string {
	return []string{
		CategoryOfficeSupplies,
		CategoryTravel,
		CategorySoftware,
		CategoryHardware,
		CategoryRent,
		CategoryInsurance,
		CategoryProfessional,
		CategoryOther,
	}
}
